// Package ldservices provides HTTP handlers that simulate the behavior of LaunchDarkly
// service endpoints, for testing SDK components or applications that embed the SDK.
//
// These handlers are built on the httphelpers package in github.com/launchdarkly/go-test-helpers.
package ldservices
