// Package sharedtest contains types and functions used by SDK unit tests in multiple packages.
//
// Application code should not use this package; it is not supported as part of the SDK API.
//
// Since the tests in the internal package use these helpers, this package is not allowed to
// reference the internal package, to avoid a circular dependency.
package sharedtest
