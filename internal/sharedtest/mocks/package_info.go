// Package mocks contains mock implementations of SDK component interfaces, for use in SDK
// unit tests.
//
// Application code should not use this package; it is not supported as part of the SDK API.
package mocks
