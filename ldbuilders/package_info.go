// Package ldbuilders contains helpers for constructing the data model objects defined by ldmodel.
//
// This is used mainly in test code, to avoid unnecessary dependencies on implementation details of the data model
// (such as the use of optional value types for some properties).
package ldbuilders
