// Package interfaces contains types that are part of the public API, but are not needed for
// basic use of the SDK.
//
// These types are mostly related to advanced features such as status monitoring and flag
// change notifications. Data structures and interfaces that are specifically for writing
// custom component implementations are in the subsystems package instead.
package interfaces
