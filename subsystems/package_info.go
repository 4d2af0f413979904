// Package subsystems contains interfaces for implementation components of the SDK.
//
// Most applications will not need to refer to these types. They are used when configuring
// non-default component implementations (such as a database integration) in ld.Config, or
// when writing a custom component implementation.
package subsystems
