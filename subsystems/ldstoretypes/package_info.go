// Package ldstoretypes contains types that are used by data store implementations.
//
// Application code normally does not refer to these types; they are used by the SDK's
// internal components, by database integration packages, and by custom data store
// implementations.
package ldstoretypes
