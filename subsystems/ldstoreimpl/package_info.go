// Package ldstoreimpl contains SDK data store implementation objects that may be used by
// external code such as custom data store integrations and test tooling.
//
// Application code normally does not need to reference these types. They are exported
// because custom implementations of the PersistentDataStore or BigSegmentStore interfaces,
// and code that deserializes SDK data outside of the SDK, need access to the standard data
// kinds and helper implementations.
package ldstoreimpl
