package ldstoretypes

// DataKind represents a separately namespaced collection of storable data items.
//
// The SDK passes instances of this type to the data store to specify whether it is referring to
// a feature flag, a context segment, etc. The data store implementation should not look for a
// specific data kind (such as feature flags), but should treat all data kinds generically.
type DataKind interface {
	// GetName returns a short string that uniquely identifies this data kind, such as
	// "features". Persistent stores use it as a namespace or key prefix.
	GetName() string
	// Serialize converts a deserialized item into its serialized form for persistence.
	Serialize(item ItemDescriptor) []byte
	// Deserialize converts a serialized item back into an ItemDescriptor. A deleted item
	// placeholder deserializes to an ItemDescriptor with a nil Item.
	Deserialize(data []byte) (ItemDescriptor, error)
}
