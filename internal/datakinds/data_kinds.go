// Package datakinds defines the implementations of the ldstoretypes.DataKind abstraction for
// feature flags and for segments.
package datakinds

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"

	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"
)

//nolint:gochecknoglobals // global used as a constant for efficiency
var modelSerialization = ldmodel.NewJSONDataModelSerialization()

// DataKindInternal is implemented along with DataKind to provide more efficient jsonstream
//-based deserialization for our built-in data kinds.
type DataKindInternal interface {
	ldstoretypes.DataKind
	DeserializeFromJSONReader(reader *jreader.Reader) (ldstoretypes.ItemDescriptor, error)
}

// Features is the global DataKindInternal instance for feature flags.
//
//nolint:gochecknoglobals
var Features DataKindInternal = featureFlagStoreDataKind{}

// Segments is the global DataKindInternal instance for segments.
//
//nolint:gochecknoglobals
var Segments DataKindInternal = segmentStoreDataKind{}

// AllDataKinds returns a list of supported data kinds. Among other things, this list might be
// used by data stores to know what data (namespaces) to expect.
func AllDataKinds() []ldstoretypes.DataKind {
	return []ldstoretypes.DataKind{Features, Segments}
}

// featureFlagStoreDataKind implements DataKindInternal for feature flag data.
type featureFlagStoreDataKind struct{}

// GetName returns the unique namespace identifier for feature flag objects.
func (fk featureFlagStoreDataKind) GetName() string {
	return "features"
}

// Serialize is used internally by the SDK when communicating with a PersistentDataStore.
func (fk featureFlagStoreDataKind) Serialize(item ldstoretypes.ItemDescriptor) []byte {
	if item.Item == nil {
		return serializeDeletedItemPlaceholder(item.Version)
	}
	if flag, ok := item.Item.(*ldmodel.FeatureFlag); ok {
		if bytes, err := modelSerialization.MarshalFeatureFlag(*flag); err == nil {
			return bytes
		}
	}
	return nil
}

// Deserialize is used internally by the SDK when communicating with a PersistentDataStore.
func (fk featureFlagStoreDataKind) Deserialize(data []byte) (ldstoretypes.ItemDescriptor, error) {
	flag, err := modelSerialization.UnmarshalFeatureFlag(data)
	if err != nil {
		return ldstoretypes.ItemDescriptor{}.NotFound(), err
	}
	if flag.Deleted {
		return ldstoretypes.ItemDescriptor{Version: flag.Version, Item: nil}, nil
	}
	return ldstoretypes.ItemDescriptor{Version: flag.Version, Item: &flag}, nil
}

// DeserializeFromJSONReader is used internally by the SDK when parsing streaming or polling
// responses; it is more efficient than Deserialize because it can consume JSON that is
// embedded in a larger document without another copy.
func (fk featureFlagStoreDataKind) DeserializeFromJSONReader(r *jreader.Reader) (
	ldstoretypes.ItemDescriptor, error) {
	flag := ldmodel.UnmarshalFeatureFlagFromJSONReader(r)
	if err := r.Error(); err != nil {
		return ldstoretypes.ItemDescriptor{}.NotFound(), err
	}
	if flag.Deleted {
		return ldstoretypes.ItemDescriptor{Version: flag.Version, Item: nil}, nil
	}
	return ldstoretypes.ItemDescriptor{Version: flag.Version, Item: &flag}, nil
}

// String returns a human-readable string identifier.
func (fk featureFlagStoreDataKind) String() string {
	return fk.GetName()
}

// segmentStoreDataKind implements DataKindInternal for segment data.
type segmentStoreDataKind struct{}

// GetName returns the unique namespace identifier for segment objects.
func (sk segmentStoreDataKind) GetName() string {
	return "segments"
}

// Serialize is used internally by the SDK when communicating with a PersistentDataStore.
func (sk segmentStoreDataKind) Serialize(item ldstoretypes.ItemDescriptor) []byte {
	if item.Item == nil {
		return serializeDeletedItemPlaceholder(item.Version)
	}
	if segment, ok := item.Item.(*ldmodel.Segment); ok {
		if bytes, err := modelSerialization.MarshalSegment(*segment); err == nil {
			return bytes
		}
	}
	return nil
}

// Deserialize is used internally by the SDK when communicating with a PersistentDataStore.
func (sk segmentStoreDataKind) Deserialize(data []byte) (ldstoretypes.ItemDescriptor, error) {
	segment, err := modelSerialization.UnmarshalSegment(data)
	if err != nil {
		return ldstoretypes.ItemDescriptor{}.NotFound(), err
	}
	if segment.Deleted {
		return ldstoretypes.ItemDescriptor{Version: segment.Version, Item: nil}, nil
	}
	return ldstoretypes.ItemDescriptor{Version: segment.Version, Item: &segment}, nil
}

// DeserializeFromJSONReader is used internally by the SDK when parsing streaming or polling
// responses.
func (sk segmentStoreDataKind) DeserializeFromJSONReader(r *jreader.Reader) (
	ldstoretypes.ItemDescriptor, error) {
	segment := ldmodel.UnmarshalSegmentFromJSONReader(r)
	if err := r.Error(); err != nil {
		return ldstoretypes.ItemDescriptor{}.NotFound(), err
	}
	if segment.Deleted {
		return ldstoretypes.ItemDescriptor{Version: segment.Version, Item: nil}, nil
	}
	return ldstoretypes.ItemDescriptor{Version: segment.Version, Item: &segment}, nil
}

// String returns a human-readable string identifier.
func (sk segmentStoreDataKind) String() string {
	return sk.GetName()
}

// The persisted form of a tombstone for a deleted item, for backward compatibility with
// other SDKs that read the same persistent store.
func serializeDeletedItemPlaceholder(version int) []byte {
	return []byte(fmt.Sprintf(`{"version":%d,"deleted":true}`, version))
}
