package subsystems

import (
	"io"

	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"
)

// DataStore is an interface for a data store that holds feature flags and related data received
// by the SDK.
//
// Ordinarily, the only implementations of this interface are the default in-memory
// implementation, which holds references to actual SDK data model objects, and the persistent
// data store implementation that delegates to a PersistentDataStore.
//
// All implementations must be goroutine-safe.
type DataStore interface {
	io.Closer

	// Init overwrites the store's contents with a set of items for each collection.
	//
	// All previous data is discarded, regardless of versioning.
	//
	// The update should be done atomically. If it cannot be done atomically, then the store
	// must first add or update each item in the same order that they are given in the input
	// data, and then delete any previously stored items that were not in the input data.
	Init(allData []ldstoretypes.Collection) error

	// Get retrieves an item from the specified collection, if available.
	//
	// If the specified key does not exist in the collection, it returns
	// ldstoretypes.ItemDescriptor{}.NotFound().
	//
	// If the item has been deleted and the store contains a placeholder, it returns that
	// placeholder rather than NotFound().
	Get(kind ldstoretypes.DataKind, key string) (ldstoretypes.ItemDescriptor, error)

	// GetAll retrieves all items from the specified collection.
	//
	// If the store contains placeholders for deleted items, it includes them in the results;
	// callers are responsible for filtering them out.
	GetAll(kind ldstoretypes.DataKind) ([]ldstoretypes.KeyedItemDescriptor, error)

	// Upsert updates or inserts an item in the specified collection. For updates, the object
	// will only be updated if the existing version is less than the new version.
	//
	// The SDK may pass an ItemDescriptor with a nil Item, to represent a placeholder for a
	// deleted item. In that case, assuming the version is greater than any existing version
	// of that item, the store should retain that placeholder rather than simply not storing
	// anything.
	//
	// The method returns true if the item was updated, or false if it was not updated
	// because the store contains an equal or greater version.
	Upsert(kind ldstoretypes.DataKind, key string, item ldstoretypes.ItemDescriptor) (bool, error)

	// IsInitialized returns true if the data store contains a complete data set, meaning
	// that Init has been called at least once.
	//
	// In a shared data store, it should be able to detect this even if Init was called in a
	// different process: that is, the test should be based on looking at what is in the data
	// store. Once this returns true, it should never return false.
	IsInitialized() bool

	// IsStatusMonitoringEnabled returns true if this data store implementation supports
	// status monitoring.
	//
	// This is normally only true for persistent data stores, meaning that the store
	// guarantees a DataStoreUpdateSink will be notified if the store's availability changes.
	// The in-memory store returns false, since it cannot fail.
	IsStatusMonitoringEnabled() bool
}
