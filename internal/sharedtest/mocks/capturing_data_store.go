package mocks

import (
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpsertParams holds the parameters of an Upsert operation captured by CapturingDataStore.
type UpsertParams struct {
	Kind ldstoretypes.DataKind
	Key  string
	Item ldstoretypes.ItemDescriptor
}

// CapturingDataStore is a DataStore implementation that records update operations for testing,
// while delegating read operations to a real store.
type CapturingDataStore struct {
	realStore               subsystems.DataStore
	statusMonitoringEnabled bool
	fakeError               error
	inits                   chan []ldstoretypes.Collection
	upserts                 chan UpsertParams
	lock                    sync.Mutex
}

// NewCapturingDataStore creates an instance of CapturingDataStore.
func NewCapturingDataStore(realStore subsystems.DataStore) *CapturingDataStore {
	return &CapturingDataStore{
		realStore:               realStore,
		inits:                   make(chan []ldstoretypes.Collection, 10),
		upserts:                 make(chan UpsertParams, 10),
		statusMonitoringEnabled: true,
	}
}

// Init is a standard DataStore method.
func (d *CapturingDataStore) Init(allData []ldstoretypes.Collection) error {
	for _, coll := range allData {
		sharedtest.AssertNotNil(coll.Kind)
	}
	d.inits <- allData
	_ = d.realStore.Init(allData)
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.fakeError
}

// Get is a standard DataStore method.
func (d *CapturingDataStore) Get(
	kind ldstoretypes.DataKind,
	key string,
) (ldstoretypes.ItemDescriptor, error) {
	sharedtest.AssertNotNil(kind)
	d.lock.Lock()
	fakeError := d.fakeError
	d.lock.Unlock()
	if fakeError != nil {
		return ldstoretypes.ItemDescriptor{}.NotFound(), fakeError
	}
	return d.realStore.Get(kind, key)
}

// GetAll is a standard DataStore method.
func (d *CapturingDataStore) GetAll(
	kind ldstoretypes.DataKind,
) ([]ldstoretypes.KeyedItemDescriptor, error) {
	sharedtest.AssertNotNil(kind)
	d.lock.Lock()
	fakeError := d.fakeError
	d.lock.Unlock()
	if fakeError != nil {
		return nil, fakeError
	}
	return d.realStore.GetAll(kind)
}

// Upsert captures its parameters and also delegates to the real store.
func (d *CapturingDataStore) Upsert(
	kind ldstoretypes.DataKind,
	key string,
	newItem ldstoretypes.ItemDescriptor,
) (bool, error) {
	sharedtest.AssertNotNil(kind)
	d.upserts <- UpsertParams{kind, key, newItem}
	updated, _ := d.realStore.Upsert(kind, key, newItem)
	d.lock.Lock()
	defer d.lock.Unlock()
	return updated, d.fakeError
}

// IsInitialized in this test type always returns true.
func (d *CapturingDataStore) IsInitialized() bool {
	return true
}

// IsStatusMonitoringEnabled in this test type returns true by default, but can be changed
// with SetStatusMonitoringEnabled.
func (d *CapturingDataStore) IsStatusMonitoringEnabled() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.statusMonitoringEnabled
}

// Close in this test type is a no-op.
func (d *CapturingDataStore) Close() error {
	return nil
}

// SetStatusMonitoringEnabled changes the value returned by IsStatusMonitoringEnabled.
func (d *CapturingDataStore) SetStatusMonitoringEnabled(statusMonitoringEnabled bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.statusMonitoringEnabled = statusMonitoringEnabled
}

// SetFakeError causes subsequent store operations to return an error.
func (d *CapturingDataStore) SetFakeError(fakeError error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.fakeError = fakeError
}

// WaitForNextInit waits for an Init call and returns its data.
func (d *CapturingDataStore) WaitForNextInit(
	t *testing.T,
	timeout time.Duration,
) []ldstoretypes.Collection {
	select {
	case inited := <-d.inits:
		return inited
	case <-time.After(timeout):
		require.Fail(t, "timed out before receiving expected init")
	}
	return nil
}

// ExpectNoInit asserts that no Init call occurs within the timeout.
func (d *CapturingDataStore) ExpectNoInit(t *testing.T, timeout time.Duration) {
	select {
	case <-d.inits:
		require.Fail(t, "received unexpected init")
	case <-time.After(timeout):
	}
}

// WaitForInit waits for an Init call and verifies that it matches the expected data.
func (d *CapturingDataStore) WaitForInit(
	t *testing.T,
	data []ldstoretypes.Collection,
	timeout time.Duration,
) {
	select {
	case inited := <-d.inits:
		assertDataSetsEqual(t, data, inited)
	case <-time.After(timeout):
		require.Fail(t, "timed out before receiving expected init")
	}
}

// WaitForUpsert waits for an Upsert call and verifies that it matches the expected data.
func (d *CapturingDataStore) WaitForUpsert(
	t *testing.T,
	kind ldstoretypes.DataKind,
	key string,
	version int,
	timeout time.Duration,
) UpsertParams {
	select {
	case upserted := <-d.upserts:
		assert.Equal(t, key, upserted.Key)
		assert.Equal(t, version, upserted.Item.Version)
		assert.NotNil(t, upserted.Item.Item)
		return upserted
	case <-time.After(timeout):
		require.Fail(t, "timed out before receiving expected update")
		return UpsertParams{}
	}
}

// WaitForDelete waits for an Upsert call that is expected to delete a data item.
func (d *CapturingDataStore) WaitForDelete(
	t *testing.T,
	kind ldstoretypes.DataKind,
	key string,
	version int,
	timeout time.Duration,
) {
	select {
	case upserted := <-d.upserts:
		assert.Equal(t, key, upserted.Key)
		assert.Equal(t, version, upserted.Item.Version)
		assert.Nil(t, upserted.Item.Item)
	case <-time.After(timeout):
		require.Fail(t, "timed out before receiving expected deletion")
	}
}

func assertDataSetsEqual(t *testing.T, expected, actual []ldstoretypes.Collection) {
	require.Equal(t, len(expected), len(actual))
	for i, expectedColl := range expected {
		actualColl := actual[i]
		assert.Equal(t, expectedColl.Kind, actualColl.Kind)
		expectedItems := make(map[string]ldstoretypes.ItemDescriptor, len(expectedColl.Items))
		for _, item := range expectedColl.Items {
			expectedItems[item.Key] = item.Item
		}
		actualItems := make(map[string]ldstoretypes.ItemDescriptor, len(actualColl.Items))
		for _, item := range actualColl.Items {
			actualItems[item.Key] = item.Item
		}
		assert.Equal(t, expectedItems, actualItems)
	}
}
