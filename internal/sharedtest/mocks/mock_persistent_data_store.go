package mocks

import (
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"
)

// MockPersistentDataStore is a test implementation of PersistentDataStore.
type MockPersistentDataStore struct {
	data                map[ldstoretypes.DataKind]map[string]ldstoretypes.SerializedItemDescriptor
	persistOnlyAsString bool
	fakeError           error
	available           bool
	inited              bool
	InitQueriedCount    int
	queryDelay          time.Duration
	queryStartedCh      chan struct{}
	testTxHook          func()
	closed              bool
	lock                sync.Mutex
}

// NewMockPersistentDataStore creates a test implementation of a persistent data store.
func NewMockPersistentDataStore() *MockPersistentDataStore {
	return &MockPersistentDataStore{
		data:      make(map[ldstoretypes.DataKind]map[string]ldstoretypes.SerializedItemDescriptor),
		available: true,
	}
}

// SetPersistOnlyAsString puts the test store into a mode where it simulates a database that
// can only store the serialized item string, with no separate metadata. In this mode, Get
// returns items with a zero Version, and deleted items are persisted as tombstone strings.
func (m *MockPersistentDataStore) SetPersistOnlyAsString(value bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.persistOnlyAsString = value
}

// EnableInstrumentedQueries puts the test store into a mode where all get operations begin by
// posting a signal to a channel and then waiting for some amount of time, to test coalescing
// of requests.
func (m *MockPersistentDataStore) EnableInstrumentedQueries(queryDelay time.Duration) <-chan struct{} {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.queryDelay = queryDelay
	m.queryStartedCh = make(chan struct{}, 10)
	return m.queryStartedCh
}

// SetTestTxHook sets a callback that is invoked in the middle of an Upsert operation, to test
// concurrent modification behavior.
func (m *MockPersistentDataStore) SetTestTxHook(hook func()) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.testTxHook = hook
}

// ForceGet retrieves a serialized item directly from the test data with no other processing.
func (m *MockPersistentDataStore) ForceGet(
	kind ldstoretypes.DataKind,
	key string,
) ldstoretypes.SerializedItemDescriptor {
	m.lock.Lock()
	defer m.lock.Unlock()
	if ret, ok := m.dataForKind(kind)[key]; ok {
		return ret
	}
	return ldstoretypes.SerializedItemDescriptor{}.NotFound()
}

// ForceSet directly modifies an item in the test data.
func (m *MockPersistentDataStore) ForceSet(
	kind ldstoretypes.DataKind,
	key string,
	item ldstoretypes.SerializedItemDescriptor,
) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.dataForKind(kind)[key] = item
}

// ForceRemove deletes an item from the test data.
func (m *MockPersistentDataStore) ForceRemove(kind ldstoretypes.DataKind, key string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.dataForKind(kind), key)
}

// ForceSetInited changes the value that will be returned by IsInitialized().
func (m *MockPersistentDataStore) ForceSetInited(inited bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.inited = inited
}

// SetAvailable changes the value that will be returned by IsStoreAvailable().
func (m *MockPersistentDataStore) SetAvailable(available bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.available = available
}

// SetFakeError causes subsequent store operations to return an error.
func (m *MockPersistentDataStore) SetFakeError(fakeError error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.fakeError = fakeError
}

func (m *MockPersistentDataStore) dataForKind(
	kind ldstoretypes.DataKind,
) map[string]ldstoretypes.SerializedItemDescriptor {
	if ret, ok := m.data[kind]; ok {
		return ret
	}
	ret := make(map[string]ldstoretypes.SerializedItemDescriptor)
	m.data[kind] = ret
	return ret
}

func (m *MockPersistentDataStore) startQuery() {
	if m.queryStartedCh != nil {
		m.queryStartedCh <- struct{}{}
	}
	if m.queryDelay > 0 {
		<-time.After(m.queryDelay)
	}
}

// Init is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) Init(allData []ldstoretypes.SerializedCollection) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.fakeError != nil {
		return m.fakeError
	}
	m.data = make(map[ldstoretypes.DataKind]map[string]ldstoretypes.SerializedItemDescriptor)
	for _, coll := range allData {
		sharedtest.AssertNotNil(coll.Kind)
		itemsMap := make(map[string]ldstoretypes.SerializedItemDescriptor)
		for _, item := range coll.Items {
			itemsMap[item.Key] = m.storableItem(item.Item)
		}
		m.data[coll.Kind] = itemsMap
	}
	m.inited = true
	return nil
}

// Get is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) Get(
	kind ldstoretypes.DataKind,
	key string,
) (ldstoretypes.SerializedItemDescriptor, error) {
	sharedtest.AssertNotNil(kind)
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.fakeError != nil {
		return ldstoretypes.SerializedItemDescriptor{}.NotFound(), m.fakeError
	}
	m.startQuery()
	if item, ok := m.dataForKind(kind)[key]; ok {
		return m.retrievedItem(item), nil
	}
	return ldstoretypes.SerializedItemDescriptor{}.NotFound(), nil
}

// GetAll is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) GetAll(
	kind ldstoretypes.DataKind,
) ([]ldstoretypes.KeyedSerializedItemDescriptor, error) {
	sharedtest.AssertNotNil(kind)
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.fakeError != nil {
		return nil, m.fakeError
	}
	m.startQuery()
	ret := []ldstoretypes.KeyedSerializedItemDescriptor{}
	for k, v := range m.dataForKind(kind) {
		ret = append(ret, ldstoretypes.KeyedSerializedItemDescriptor{Key: k, Item: m.retrievedItem(v)})
	}
	return ret, nil
}

// Upsert is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) Upsert(
	kind ldstoretypes.DataKind,
	key string,
	newItem ldstoretypes.SerializedItemDescriptor,
) (bool, error) {
	sharedtest.AssertNotNil(kind)
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.fakeError != nil {
		return false, m.fakeError
	}
	if m.testTxHook != nil {
		m.testTxHook()
	}
	if oldItem, ok := m.dataForKind(kind)[key]; ok {
		oldVersion := oldItem.Version
		if m.persistOnlyAsString {
			// In this mode the version is not visible as a separate attribute, so we must
			// deserialize the item to get it.
			oldDeserializedItem, _ := kind.Deserialize(oldItem.SerializedItem)
			oldVersion = oldDeserializedItem.Version
		}
		if oldVersion >= newItem.Version {
			return false, nil
		}
	}
	m.dataForKind(kind)[key] = m.storableItem(newItem)
	return true, nil
}

// IsInitialized is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) IsInitialized() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.InitQueriedCount++
	return m.inited
}

// IsStoreAvailable is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) IsStoreAvailable() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.available
}

// Close is a standard PersistentDataStore method.
func (m *MockPersistentDataStore) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closed = true
	return nil
}

func (m *MockPersistentDataStore) retrievedItem(
	item ldstoretypes.SerializedItemDescriptor,
) ldstoretypes.SerializedItemDescriptor {
	if m.persistOnlyAsString {
		// This simulates the kind of store implementation that can't track metadata separately
		return ldstoretypes.SerializedItemDescriptor{Version: 0, SerializedItem: item.SerializedItem}
	}
	return item
}

func (m *MockPersistentDataStore) storableItem(
	item ldstoretypes.SerializedItemDescriptor,
) ldstoretypes.SerializedItemDescriptor {
	if item.Deleted && !m.persistOnlyAsString {
		// A store that can track metadata separately does not need to persist the
		// placeholder string for deleted items.
		return ldstoretypes.SerializedItemDescriptor{Version: item.Version, Deleted: true}
	}
	return item
}
