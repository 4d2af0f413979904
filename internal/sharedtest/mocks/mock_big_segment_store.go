package mocks

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// MockBigSegmentStore is a test implementation of BigSegmentStore.
type MockBigSegmentStore struct {
	metadata          subsystems.BigSegmentStoreMetadata
	metadataErr       error
	memberships       map[string]subsystems.BigSegmentMembership
	membershipErr     error
	membershipQueries []string
	lock              sync.Mutex
}

// NewMockBigSegmentStore creates a test implementation of a Big Segment store.
func NewMockBigSegmentStore() *MockBigSegmentStore {
	return &MockBigSegmentStore{memberships: make(map[string]subsystems.BigSegmentMembership)}
}

// Close is a standard BigSegmentStore method.
func (m *MockBigSegmentStore) Close() error {
	return nil
}

// GetMetadata returns the stub metadata or error that was set with TestSetMetadataState or
// TestSetMetadataToCurrentTime.
func (m *MockBigSegmentStore) GetMetadata() (subsystems.BigSegmentStoreMetadata, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.metadata, m.metadataErr
}

// TestSetMetadataState sets the value that will be returned by GetMetadata.
func (m *MockBigSegmentStore) TestSetMetadataState(
	metadata subsystems.BigSegmentStoreMetadata,
	err error,
) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.metadata, m.metadataErr = metadata, err
}

// TestSetMetadataToCurrentTime is equivalent to TestSetMetadataState with the current time as
// the LastUpToDate value.
func (m *MockBigSegmentStore) TestSetMetadataToCurrentTime() {
	m.TestSetMetadataState(
		subsystems.BigSegmentStoreMetadata{LastUpToDate: ldtime.UnixMillisNow()},
		nil,
	)
}

// GetMembership returns the stub membership that was set with TestSetMembership, and records
// the query.
func (m *MockBigSegmentStore) GetMembership(
	contextHash string,
) (subsystems.BigSegmentMembership, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.membershipQueries = append(m.membershipQueries, contextHash)
	if m.membershipErr != nil {
		return nil, m.membershipErr
	}
	return m.memberships[contextHash], nil
}

// TestSetMembership sets the membership that will be returned by GetMembership for a specific
// hashed context key.
func (m *MockBigSegmentStore) TestSetMembership(
	contextHash string,
	membership subsystems.BigSegmentMembership,
) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.memberships[contextHash] = membership
}

// TestSetMembershipError causes all subsequent GetMembership calls to return an error.
func (m *MockBigSegmentStore) TestSetMembershipError(err error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.membershipErr = err
}

// TestGetMembershipQueries returns the hashed context keys of all GetMembership calls so far.
func (m *MockBigSegmentStore) TestGetMembershipQueries() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	ret := make([]string, len(m.membershipQueries))
	copy(ret, m.membershipQueries)
	return ret
}
