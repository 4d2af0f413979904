package bigsegments

import (
	"errors"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest/mocks"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoreimpl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPollInterval = 10 * time.Millisecond
	testStaleTime    = time.Hour
	testCacheSize    = 1000
	testCacheTime    = time.Hour
)

type storeManagerTestParams struct {
	t       *testing.T
	store   *mocks.MockBigSegmentStore
	manager *BigSegmentStoreManager
	mockLog *ldlogtest.MockLog
}

func storeManagerTest(t *testing.T) *storeManagerTestParams {
	return &storeManagerTestParams{
		t:       t,
		store:   mocks.NewMockBigSegmentStore(),
		mockLog: ldlogtest.NewMockLog(),
	}
}

func (p *storeManagerTestParams) run(action func(*BigSegmentStoreManager)) {
	defer p.mockLog.DumpIfTestFailed(p.t)

	p.manager = NewBigSegmentStoreManager(p.store, testPollInterval, testStaleTime,
		testCacheSize, testCacheTime, p.mockLog.Loggers)
	defer p.manager.Close()

	action(p.manager)
}

func requireBigSegmentStoreStatus(
	t *testing.T,
	statusCh <-chan interfaces.BigSegmentStoreStatus,
) interfaces.BigSegmentStoreStatus {
	t.Helper()
	select {
	case s := <-statusCh:
		return s
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for status update")
		return interfaces.BigSegmentStoreStatus{}
	}
}

func TestStoreManagerPollingDetectsAvailability(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()

	p.run(func(m *BigSegmentStoreManager) {
		statusCh := m.getBroadcaster().AddListener()

		status := requireBigSegmentStoreStatus(t, statusCh)
		assert.True(t, status.Available)
		assert.False(t, status.Stale)

		p.store.TestSetMetadataState(subsystems.BigSegmentStoreMetadata{}, errors.New("sorry"))
		status = requireBigSegmentStoreStatus(t, statusCh)
		assert.False(t, status.Available)

		p.store.TestSetMetadataToCurrentTime()
		status = requireBigSegmentStoreStatus(t, statusCh)
		assert.True(t, status.Available)
	})
}

func TestStoreManagerPollingDetectsStaleness(t *testing.T) {
	p := storeManagerTest(t)
	longAgo := ldtime.UnixMillisecondTime(1000)
	p.store.TestSetMetadataState(subsystems.BigSegmentStoreMetadata{LastUpToDate: longAgo}, nil)

	p.run(func(m *BigSegmentStoreManager) {
		statusCh := m.getBroadcaster().AddListener()

		status := requireBigSegmentStoreStatus(t, statusCh)
		assert.True(t, status.Available)
		assert.True(t, status.Stale)

		p.store.TestSetMetadataToCurrentTime()
		status = requireBigSegmentStoreStatus(t, statusCh)
		assert.True(t, status.Available)
		assert.False(t, status.Stale)
	})
}

func TestStoreManagerGetStatusQueriesStoreIfPollerHasNotRunYet(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()

	p.run(func(m *BigSegmentStoreManager) {
		status := m.getStatus()
		assert.True(t, status.Available)
	})
}

func TestStoreManagerMembershipQuery(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()
	expectedMembership := ldstoreimpl.NewBigSegmentMembershipFromSegmentRefs(
		[]string{"segment1.g1"}, []string{"segment2.g1"})
	hash := HashForContextKey("contextkey")
	p.store.TestSetMembership(hash, expectedMembership)

	p.run(func(m *BigSegmentStoreManager) {
		membership, ok := m.getContextMembership("contextkey")
		require.True(t, ok)
		assert.Equal(t, expectedMembership, membership)
		assert.Equal(t, []string{hash}, p.store.TestGetMembershipQueries())
	})
}

func TestStoreManagerMembershipIsCached(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()
	hash := HashForContextKey("contextkey")
	p.store.TestSetMembership(hash, ldstoreimpl.NewBigSegmentMembershipFromSegmentRefs(
		[]string{"segment1.g1"}, nil))

	p.run(func(m *BigSegmentStoreManager) {
		_, ok := m.getContextMembership("contextkey")
		require.True(t, ok)
		_, ok = m.getContextMembership("contextkey")
		require.True(t, ok)

		// The second query hit the cache, so the store saw only one query.
		assert.Equal(t, []string{hash}, p.store.TestGetMembershipQueries())
	})
}

func TestStoreManagerCachesNilMembership(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()

	p.run(func(m *BigSegmentStoreManager) {
		membership, ok := m.getContextMembership("contextkey")
		require.True(t, ok)
		assert.Nil(t, membership)

		membership, ok = m.getContextMembership("contextkey")
		require.True(t, ok)
		assert.Nil(t, membership)

		assert.Len(t, p.store.TestGetMembershipQueries(), 1)
	})
}

func TestStoreManagerMembershipStoreError(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()
	p.store.TestSetMembershipError(errors.New("sorry"))

	p.run(func(m *BigSegmentStoreManager) {
		membership, ok := m.getContextMembership("contextkey")
		assert.False(t, ok)
		assert.Nil(t, membership)
	})
}

func TestBigSegmentProviderTranslatesStatus(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()
	hash := HashForContextKey("contextkey")
	p.store.TestSetMembership(hash, ldstoreimpl.NewBigSegmentMembershipFromSegmentRefs(
		[]string{"segment1.g1"}, nil))

	p.run(func(m *BigSegmentStoreManager) {
		provider := NewBigSegmentProvider(m)

		membership, status := provider.GetBigSegmentMembership("contextkey")
		assert.Equal(t, ldreason.BigSegmentsHealthy, status)
		require.NotNil(t, membership)
		assert.Equal(t, ldvalue.NewOptionalBool(true), membership.CheckSegmentMembership("segment1.g1"))
		assert.Equal(t, ldvalue.OptionalBool{}, membership.CheckSegmentMembership("segment2.g1"))
	})
}

func TestBigSegmentProviderStaleStatus(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataState(subsystems.BigSegmentStoreMetadata{LastUpToDate: 1000}, nil)

	p.run(func(m *BigSegmentStoreManager) {
		provider := NewBigSegmentProvider(m)

		_, status := provider.GetBigSegmentMembership("contextkey")
		assert.Equal(t, ldreason.BigSegmentsStale, status)
	})
}

func TestBigSegmentProviderStoreErrorStatus(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()
	p.store.TestSetMembershipError(errors.New("sorry"))

	p.run(func(m *BigSegmentStoreManager) {
		provider := NewBigSegmentProvider(m)

		membership, status := provider.GetBigSegmentMembership("contextkey")
		assert.Nil(t, membership)
		assert.Equal(t, ldreason.BigSegmentsStoreError, status)
	})
}

func TestStatusProviderWithNoManager(t *testing.T) {
	provider := NewBigSegmentStoreStatusProviderImpl(nil)
	assert.Equal(t, interfaces.BigSegmentStoreStatus{Available: false}, provider.GetStatus())
}

func TestStatusProviderDelegatesToManager(t *testing.T) {
	p := storeManagerTest(t)
	p.store.TestSetMetadataToCurrentTime()

	p.run(func(m *BigSegmentStoreManager) {
		provider := NewBigSegmentStoreStatusProviderImpl(m)

		statusCh := provider.AddStatusListener()
		defer provider.RemoveStatusListener(statusCh)

		status := requireBigSegmentStoreStatus(t, statusCh)
		assert.True(t, status.Available)
		assert.True(t, provider.GetStatus().Available)
	})
}
