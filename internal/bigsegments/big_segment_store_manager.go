package bigsegments

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"time"

	"github.com/launchdarkly/ccache"
	"golang.org/x/sync/singleflight"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// BigSegmentStoreManager polls the Big Segment store's metadata to track its availability
// and staleness, and caches per-context membership queries. It is the component behind both
// the BigSegmentStoreStatusProvider and the evaluator's Big Segment queries.
type BigSegmentStoreManager struct {
	store             subsystems.BigSegmentStore
	staleTime         time.Duration
	contextCache      *ccache.Cache
	cacheTTL          time.Duration
	pollInterval      time.Duration
	haveStatus        bool
	lastStatus        interfaces.BigSegmentStoreStatus
	requests          singleflight.Group
	statusBroadcaster *internal.Broadcaster[interfaces.BigSegmentStoreStatus]
	pollCloser        chan struct{}
	closeOnce         sync.Once
	statusLock        sync.RWMutex
	loggers           ldlog.Loggers
}

// NewBigSegmentStoreManager creates the BigSegmentStoreManager and starts the status poller.
// The store must not be nil.
func NewBigSegmentStoreManager(
	store subsystems.BigSegmentStore,
	pollInterval time.Duration,
	staleTime time.Duration,
	contextCacheSize int,
	contextCacheTime time.Duration,
	loggers ldlog.Loggers,
) *BigSegmentStoreManager {
	pollCloser := make(chan struct{})
	m := &BigSegmentStoreManager{
		store:             store,
		staleTime:         staleTime,
		contextCache:      ccache.New(ccache.Configure().MaxSize(int64(contextCacheSize))),
		cacheTTL:          contextCacheTime,
		pollInterval:      pollInterval,
		statusBroadcaster: internal.NewBroadcaster[interfaces.BigSegmentStoreStatus](),
		pollCloser:        pollCloser,
		loggers:           loggers,
	}

	go m.runPollTask(pollInterval, pollCloser)

	return m
}

// Close shuts down the manager, the poller, the cache, and the underlying store.
func (m *BigSegmentStoreManager) Close() {
	m.closeOnce.Do(func() {
		close(m.pollCloser)
		m.contextCache.Stop()
		m.statusBroadcaster.Close()
		_ = m.store.Close()
	})
}

// getStatus returns the current status of the store, querying it synchronously if we have
// not yet gotten a status from the poller.
func (m *BigSegmentStoreManager) getStatus() interfaces.BigSegmentStoreStatus {
	m.statusLock.RLock()
	status := m.lastStatus
	haveStatus := m.haveStatus
	m.statusLock.RUnlock()

	if haveStatus {
		return status
	}

	return m.pollStoreAndUpdateStatus()
}

func (m *BigSegmentStoreManager) getBroadcaster() *internal.Broadcaster[interfaces.BigSegmentStoreStatus] {
	return m.statusBroadcaster
}

// getContextMembership queries the membership state for a context key, using the LRU cache and
// collapsing concurrent queries for the same key. The second return value indicates whether
// the query succeeded; the staleness of the result is reported separately by getStatus.
func (m *BigSegmentStoreManager) getContextMembership(contextKey string) (subsystems.BigSegmentMembership, bool) {
	entry := m.contextCache.Get(contextKey)
	if entry != nil && !entry.Expired() {
		if membership, ok := entry.Value().(subsystems.BigSegmentMembership); ok {
			return membership, true
		}
		// A nil value is cached for contexts that are in no Big Segments at all.
		return nil, true
	}
	membershipIntf, err, _ := m.requests.Do(contextKey, func() (interface{}, error) {
		membership, err := m.store.GetMembership(HashForContextKey(contextKey))
		if err != nil {
			m.loggers.Errorf("Big Segment store returned error: %s", err)
			return nil, err
		}
		m.contextCache.Set(contextKey, membership, m.cacheTTL)
		return membership, nil
	})
	if err != nil {
		return nil, false
	}
	if membership, ok := membershipIntf.(subsystems.BigSegmentMembership); ok {
		return membership, true
	}
	return nil, true
}

func (m *BigSegmentStoreManager) runPollTask(pollInterval time.Duration, pollCloser <-chan struct{}) {
	if pollInterval > m.staleTime {
		pollInterval = m.staleTime // COVERAGE: not really unit-testable due to scheduling indeterminacy
	}
	ticker := time.NewTicker(pollInterval)
	for {
		select {
		case <-pollCloser:
			ticker.Stop()
			return
		case <-ticker.C:
			_ = m.pollStoreAndUpdateStatus()
		}
	}
}

func (m *BigSegmentStoreManager) pollStoreAndUpdateStatus() interfaces.BigSegmentStoreStatus {
	var newStatus interfaces.BigSegmentStoreStatus
	metadata, err := m.store.GetMetadata()

	m.statusLock.Lock()
	if err == nil {
		newStatus.Available = true
		newStatus.Stale = m.isStale(metadata.LastUpToDate)
	} else {
		m.loggers.Errorf("Big Segment store status query returned error: %s", err)
		newStatus.Available = false
	}
	oldStatus := m.lastStatus
	m.lastStatus = newStatus
	hadStatus := m.haveStatus
	m.haveStatus = true
	m.statusLock.Unlock()

	if !hadStatus || newStatus != oldStatus {
		m.loggers.Debugf(
			"Big Segment store status has changed from %+v to %+v",
			oldStatus,
			newStatus,
		)
		m.statusBroadcaster.Broadcast(newStatus)
	}

	return newStatus
}

func (m *BigSegmentStoreManager) isStale(updateTime ldtime.UnixMillisecondTime) bool {
	age := time.Duration(uint64(ldtime.UnixMillisNow())-uint64(updateTime)) * time.Millisecond
	return age >= m.staleTime
}

// HashForContextKey computes the hash that we use in the Big Segment store. Big Segment
// store data uses hashed keys instead of raw context keys.
func HashForContextKey(key string) string {
	hashBytes := sha256.Sum256([]byte(key))
	return base64.StdEncoding.EncodeToString(hashBytes[:])
}
