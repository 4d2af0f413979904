package bigsegments

import (
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal"
)

// bigSegmentStoreStatusProviderImpl is the internal implementation of
// BigSegmentStoreStatusProvider. It's not exported because the rest of the SDK code only
// interacts with the public interface.
type bigSegmentStoreStatusProviderImpl struct {
	getStatusFn func() interfaces.BigSegmentStoreStatus
	broadcaster *internal.Broadcaster[interfaces.BigSegmentStoreStatus]
}

// NewBigSegmentStoreStatusProviderImpl creates the internal implementation of
// BigSegmentStoreStatusProvider. The manager parameter can be nil if there is no Big Segment
// store; then the provider's methods return empty values.
func NewBigSegmentStoreStatusProviderImpl(
	manager *BigSegmentStoreManager,
) interfaces.BigSegmentStoreStatusProvider {
	if manager == nil {
		return &bigSegmentStoreStatusProviderImpl{
			getStatusFn: nil,
			broadcaster: internal.NewBroadcaster[interfaces.BigSegmentStoreStatus](),
		}
	}
	return &bigSegmentStoreStatusProviderImpl{
		getStatusFn: manager.getStatus,
		broadcaster: manager.getBroadcaster(),
	}
}

func (b *bigSegmentStoreStatusProviderImpl) GetStatus() interfaces.BigSegmentStoreStatus {
	if b.getStatusFn == nil {
		return interfaces.BigSegmentStoreStatus{Available: false}
	}
	return b.getStatusFn()
}

func (b *bigSegmentStoreStatusProviderImpl) AddStatusListener() <-chan interfaces.BigSegmentStoreStatus {
	return b.broadcaster.AddListener()
}

func (b *bigSegmentStoreStatusProviderImpl) RemoveStatusListener(
	ch <-chan interfaces.BigSegmentStoreStatus,
) {
	b.broadcaster.RemoveListener(ch)
}
