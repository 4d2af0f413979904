package bigsegments

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/evaluation"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// NewBigSegmentProvider creates the adapter that the evaluator uses to query Big Segments.
// It translates the store manager's query results into the evaluator's membership and
// status types.
func NewBigSegmentProvider(manager *BigSegmentStoreManager) evaluation.BigSegmentProvider {
	return &bigSegmentProviderImpl{manager: manager}
}

type bigSegmentProviderImpl struct {
	manager *BigSegmentStoreManager
}

func (b *bigSegmentProviderImpl) GetBigSegmentMembership(
	contextKey string,
) (evaluation.BigSegmentMembership, ldreason.BigSegmentsStatus) {
	membership, ok := b.manager.getContextMembership(contextKey)
	if !ok {
		return nil, ldreason.BigSegmentsStoreError
	}
	status := ldreason.BigSegmentsHealthy
	if b.manager.getStatus().Stale {
		status = ldreason.BigSegmentsStale
	}
	if membership == nil {
		return nil, status
	}
	return bigSegmentMembershipAdapter{membership: membership}, status
}

type bigSegmentMembershipAdapter struct {
	membership subsystems.BigSegmentMembership
}

func (a bigSegmentMembershipAdapter) CheckSegmentMembership(segmentRef string) ldvalue.OptionalBool {
	return a.membership.CheckMembership(segmentRef)
}
