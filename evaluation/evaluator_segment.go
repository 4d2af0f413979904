package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
)

func (es *evaluationScope) segmentContainsContext(
	s *ldmodel.Segment,
	stack evaluationStack,
) (bool, error) {
	for _, seenKey := range stack.segmentChain {
		if seenKey == s.Key {
			return false, circularSegmentReferenceError(s.Key)
		}
	}
	stack.segmentChain = append(stack.segmentChain, s.Key)
	// Since stack is passed by value, the append above is visible only to the nested calls
	// we make from here; the caller's chain is unaffected.

	if s.Unbounded {
		return es.bigSegmentContainsContext(s, stack)
	}

	// Check if the context is specifically included in or excluded from the segment by key.
	// Inclusions, for any context kind, take precedence over exclusions.
	var defaultKindExcluded bool
	if defaultContext := es.context.IndividualContextByKind(ldcontext.DefaultKind); defaultContext.IsDefined() {
		if included, found := ldmodel.SegmentIncludesOrExcludesKey(s, defaultContext.Key()); found {
			if included {
				return true, nil
			}
			defaultKindExcluded = true
		}
	}
	for i := range s.IncludedContexts {
		if es.segmentTargetMatch(&s.IncludedContexts[i]) {
			return true, nil
		}
	}
	if defaultKindExcluded {
		return false, nil
	}
	for i := range s.ExcludedContexts {
		if es.segmentTargetMatch(&s.ExcludedContexts[i]) {
			return false, nil
		}
	}

	// Check if any of the segment rules match
	for i := range s.Rules {
		match, err := es.segmentRuleMatchesContext(&s.Rules[i], s.Key, s.Salt, stack)
		if match || err != nil {
			return match, err
		}
	}

	return false, nil
}

func (es *evaluationScope) segmentTargetMatch(t *ldmodel.SegmentTarget) bool {
	kind := t.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	if individualContext := es.context.IndividualContextByKind(kind); individualContext.IsDefined() {
		return ldmodel.SegmentTargetContainsKey(t, individualContext.Key())
	}
	return false
}

func (es *evaluationScope) segmentRuleMatchesContext(
	r *ldmodel.SegmentRule,
	key, salt string,
	stack evaluationStack,
) (bool, error) {
	// Note that r is passed by reference only for efficiency; we do not modify it
	for i := range r.Clauses {
		match, err := es.clauseMatchesContext(&r.Clauses[i], stack)
		if !match || err != nil {
			return false, err
		}
	}

	// If the Weight is absent, this rule matches
	if !r.Weight.IsDefined() {
		return true, nil
	}

	// All of the clauses are met. Check to see if the context buckets in
	bucket, _, err := es.computeBucketValue(false, ldvalue.OptionalInt{}, r.RolloutContextKind,
		key, r.BucketBy, salt)
	if err != nil {
		return false, err
	}
	weight := float32(r.Weight.IntValue()) / 100000.0
	return bucket < weight, nil
}

func (es *evaluationScope) bigSegmentContainsContext(
	s *ldmodel.Segment,
	stack evaluationStack,
) (bool, error) {
	if !s.Generation.IsDefined() {
		// Big Segment data, which is populated by the Relay Proxy, will always have a
		// generation. If it's missing, the data is invalid or the LaunchDarkly service is
		// out of date, so we cannot do a query.
		es.recordBigSegmentsStatus(ldreason.BigSegmentsNotConfigured)
		return false, nil
	}

	kind := s.UnboundedContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	individualContext := es.context.IndividualContextByKind(kind)
	if !individualContext.IsDefined() {
		return false, nil
	}
	key := individualContext.Key()

	// A single evaluation makes at most one membership query per context key, even if more
	// than one Big Segment is referenced; the result is memoized in the scope.
	membership, seen := es.bigSegmentsMemberships[key]
	if !seen {
		if es.owner.bigSegmentProvider == nil {
			es.recordBigSegmentsStatus(ldreason.BigSegmentsNotConfigured)
			return false, nil
		}
		var status ldreason.BigSegmentsStatus
		membership, status = es.owner.bigSegmentProvider.GetBigSegmentMembership(key)
		if es.bigSegmentsMemberships == nil {
			es.bigSegmentsMemberships = make(map[string]BigSegmentMembership)
		}
		es.bigSegmentsMemberships[key] = membership
		es.recordBigSegmentsStatus(status)
	}

	if membership != nil {
		if included := membership.CheckSegmentMembership(ldmodel.SegmentRef(s)); included.IsDefined() {
			return included.BoolValue(), nil
		}
	}

	// The store had no explicit inclusion or exclusion for this context, so we fall back to
	// the segment's rules.
	for i := range s.Rules {
		match, err := es.segmentRuleMatchesContext(&s.Rules[i], s.Key, s.Salt, stack)
		if match || err != nil {
			return match, err
		}
	}
	return false, nil
}

// Tracks the most severe Big Segments status encountered during an evaluation; this is what
// is reported in the evaluation reason.
func (es *evaluationScope) recordBigSegmentsStatus(status ldreason.BigSegmentsStatus) {
	if bigSegmentsStatusPriority(status) > bigSegmentsStatusPriority(es.bigSegmentsStatus) {
		es.bigSegmentsStatus = status
	}
}

func bigSegmentsStatusPriority(status ldreason.BigSegmentsStatus) int {
	switch status {
	case ldreason.BigSegmentsHealthy:
		return 1
	case ldreason.BigSegmentsStale:
		return 2
	case ldreason.BigSegmentsNotConfigured:
		return 3
	case ldreason.BigSegmentsStoreError:
		return 4
	default:
		return 0
	}
}
