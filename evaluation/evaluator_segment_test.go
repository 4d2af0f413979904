package evaluation

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldbuilders"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"

	"github.com/stretchr/testify/assert"
)

func makeSegmentMatchFlag(segmentKeys ...string) ldmodel.FeatureFlag {
	return makeClauseFlag(ldbuilders.SegmentMatchClause(segmentKeys...))
}

func assertSegmentMatch(t *testing.T, expectedMatch bool, segment ldmodel.Segment, context ldcontext.Context) {
	t.Helper()
	f := makeSegmentMatchFlag(segment.Key)
	evaluator := NewEvaluator(basicDataProvider().withStoredSegments(segment))
	result := evaluator.Evaluate(&f, context, nil)
	if expectedMatch {
		assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex,
			"segment %s should have matched %s", segment.Key, context)
	} else {
		assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex,
			"segment %s should not have matched %s", segment.Key, context)
	}
}

func TestSegmentMatchClauseRetrievesSegmentFromStore(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").Included("userkey").Build()
	assertSegmentMatch(t, true, segment, flagTestContext)
}

func TestSegmentMatchClauseFallsThroughIfSegmentNotFound(t *testing.T) {
	f := makeSegmentMatchFlag("unknown-segment")
	evaluator := NewEvaluator(basicDataProvider())

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex)
}

func TestSegmentIncludesContextByKeyForNonDefaultKind(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").
		IncludedContextKind("org", "orgkey").Build()
	assertSegmentMatch(t, true, segment, ldcontext.NewWithKind("org", "orgkey"))
	assertSegmentMatch(t, false, segment, ldcontext.New("orgkey"))
}

func TestSegmentExcludesContextByKey(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").
		Excluded("userkey").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("key", ldmodel.OperatorIn, ldvalue.String("userkey")))).
		Build()
	// The rule would match, but the exclusion takes precedence.
	assertSegmentMatch(t, false, segment, flagTestContext)
}

func TestSegmentIncludeTakesPrecedenceOverExclude(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").
		Included("userkey").
		Excluded("userkey").
		Build()
	assertSegmentMatch(t, true, segment, flagTestContext)
}

func TestSegmentRuleMatchesContextWithClauses(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("name", ldmodel.OperatorIn, ldvalue.String("Bob")))).
		Build()
	assertSegmentMatch(t, true, segment,
		ldcontext.NewBuilder("userkey").Name("Bob").Build())
	assertSegmentMatch(t, false, segment,
		ldcontext.NewBuilder("userkey").Name("Carol").Build())
}

func TestSegmentRuleWithWeightBucketsContext(t *testing.T) {
	// Weight 100000 means every context matches; weight 0 means none do.
	allWeight := ldbuilders.NewSegmentBuilder("segkey").
		Salt("salty").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("key", ldmodel.OperatorIn, ldvalue.String("userkey"))).
			Weight(100000)).
		Build()
	assertSegmentMatch(t, true, allWeight, flagTestContext)

	noWeight := ldbuilders.NewSegmentBuilder("segkey").
		Salt("salty").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("key", ldmodel.OperatorIn, ldvalue.String("userkey"))).
			Weight(0)).
		Build()
	assertSegmentMatch(t, false, noWeight, flagTestContext)
}

func TestSegmentReferencingSegment(t *testing.T) {
	segment1 := ldbuilders.NewSegmentBuilder("segkey1").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.SegmentMatchClause("segkey2"))).
		Build()
	segment2 := ldbuilders.NewSegmentBuilder("segkey2").Included("userkey").Build()

	f := makeSegmentMatchFlag("segkey1")
	evaluator := NewEvaluator(basicDataProvider().withStoredSegments(segment1, segment2))
	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex)
}

func TestCircularSegmentReferenceReturnsMalformedFlagError(t *testing.T) {
	segment1 := ldbuilders.NewSegmentBuilder("segkey1").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.SegmentMatchClause("segkey2"))).
		Build()
	segment2 := ldbuilders.NewSegmentBuilder("segkey2").
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.SegmentMatchClause("segkey1"))).
		Build()

	f := makeSegmentMatchFlag("segkey1")
	evaluator := NewEvaluator(basicDataProvider().withStoredSegments(segment1, segment2))
	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, result.Detail.Reason.GetErrorKind())
}

// Big Segment tests. A "Big Segment" is one with Unbounded set to true; its membership comes
// from a BigSegmentProvider instead of being inlined in the segment data.

type mockBigSegmentProvider struct {
	memberships      map[string]BigSegmentMembership
	status           ldreason.BigSegmentsStatus
	membershipQueries []string
}

func bigSegmentsProvider() *mockBigSegmentProvider {
	return &mockBigSegmentProvider{
		memberships: make(map[string]BigSegmentMembership),
		status:      ldreason.BigSegmentsHealthy,
	}
}

func (m *mockBigSegmentProvider) withStatus(status ldreason.BigSegmentsStatus) *mockBigSegmentProvider {
	m.status = status
	return m
}

func (m *mockBigSegmentProvider) withMembership(
	contextKey string,
	membership BigSegmentMembership,
) *mockBigSegmentProvider {
	m.memberships[contextKey] = membership
	return m
}

func (m *mockBigSegmentProvider) GetBigSegmentMembership(
	contextKey string,
) (BigSegmentMembership, ldreason.BigSegmentsStatus) {
	m.membershipQueries = append(m.membershipQueries, contextKey)
	return m.memberships[contextKey], m.status
}

type mockMembership map[string]bool

func (m mockMembership) CheckSegmentMembership(segmentRef string) ldvalue.OptionalBool {
	if value, found := m[segmentRef]; found {
		return ldvalue.NewOptionalBool(value)
	}
	return ldvalue.OptionalBool{}
}

func makeBigSegment() ldmodel.Segment {
	return ldbuilders.NewSegmentBuilder("segkey").Unbounded(true).Generation(2).Build()
}

func TestBigSegmentWithNoProviderIsNotConfigured(t *testing.T) {
	segment := makeBigSegment()
	f := makeSegmentMatchFlag(segment.Key)
	evaluator := NewEvaluator(basicDataProvider().withStoredSegments(segment))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex)
	assert.Equal(t, ldreason.BigSegmentsNotConfigured, result.Detail.Reason.GetBigSegmentsStatus())
}

func TestBigSegmentWithNoGenerationIsNotConfigured(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").Unbounded(true).Build()
	f := makeSegmentMatchFlag(segment.Key)
	provider := bigSegmentsProvider().withMembership("userkey",
		mockMembership{ldmodel.SegmentRef(&segment): true})
	evaluator := NewEvaluatorWithOptions(basicDataProvider().withStoredSegments(segment),
		EvaluatorOptionBigSegmentProvider(provider))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex)
	assert.Equal(t, ldreason.BigSegmentsNotConfigured, result.Detail.Reason.GetBigSegmentsStatus())
}

func TestBigSegmentMembershipIncludesContext(t *testing.T) {
	segment := makeBigSegment()
	f := makeSegmentMatchFlag(segment.Key)
	provider := bigSegmentsProvider().withMembership("userkey",
		mockMembership{ldmodel.SegmentRef(&segment): true})
	evaluator := NewEvaluatorWithOptions(basicDataProvider().withStoredSegments(segment),
		EvaluatorOptionBigSegmentProvider(provider))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex)
	assert.Equal(t, ldreason.BigSegmentsHealthy, result.Detail.Reason.GetBigSegmentsStatus())
}

func TestBigSegmentMembershipExcludesContextEvenIfRulesWouldMatch(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").Unbounded(true).Generation(2).
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("key", ldmodel.OperatorIn, ldvalue.String("userkey")))).
		Build()
	f := makeSegmentMatchFlag(segment.Key)
	provider := bigSegmentsProvider().withMembership("userkey",
		mockMembership{ldmodel.SegmentRef(&segment): false})
	evaluator := NewEvaluatorWithOptions(basicDataProvider().withStoredSegments(segment),
		EvaluatorOptionBigSegmentProvider(provider))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex)
}

func TestBigSegmentFallsBackToRulesIfMembershipIsUndefined(t *testing.T) {
	segment := ldbuilders.NewSegmentBuilder("segkey").Unbounded(true).Generation(2).
		AddRule(ldbuilders.NewSegmentRuleBuilder().
			Clauses(ldbuilders.Clause("key", ldmodel.OperatorIn, ldvalue.String("userkey")))).
		Build()
	f := makeSegmentMatchFlag(segment.Key)
	provider := bigSegmentsProvider() // no membership data at all
	evaluator := NewEvaluatorWithOptions(basicDataProvider().withStoredSegments(segment),
		EvaluatorOptionBigSegmentProvider(provider))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex)
	assert.Equal(t, ldreason.BigSegmentsHealthy, result.Detail.Reason.GetBigSegmentsStatus())
}

func TestBigSegmentStatusIsReportedInReason(t *testing.T) {
	for _, status := range []ldreason.BigSegmentsStatus{
		ldreason.BigSegmentsHealthy,
		ldreason.BigSegmentsStale,
		ldreason.BigSegmentsStoreError,
	} {
		t.Run(string(status), func(t *testing.T) {
			segment := makeBigSegment()
			f := makeSegmentMatchFlag(segment.Key)
			provider := bigSegmentsProvider().withStatus(status).withMembership("userkey",
				mockMembership{ldmodel.SegmentRef(&segment): true})
			evaluator := NewEvaluatorWithOptions(basicDataProvider().withStoredSegments(segment),
				EvaluatorOptionBigSegmentProvider(provider))

			result := evaluator.Evaluate(&f, flagTestContext, nil)
			assert.Equal(t, status, result.Detail.Reason.GetBigSegmentsStatus())
		})
	}
}

func TestBigSegmentStateIsQueriedOnlyOncePerContextKey(t *testing.T) {
	segment1 := ldbuilders.NewSegmentBuilder("segkey1").Unbounded(true).Generation(2).Build()
	segment2 := ldbuilders.NewSegmentBuilder("segkey2").Unbounded(true).Generation(2).Build()
	f := threeVariationFlag("feature").
		AddRule(ldbuilders.NewRuleBuilder().ID("rule1").Variation(onVariationIndex).
			Clauses(ldbuilders.SegmentMatchClause("segkey1"))).
		AddRule(ldbuilders.NewRuleBuilder().ID("rule2").Variation(onVariationIndex).
			Clauses(ldbuilders.SegmentMatchClause("segkey2"))).
		Build()
	provider := bigSegmentsProvider().withMembership("userkey",
		mockMembership{ldmodel.SegmentRef(&segment2): true})
	evaluator := NewEvaluatorWithOptions(
		basicDataProvider().withStoredSegments(segment1, segment2),
		EvaluatorOptionBigSegmentProvider(provider))

	result := evaluator.Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex)
	assert.Equal(t, []string{"userkey"}, provider.membershipQueries)
}
