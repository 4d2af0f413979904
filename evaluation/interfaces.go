package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
)

// Evaluator is the engine for evaluating feature flags.
type Evaluator interface {
	// Evaluate evaluates a feature flag for the specified evaluation context.
	//
	// The flag is passed by reference only for efficiency; the evaluator will never modify
	// any flag properties. Passing a nil flag will result in a panic.
	//
	// The evaluator does not know anything about analytics events; generating any
	// appropriate analytics events is the responsibility of the caller, who can also provide
	// a callback in prerequisiteFlagEventRecorder to be notified if any additional
	// evaluations were done due to prerequisites. The prerequisiteFlagEventRecorder
	// parameter can be nil if you do not need to track prerequisite evaluations.
	Evaluate(
		flag *ldmodel.FeatureFlag,
		context ldcontext.Context,
		prerequisiteFlagEventRecorder PrerequisiteFlagEventRecorder,
	) Result
}

// Result encapsulates all information returned by Evaluator.Evaluate.
type Result struct {
	// Detail is the evaluation result: the value, the variation index (if any), and the
	// reason for the result.
	Detail ldreason.EvaluationDetail

	// IsExperiment is true if this evaluation result was determined by an experiment
	// rollout, or by a fallthrough or rule that is individually configured to track events.
	// In either case, full event data should be generated for it regardless of the flag's
	// overall event tracking setting.
	IsExperiment bool
}

// PrerequisiteFlagEventRecorder is a function that Evaluator.Evaluate() will call to record
// the result of a prerequisite flag evaluation.
type PrerequisiteFlagEventRecorder func(PrerequisiteFlagEvent)

// PrerequisiteFlagEvent is the parameter data passed to PrerequisiteFlagEventRecorder.
type PrerequisiteFlagEvent struct {
	// TargetFlagKey is the key of the feature flag that had a prerequisite.
	TargetFlagKey string
	// Context is the evaluation context that the flag was evaluated for. We pass this back
	// to the caller, even though the caller already passed it to us in the Evaluate
	// parameters, so that the caller can provide a stateless function for
	// PrerequisiteFlagEventRecorder rather than a closure (since closures are less
	// efficient).
	Context ldcontext.Context
	// PrerequisiteFlag is the full configuration of the prerequisite flag. We need to pass
	// the full flag here rather than just the key because the flag's properties (such as
	// TrackEvents) can affect how events are generated. This is passed by reference for
	// efficiency only, and will never be nil; the PrerequisiteFlagEventRecorder must not
	// modify the flag's properties.
	PrerequisiteFlag *ldmodel.FeatureFlag
	// PrerequisiteResult is the result of evaluating the prerequisite flag.
	PrerequisiteResult Result
}

// DataProvider is an abstraction for querying feature flags and context segments from a data
// store. The caller provides an implementation of this interface to NewEvaluator.
//
// Flags and segments are returned by reference for efficiency only (on the assumption that
// the caller already has these objects in memory); the evaluator will never modify their
// properties.
type DataProvider interface {
	// GetFeatureFlag attempts to retrieve a feature flag from the data store by key.
	//
	// The evaluator calls this method if a flag contains a prerequisite condition
	// referencing another flag.
	//
	// The method returns nil if the flag was not found. The DataProvider should treat any
	// deleted flag as "not found" even if the data store contains a deleted flag
	// placeholder for it.
	GetFeatureFlag(key string) *ldmodel.FeatureFlag

	// GetSegment attempts to retrieve a context segment from the data store by key.
	//
	// The evaluator calls this method if a clause in a flag rule uses the
	// OperatorSegmentMatch test.
	//
	// The method returns nil if the segment was not found. The DataProvider should treat
	// any deleted segment as "not found" even if the data store contains a deleted segment
	// placeholder for it.
	GetSegment(key string) *ldmodel.Segment
}

// BigSegmentProvider is an abstraction for querying membership in Big Segments. The caller
// can provide an implementation of this interface to NewEvaluatorWithOptions; if none is
// provided, any flag evaluation that references a Big Segment will behave as if no contexts
// are included in any Big Segments, with a BigSegmentsStatus of
// ldreason.BigSegmentsNotConfigured.
type BigSegmentProvider interface {
	// GetBigSegmentMembership queries a snapshot of the Big Segment state for a specific
	// context key.
	//
	// The evaluator will always cache this state for the duration of an evaluation, so that
	// it makes no more than one query per context key even if more than one Big Segment is
	// referenced.
	//
	// The membership return value can be nil if the context has no Big Segments state. The
	// status return value indicates whether the query succeeded, and whether the data
	// should be considered fresh; it is reflected in the evaluation reason.
	GetBigSegmentMembership(
		contextKey string,
	) (BigSegmentMembership, ldreason.BigSegmentsStatus)
}

// BigSegmentMembership is the return type of BigSegmentProvider.GetBigSegmentMembership().
// It is associated with a single evaluation context, and provides the ability to check
// whether that context is explicitly included in or excluded from any number of Big Segments.
//
// This is an immutable snapshot of the state for this context at the time
// GetBigSegmentMembership was called.
type BigSegmentMembership interface {
	// CheckSegmentMembership tests whether the context is explicitly included or explicitly
	// excluded in the specified segment, or neither. The segment is identified by a
	// segmentRef, which corresponds to ldmodel.SegmentRef for a big segment.
	//
	// If the context is explicitly included (regardless of whether the context is also
	// explicitly excluded or not-- that is, inclusion takes priority over exclusion), the
	// method returns an OptionalBool with a true value.
	//
	// If the context is explicitly excluded, and is not explicitly included, the method
	// returns an OptionalBool with a false value.
	//
	// If the context's status in the segment is undefined, the method returns
	// ldvalue.OptionalBool{} with no value; the evaluator will then fall back to evaluating
	// the segment's rules.
	CheckSegmentMembership(segmentRef string) ldvalue.OptionalBool
}
