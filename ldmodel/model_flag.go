package ldmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// FeatureFlag describes an individual feature flag.
//
// The fields of this struct are exported for use by LaunchDarkly internal components. Application
// code should normally not reference FeatureFlag fields directly; flag data normally comes from
// LaunchDarkly SDK endpoints in JSON form and is deserialized with UnmarshalFeatureFlag.
type FeatureFlag struct {
	// Key is the unique string key of the feature flag.
	Key string
	// On is true if targeting is turned on for this flag.
	//
	// If On is false, the evaluator always uses OffVariation and ignores all other fields.
	On bool
	// Prerequisites is a list of feature flag conditions that must be satisfied before this flag
	// can use its own targeting logic. If any prerequisite is not met, the flag behaves as if
	// targeting were turned off.
	Prerequisites []Prerequisite
	// Targets contains sets of individually targeted context keys for the default context kind
	// (user).
	//
	// Targets take precedence over Rules: a context matched by any Target short-circuits rule
	// evaluation. Targets are ignored if targeting is turned off.
	Targets []Target
	// ContextTargets contains sets of individually targeted context keys for specific context
	// kinds.
	//
	// An element whose kind is the default kind may have an empty Values list, in which case the
	// values come from the Targets element with the same variation; this preserves the evaluation
	// order that the LaunchDarkly dashboard defines.
	ContextTargets []Target
	// Rules is a list of rules that may match a context. The first matching rule wins; rules are
	// ignored if targeting is turned off.
	Rules []FlagRule
	// Fallthrough defines the result if targeting is on but the context is not matched by any
	// Target or Rule.
	Fallthrough VariationOrRollout
	// OffVariation specifies the variation index to use if targeting is turned off.
	//
	// If this is undefined (ldvalue.OptionalInt{}), the result has an undefined variation index
	// and a value of ldvalue.Null().
	OffVariation ldvalue.OptionalInt
	// Variations is the list of all allowable variations for this flag. Variation indices used
	// elsewhere in the flag are zero-based indices to this list.
	Variations []ldvalue.Value
	// ClientSideAvailability indicates whether the flag is available to client-side SDKs, for
	// each of the client-side authentication methods.
	ClientSideAvailability ClientSideAvailability
	// Salt is a randomized value assigned to this flag when it is created.
	//
	// The hash function used for percentage rollouts mixes this in so that rollouts are
	// consistent within a flag but not predictable between flags.
	Salt string
	// TrackEvents is true if the SDK should send full event data for each evaluation of this
	// flag, rather than only aggregated data in a summary event. The event system implements
	// that behavior; it is only data here.
	TrackEvents bool
	// TrackEventsFallthrough is true if the SDK should send full event data for any evaluation
	// where this flag had targeting turned on but the context did not match any targets or rules.
	TrackEventsFallthrough bool
	// DebugEventsUntilDate is non-zero if event debugging has been temporarily enabled for this
	// flag. It is a Unix millisecond timestamp after which the SDK stops sending debug events.
	DebugEventsUntilDate ldtime.UnixMillisecondTime
	// Version is an integer that is incremented by LaunchDarkly every time the configuration of
	// the flag is changed.
	Version int
	// Deleted is true if this is not actually a feature flag but a placeholder (tombstone) for a
	// deleted flag. Data stores keep tombstones so that deletions are versioned like any other
	// update; the SDK never evaluates a deleted flag.
	Deleted bool
}

// FlagRule describes a single rule within a feature flag.
//
// A rule consists of a set of ANDed matching conditions (Clause) for a context, along with either
// a fixed variation or a set of rollout percentages to use if the context matches all clauses.
type FlagRule struct {
	// VariationOrRollout properties for a FlagRule define what variation to return if the context
	// matches this rule.
	VariationOrRollout
	// ID is a randomized identifier assigned to each rule when it is created; it is reported in
	// the ruleId property of evaluation reasons.
	ID string
	// Clauses is the list of test conditions making up the rule. These are ANDed: every Clause
	// must match for the FlagRule to match.
	Clauses []Clause
	// TrackEvents is true if the SDK should send full event data for any evaluation matching
	// this rule.
	TrackEvents bool
}

// RolloutKind describes whether a rollout is a simple percentage rollout or represents an
// experiment. Experiments have different behavior for event tracking and variation bucketing.
type RolloutKind string

const (
	// RolloutKindRollout represents a simple percentage rollout. This is the default kind and is
	// assumed if not otherwise specified.
	RolloutKindRollout RolloutKind = "rollout"
	// RolloutKindExperiment represents an experiment.
	RolloutKindExperiment RolloutKind = "experiment"
)

// VariationOrRollout describes either a fixed variation or a percentage rollout.
//
// There is a VariationOrRollout in every FlagRule, and one in FeatureFlag.Fallthrough which is
// used if no rules match. The rollout is only defined if it has a non-empty Variations list.
type VariationOrRollout struct {
	// Variation specifies the index of the variation to return. It is undefined
	// (ldvalue.OptionalInt{}) if a rollout is used instead.
	Variation ldvalue.OptionalInt
	// Rollout specifies a percentage rollout to be used instead of a specific variation.
	Rollout Rollout
}

// Rollout describes how contexts are allocated to variations during a percentage rollout.
type Rollout struct {
	// Kind specifies whether this rollout is a simple percentage rollout or an experiment.
	Kind RolloutKind
	// ContextKind is the context kind whose attributes the rollout uses for bucketing.
	//
	// An empty string here means the property was unset, which is treated as
	// ldcontext.DefaultKind and omitted in serialization.
	ContextKind ldcontext.Kind
	// Variations is the list of variations in the rollout and the proportion of contexts that
	// receive each.
	//
	// The Weight values of all elements should add up to 100000 (100%). If they add up to less,
	// the last element absorbs the remainder, so weights of [1000, 1000, 1000] behave like
	// [1000, 1000, 98000].
	Variations []WeightedVariation
	// BucketBy specifies which context attribute distinguishes between contexts in a rollout.
	// It applies only to simple rollouts and is ignored for experiments.
	//
	// The default, when BucketBy is an empty ldattr.Ref{}, is the context's key.
	BucketBy ldattr.Ref
	// Seed, if present, overrides the hashing inputs for this rollout so that rollouts sharing
	// a Seed assign the same contexts to the same buckets. If unset, the hash uses the flag key
	// and the flag's Salt.
	Seed ldvalue.OptionalInt
}

// IsExperiment returns whether this rollout represents an experiment.
func (r Rollout) IsExperiment() bool {
	return r.Kind == RolloutKindExperiment
}

// Clause describes an individual test condition within a FlagRule or SegmentRule.
type Clause struct {
	// ContextKind is the context kind that this clause applies to.
	//
	// An empty string here means the property was unset, which is treated as
	// ldcontext.DefaultKind and omitted in serialization.
	ContextKind ldcontext.Kind
	// Attribute specifies the context attribute that is being tested.
	//
	// This is required for all operators except OperatorSegmentMatch, which ignores it. If the
	// context has no value for this attribute, the clause is always a non-match (regardless of
	// Negate).
	//
	// If the context's value for the attribute is a JSON array, the test is repeated for each
	// element until a match is found.
	Attribute ldattr.Ref
	// Op specifies the type of test to perform.
	Op Operator
	// Values is the list of values to compare the context attribute against. The list is ORed:
	// the clause matches if the attribute matches any one value under the operator.
	//
	// When Op is OperatorSegmentMatch, each value is instead a segment key (a string).
	Values []ldvalue.Value
	// Negate inverts the result of the operator test. It does not apply when no test was
	// performed because the attribute had no value.
	Negate bool
	// preprocessed is created by PreprocessFlag or PreprocessSegment to speed up matching.
	preprocessed clausePreprocessedData
}

// WeightedVariation describes the fraction of contexts that receive a specific variation.
type WeightedVariation struct {
	// Variation is the index of the variation returned to contexts in this bucket. It is always
	// a real variation index.
	Variation int
	// Weight is the proportion of contexts in this bucket, as an integer from 0 to 100000.
	Weight int
	// Untracked means contexts allocated to this variation should not have experiment tracking
	// events sent.
	Untracked bool
}

// Target describes a set of context keys that receive a specific variation.
type Target struct {
	// ContextKind is the context kind that this target list applies to.
	//
	// An empty string here means the property was unset, which is treated as
	// ldcontext.DefaultKind and omitted in serialization.
	ContextKind ldcontext.Kind
	// Values is the set of context keys included in this Target.
	Values []string
	// Variation is the index of the variation returned to matching contexts. It is always a
	// real variation index.
	Variation int
	// preprocessed is created by PreprocessFlag to speed up target matching.
	preprocessed targetPreprocessedData
}

// Prerequisite describes a requirement that another feature flag return a specific variation.
//
// A prerequisite condition is met if the prerequisite flag has targeting turned on and returns
// the specified variation through its own targeting logic. The prerequisite's OffVariation never
// satisfies the condition, even if it matches.
type Prerequisite struct {
	// Key is the unique key of the feature flag to be evaluated as a prerequisite.
	Key string
	// Variation is the index of the variation that the prerequisite flag must return. It is
	// always a real variation index.
	Variation int
}

// ClientSideAvailability describes whether a flag is available to client-side SDKs.
//
// A server-side client uses this to decide whether to include a flag in bootstrapped flag data
// for browser or mobile clients.
type ClientSideAvailability struct {
	// UsingMobileKey indicates that the flag is available to clients that authenticate with the
	// mobile key (most desktop and mobile SDKs).
	UsingMobileKey bool
	// UsingEnvironmentID indicates that the flag is available to clients that identify with the
	// environment ID (the JavaScript browser SDK).
	UsingEnvironmentID bool
	// Explicit is true if the flag data contained the newer clientSideAvailability schema,
	// rather than the older clientSide boolean.
	//
	// In the older schema, UsingEnvironmentID comes from clientSide and UsingMobileKey is
	// implicitly true. Serialization preserves whichever schema was read.
	Explicit bool
}

// GetKey returns the flag's Key. This is to satisfy interfaces in test helper packages that
// work with either flags or segments.
func (f *FeatureFlag) GetKey() string {
	return f.Key
}
