package ldmodel

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Segment describes a context segment that can be referenced by flag rules with the segmentMatch
// operator.
//
// The fields of this struct are exported for use by LaunchDarkly internal components. Application
// code should normally not reference Segment fields directly; segment data normally comes from
// LaunchDarkly SDK endpoints in JSON form and is deserialized with UnmarshalSegment.
type Segment struct {
	// Key is the unique key of the segment.
	Key string
	// Included is the list of context keys of the default kind (user) that are always considered
	// part of the segment, overriding Excluded and Rules.
	Included []string
	// Excluded is the list of context keys of the default kind (user) that are never part of the
	// segment, overriding Rules (but not Included).
	Excluded []string
	// IncludedContexts contains inclusion lists for specific context kinds.
	IncludedContexts []SegmentTarget
	// ExcludedContexts contains exclusion lists for specific context kinds.
	ExcludedContexts []SegmentTarget
	// Salt is a randomized value assigned to the segment when it is created, mixed into the hash
	// for segment rules that use percentage rollouts.
	Salt string
	// Rules is the list of rules that may match a context that was not matched by any inclusion
	// or exclusion list.
	Rules []SegmentRule
	// Unbounded, if true, means this is a big segment: its membership list is too large to be
	// delivered in streaming data, so membership is queried from a separate store. The Included,
	// Excluded, and target lists are not used for big segments.
	Unbounded bool
	// UnboundedContextKind is the context kind associated with membership in a big segment. An
	// empty value is treated as ldcontext.DefaultKind.
	UnboundedContextKind ldcontext.Kind
	// Generation is which generation of this big segment's data to query. It is incremented when
	// the segment's membership is re-synchronized; queries combine the segment key with the
	// generation. A big segment with an undefined Generation cannot be queried and yields a
	// NOT_CONFIGURED status.
	Generation ldvalue.OptionalInt
	// Version is an integer that is incremented by LaunchDarkly every time the configuration of
	// the segment is changed.
	Version int
	// Deleted is true if this is a tombstone for a deleted segment.
	Deleted bool
	// preprocessed is created by PreprocessSegment to speed up matching.
	preprocessed segmentPreprocessedData
}

// SegmentTarget describes a set of context keys of a specific kind that are included or excluded
// from a segment.
type SegmentTarget struct {
	// ContextKind is the context kind that this target list applies to.
	//
	// An empty string here means the property was unset, which is treated as
	// ldcontext.DefaultKind and omitted in serialization.
	ContextKind ldcontext.Kind
	// Values is the set of context keys.
	Values []string
	// preprocessed is created by PreprocessSegment to speed up matching.
	preprocessed targetPreprocessedData
}

// SegmentRule describes a single rule within a segment.
type SegmentRule struct {
	// ID is a randomized identifier assigned to each rule when it is created.
	ID string
	// Clauses is the list of test conditions making up the rule. These are ANDed: every Clause
	// must match for the SegmentRule to match.
	Clauses []Clause
	// Weight, if defined, specifies a percentage rollout in which only a subset of contexts
	// matching the clauses are included in the segment. It is a proportion from 0 to 100000.
	Weight ldvalue.OptionalInt
	// BucketBy specifies which context attribute distinguishes between contexts in the rollout
	// implied by Weight. The default, when BucketBy is an empty ldattr.Ref{}, is the context's
	// key.
	BucketBy ldattr.Ref
	// RolloutContextKind is the context kind whose attributes the Weight rollout uses. An empty
	// value is treated as ldcontext.DefaultKind.
	RolloutContextKind ldcontext.Kind
}

// SegmentRef returns the string that big segment stores use to identify membership in this
// segment: the segment key plus the generation. It is only meaningful if s.Unbounded is true and
// s.Generation is defined.
func SegmentRef(s *Segment) string {
	return fmt.Sprintf("%s.g%d", s.Key, s.Generation.OrElse(0))
}

// GetKey returns the segment's Key. This is to satisfy interfaces in test helper packages that
// work with either flags or segments.
func (s *Segment) GetKey() string {
	return s.Key
}
