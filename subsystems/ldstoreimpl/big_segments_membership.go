package ldstoreimpl

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// NewBigSegmentMembershipFromSegmentRefs creates a BigSegmentMembership based on the
// specified lists of included and excluded segment references. This method is intended to be
// used by Big Segment store implementations; application code does not need to use it.
//
// As described in subsystems.BigSegmentMembership, a segmentRef is not the same as the key
// of a segment; it includes the key but also versioning information that the store
// implementation does not need to be concerned with.
//
// The returned object's CheckMembership method will return ldvalue.NewOptionalBool(true) for
// any segmentRef that is in the included list, ldvalue.NewOptionalBool(false) for any
// segmentRef that is in the excluded list and not also in the included list (that is,
// inclusions override exclusions), and ldvalue.OptionalBool{} (undefined) for all others.
//
// The exact implementation type of the returned object may vary, to provide the most
// efficient representation of the data.
func NewBigSegmentMembershipFromSegmentRefs(
	includedSegmentRefs []string,
	excludedSegmentRefs []string,
) subsystems.BigSegmentMembership {
	if len(includedSegmentRefs) == 0 && len(excludedSegmentRefs) == 0 {
		return bigSegmentMembershipMapImpl(nil)
	}
	if len(includedSegmentRefs) == 1 && len(excludedSegmentRefs) == 0 {
		return bigSegmentMembershipSingleInclude(includedSegmentRefs[0])
	}
	if len(includedSegmentRefs) == 0 && len(excludedSegmentRefs) == 1 {
		return bigSegmentMembershipSingleExclude(excludedSegmentRefs[0])
	}
	ret := make(bigSegmentMembershipMapImpl, len(includedSegmentRefs)+len(excludedSegmentRefs))
	for _, exc := range excludedSegmentRefs {
		ret[exc] = false
	}
	for _, inc := range includedSegmentRefs {
		ret[inc] = true
	}
	return ret
}

type bigSegmentMembershipMapImpl map[string]bool

type bigSegmentMembershipSingleInclude string

type bigSegmentMembershipSingleExclude string

func (m bigSegmentMembershipMapImpl) CheckMembership(segmentRef string) ldvalue.OptionalBool {
	if value, found := m[segmentRef]; found {
		return ldvalue.NewOptionalBool(value)
	}
	return ldvalue.OptionalBool{}
}

func (m bigSegmentMembershipSingleInclude) CheckMembership(segmentRef string) ldvalue.OptionalBool {
	if segmentRef == string(m) {
		return ldvalue.NewOptionalBool(true)
	}
	return ldvalue.OptionalBool{}
}

func (m bigSegmentMembershipSingleExclude) CheckMembership(segmentRef string) ldvalue.OptionalBool {
	if segmentRef == string(m) {
		return ldvalue.NewOptionalBool(false)
	}
	return ldvalue.OptionalBool{}
}
