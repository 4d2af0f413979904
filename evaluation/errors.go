package evaluation

import (
	"fmt"
)

// Internal error types used to distinguish malformed flag data conditions. These are always
// translated into an EvalErrorMalformedFlag reason; the error message appears only in logs.

type badVariationError int

func (e badVariationError) Error() string {
	return fmt.Sprintf("rule, fallthrough, or target referenced a nonexistent variation index %d",
		int(e))
}

type emptyRolloutError struct{}

func (e emptyRolloutError) Error() string {
	return "rollout or experiment with no variations"
}

type circularPrereqReferenceError string

func (e circularPrereqReferenceError) Error() string {
	return fmt.Sprintf("prerequisite relationship to %q caused a circular reference;"+
		" this is probably a temporary condition due to an incomplete update", string(e))
}

type circularSegmentReferenceError string

func (e circularSegmentReferenceError) Error() string {
	return fmt.Sprintf("segment rule referencing segment %q caused a circular reference;"+
		" this is probably a temporary condition due to an incomplete update", string(e))
}

type emptyAttrRefError struct{}

func (e emptyAttrRefError) Error() string {
	return "rule clause did not specify an attribute"
}

type badAttrRefError string

func (e badAttrRefError) Error() string {
	return fmt.Sprintf("invalid attribute reference %q", string(e))
}
