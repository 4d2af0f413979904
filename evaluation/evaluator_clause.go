package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
)

func (es *evaluationScope) clauseMatchesContext(
	clause *ldmodel.Clause,
	stack evaluationStack,
) (bool, error) {
	// Note that clause is passed by reference only for efficiency; we do not modify it.

	// In the case of a segment match operator, we check if the context is in any of the
	// segments, and possibly negate
	if clause.Op == ldmodel.OperatorSegmentMatch {
		match, err := es.anySegmentMatch(clause.Values, stack)
		if err != nil {
			return false, err
		}
		return maybeNegate(clause.Negate, match), nil
	}

	if !clause.Attribute.IsDefined() {
		return false, emptyAttrRefError{}
	}
	if clause.Attribute.Err() != nil {
		return false, badAttrRefError(clause.Attribute.String())
	}

	if clause.Attribute.String() == ldattr.KindAttr {
		// A clause on the "kind" attribute is matched against every kind in the context,
		// rather than being scoped to a single kind like other clauses.
		return maybeNegate(clause.Negate, es.clauseMatchByKind(clause)), nil
	}

	kind := clause.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	individualContext := es.context.IndividualContextByKind(kind)
	if !individualContext.IsDefined() {
		return false, nil
	}

	uValue := individualContext.GetValueForRef(clause.Attribute)
	if uValue.IsNull() {
		// if the attribute is null/missing, it's an automatic non-match - regardless of
		// clause.Negate
		return false, nil
	}

	// ClauseMatchesValue applies the operator, the OR logic across clause values, and the
	// Negate property.
	return ldmodel.ClauseMatchesValue(clause, uValue), nil
}

func (es *evaluationScope) anySegmentMatch(
	values []ldvalue.Value,
	stack evaluationStack,
) (bool, error) {
	for _, value := range values {
		if value.Type() == ldvalue.StringType {
			if segment := es.owner.dataProvider.GetSegment(value.StringValue()); segment != nil {
				match, err := es.segmentContainsContext(segment, stack)
				if err != nil {
					return false, err
				}
				if match {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (es *evaluationScope) clauseMatchByKind(clause *ldmodel.Clause) bool {
	// ClauseMatchesValue applies the Negate property, which we do not want here since the
	// negation must apply to the overall result across all kinds, so we test a copy of the
	// clause with Negate turned off.
	c := *clause
	c.Negate = false
	for i := 0; i < es.context.IndividualContextCount(); i++ {
		if individualContext := es.context.IndividualContextByIndex(i); individualContext.IsDefined() {
			uValue := ldvalue.String(string(individualContext.Kind()))
			if ldmodel.ClauseMatchesValue(&c, uValue) {
				return true
			}
		}
	}
	return false
}

func maybeNegate(negate, result bool) bool {
	if negate {
		return !result
	}
	return result
}
