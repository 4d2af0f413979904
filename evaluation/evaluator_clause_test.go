package evaluation

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldbuilders"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"

	"github.com/stretchr/testify/assert"
)

// makeClauseFlag returns a flag where variation 2 (onValue) is returned if the clause
// matches, and variation 0 (fallthroughValue) otherwise.
func makeClauseFlag(clause ldmodel.Clause) ldmodel.FeatureFlag {
	return threeVariationFlag("feature").
		AddRule(ldbuilders.NewRuleBuilder().ID("rule-id").Variation(onVariationIndex).Clauses(clause)).
		Build()
}

func assertClauseMatch(t *testing.T, expectedMatch bool, clause ldmodel.Clause, context ldcontext.Context) {
	t.Helper()
	f := makeClauseFlag(clause)
	result := NewEvaluator(basicDataProvider()).Evaluate(&f, context, nil)
	if expectedMatch {
		assert.Equal(t, ldvalue.NewOptionalInt(onVariationIndex), result.Detail.VariationIndex,
			"clause %+v should have matched %s", clause, context)
	} else {
		assert.Equal(t, ldvalue.NewOptionalInt(fallthroughVariationIndex), result.Detail.VariationIndex,
			"clause %+v should not have matched %s", clause, context)
	}
}

func TestClauseCanMatchBuiltInAttribute(t *testing.T) {
	clause := ldbuilders.Clause("name", ldmodel.OperatorIn, ldvalue.String("Bob"))
	context := ldcontext.NewBuilder("key").Name("Bob").Build()
	assertClauseMatch(t, true, clause, context)
}

func TestClauseCanMatchCustomAttribute(t *testing.T) {
	clause := ldbuilders.Clause("legs", ldmodel.OperatorIn, ldvalue.Int(4))
	context := ldcontext.NewBuilder("key").SetInt("legs", 4).Build()
	assertClauseMatch(t, true, clause, context)
}

func TestClauseReturnsFalseForMissingAttribute(t *testing.T) {
	clause := ldbuilders.Clause("legs", ldmodel.OperatorIn, ldvalue.Int(4))
	context := ldcontext.NewBuilder("key").Name("Bob").Build()
	assertClauseMatch(t, false, clause, context)
}

func TestClauseMatchesIfAnyClauseValueMatches(t *testing.T) {
	clause := ldbuilders.Clause("name", ldmodel.OperatorIn,
		ldvalue.String("Bob"), ldvalue.String("Carol"))
	context := ldcontext.NewBuilder("key").Name("Carol").Build()
	assertClauseMatch(t, true, clause, context)
}

func TestClauseCanBeNegated(t *testing.T) {
	clause := ldbuilders.Negate(ldbuilders.Clause("name", ldmodel.OperatorIn, ldvalue.String("Bob")))
	context := ldcontext.NewBuilder("key").Name("Bob").Build()
	assertClauseMatch(t, false, clause, context)
}

func TestNegatedClauseDoesNotMatchIfAttributeIsMissing(t *testing.T) {
	// A missing attribute is an automatic non-match even when the clause is negated.
	clause := ldbuilders.Negate(ldbuilders.Clause("legs", ldmodel.OperatorIn, ldvalue.Int(4)))
	context := ldcontext.NewBuilder("key").Name("Bob").Build()
	assertClauseMatch(t, false, clause, context)
}

func TestClauseWithUnknownOperatorDoesNotMatch(t *testing.T) {
	clause := ldbuilders.Clause("name", "doesSomethingUnsupported", ldvalue.String("Bob"))
	context := ldcontext.NewBuilder("key").Name("Bob").Build()
	assertClauseMatch(t, false, clause, context)
}

func TestClauseWithSpecificContextKind(t *testing.T) {
	clause := ldbuilders.ClauseWithKind("company", "name", ldmodel.OperatorIn, ldvalue.String("Catco"))
	orgContext := ldcontext.NewWithKind("company", "orgkey1")
	matchingOrgContext := ldcontext.NewBuilderFromContext(orgContext).Name("Catco").Build()

	assertClauseMatch(t, true, clause, matchingOrgContext)

	// The same attribute value on a context of a different kind does not match.
	userContext := ldcontext.NewBuilder("userkey").Name("Catco").Build()
	assertClauseMatch(t, false, clause, userContext)

	// In a multi-kind context, the clause is matched against the individual context of the
	// clause's kind.
	multiContext := ldcontext.NewMulti(matchingOrgContext, userContext)
	assertClauseMatch(t, true, clause, multiContext)
}

func TestClauseOnKindAttributeMatchesAnyKindInContext(t *testing.T) {
	clause := ldbuilders.Clause(ldattr.KindAttr, ldmodel.OperatorIn, ldvalue.String("company"))

	assertClauseMatch(t, true, clause, ldcontext.NewWithKind("company", "orgkey"))
	assertClauseMatch(t, false, clause, ldcontext.New("userkey"))
	assertClauseMatch(t, true, clause, ldcontext.NewMulti(
		ldcontext.New("userkey"), ldcontext.NewWithKind("company", "orgkey")))
}

func TestNegatedClauseOnKindAttributeAppliesToOverallResult(t *testing.T) {
	clause := ldbuilders.Negate(
		ldbuilders.Clause(ldattr.KindAttr, ldmodel.OperatorIn, ldvalue.String("company")))

	// The negation applies to "does any kind match", not per kind, so a multi-kind context
	// that includes the named kind is a non-match.
	assertClauseMatch(t, false, clause, ldcontext.NewMulti(
		ldcontext.New("userkey"), ldcontext.NewWithKind("company", "orgkey")))
	assertClauseMatch(t, true, clause, ldcontext.New("userkey"))
}

func TestClauseWithEmptyAttributeIsMalformedFlagError(t *testing.T) {
	f := makeClauseFlag(ldmodel.Clause{Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("x")}})
	result := NewEvaluator(basicDataProvider()).Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, result.Detail.Reason.GetErrorKind())
}

func TestClauseWithInvalidAttributeRefIsMalformedFlagError(t *testing.T) {
	clause := ldbuilders.ClauseRef(ldattr.NewRef("///"), ldmodel.OperatorIn, ldvalue.String("x"))
	f := makeClauseFlag(clause)
	result := NewEvaluator(basicDataProvider()).Evaluate(&f, flagTestContext, nil)
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, result.Detail.Reason.GetErrorKind())
}

func TestClauseMatchesNumericComparisons(t *testing.T) {
	context := ldcontext.NewBuilder("key").SetInt("count", 10).Build()

	assertClauseMatch(t, true,
		ldbuilders.Clause("count", ldmodel.OperatorLessThan, ldvalue.Int(11)), context)
	assertClauseMatch(t, false,
		ldbuilders.Clause("count", ldmodel.OperatorLessThan, ldvalue.Int(10)), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("count", ldmodel.OperatorLessThanOrEqual, ldvalue.Int(10)), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("count", ldmodel.OperatorGreaterThan, ldvalue.Int(9)), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("count", ldmodel.OperatorGreaterThanOrEqual, ldvalue.Int(10)), context)
}

func TestClauseMatchesStringOperators(t *testing.T) {
	context := ldcontext.NewBuilder("key").Name("Catsby").Build()

	assertClauseMatch(t, true,
		ldbuilders.Clause("name", ldmodel.OperatorStartsWith, ldvalue.String("Cat")), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("name", ldmodel.OperatorEndsWith, ldvalue.String("sby")), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("name", ldmodel.OperatorContains, ldvalue.String("tsb")), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("name", ldmodel.OperatorMatches, ldvalue.String("Cat+sby")), context)
	assertClauseMatch(t, false,
		ldbuilders.Clause("name", ldmodel.OperatorStartsWith, ldvalue.String("sby")), context)
}

func TestClauseMatchesSemVerOperators(t *testing.T) {
	context := ldcontext.NewBuilder("key").SetString("version", "2.0.1").Build()

	assertClauseMatch(t, true,
		ldbuilders.Clause("version", ldmodel.OperatorSemVerEqual, ldvalue.String("2.0.1")), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("version", ldmodel.OperatorSemVerGreaterThan, ldvalue.String("2.0.0")), context)
	assertClauseMatch(t, true,
		ldbuilders.Clause("version", ldmodel.OperatorSemVerLessThan, ldvalue.String("2.0.2")), context)
	assertClauseMatch(t, false,
		ldbuilders.Clause("version", ldmodel.OperatorSemVerEqual, ldvalue.String("not-a-version")), context)
}
