package ldmodel

import (
	"fmt"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
)

type opTestParams struct {
	opName       Operator
	contextValue ldvalue.Value
	clauseValue  ldvalue.Value
	moreValues   []ldvalue.Value
	expected     bool
}

func (p opTestParams) description() string {
	return fmt.Sprintf("%v %s %v should be %t", p.contextValue, p.opName, p.clauseValue, p.expected)
}

var operatorTests = []opTestParams{ //nolint:gochecknoglobals
	// in
	{OperatorIn, ldvalue.String("x"), ldvalue.String("x"), nil, true},
	{OperatorIn, ldvalue.String("x"), ldvalue.String("xyz"), nil, false},
	{OperatorIn, ldvalue.String("x"), ldvalue.String("a"), []ldvalue.Value{ldvalue.String("x")}, true},
	{OperatorIn, ldvalue.Int(99), ldvalue.Int(99), nil, true},
	{OperatorIn, ldvalue.Int(99), ldvalue.Float64(99), nil, true},
	{OperatorIn, ldvalue.Bool(true), ldvalue.Bool(true), nil, true},
	{OperatorIn, ldvalue.String("99"), ldvalue.Int(99), nil, false},

	// string operators
	{OperatorStartsWith, ldvalue.String("xyz"), ldvalue.String("x"), nil, true},
	{OperatorStartsWith, ldvalue.String("x"), ldvalue.String("xyz"), nil, false},
	{OperatorStartsWith, ldvalue.Int(99), ldvalue.String("9"), nil, false},
	{OperatorEndsWith, ldvalue.String("xyz"), ldvalue.String("z"), nil, true},
	{OperatorEndsWith, ldvalue.String("z"), ldvalue.String("xyz"), nil, false},
	{OperatorContains, ldvalue.String("xyz"), ldvalue.String("y"), nil, true},
	{OperatorContains, ldvalue.String("y"), ldvalue.String("xyz"), nil, false},

	// regex
	{OperatorMatches, ldvalue.String("hello world"), ldvalue.String("hello.*rld"), nil, true},
	{OperatorMatches, ldvalue.String("hello world"), ldvalue.String("l+"), nil, true},
	{OperatorMatches, ldvalue.String("hello world"), ldvalue.String("(world|planet)"), nil, true},
	{OperatorMatches, ldvalue.String("hello world"), ldvalue.String("aloha"), nil, false},
	{OperatorMatches, ldvalue.String("hello world"), ldvalue.String("***bad regex"), nil, false},

	// numeric comparisons
	{OperatorLessThan, ldvalue.Int(1), ldvalue.Float64(1.99999), nil, true},
	{OperatorLessThan, ldvalue.Float64(1.99999), ldvalue.Int(1), nil, false},
	{OperatorLessThan, ldvalue.Int(1), ldvalue.Int(2), nil, true},
	{OperatorLessThanOrEqual, ldvalue.Int(1), ldvalue.Int(1), nil, true},
	{OperatorLessThanOrEqual, ldvalue.Int(2), ldvalue.Int(1), nil, false},
	{OperatorGreaterThan, ldvalue.Int(2), ldvalue.Float64(1.99999), nil, true},
	{OperatorGreaterThan, ldvalue.Float64(1.99999), ldvalue.Int(2), nil, false},
	{OperatorGreaterThanOrEqual, ldvalue.Int(1), ldvalue.Int(1), nil, true},
	{OperatorGreaterThanOrEqual, ldvalue.Int(1), ldvalue.Int(2), nil, false},
	{OperatorLessThan, ldvalue.String("1"), ldvalue.Int(2), nil, false},

	// date operators
	{OperatorBefore, ldvalue.String("1970-01-01T00:00:00Z"), ldvalue.String("1970-01-01T00:00:01Z"), nil, true},
	{OperatorBefore, ldvalue.String("1970-01-01T00:00:01Z"), ldvalue.String("1970-01-01T00:00:00Z"), nil, false},
	{OperatorBefore, ldvalue.Int(1000), ldvalue.Int(2000), nil, true},
	{OperatorBefore, ldvalue.Int(2000), ldvalue.Int(1000), nil, false},
	{OperatorBefore, ldvalue.String("1970-01-01T00:00:00Z"), ldvalue.String("1970-01-01T00:00:00Z"), nil, false},
	{OperatorBefore, ldvalue.String("not a date"), ldvalue.Int(1000), nil, false},
	{OperatorAfter, ldvalue.String("1970-01-01T00:00:01Z"), ldvalue.String("1970-01-01T00:00:00Z"), nil, true},
	{OperatorAfter, ldvalue.String("1970-01-01T00:00:00Z"), ldvalue.String("1970-01-01T00:00:01Z"), nil, false},
	{OperatorAfter, ldvalue.Int(2000), ldvalue.Int(1000), nil, true},
	{OperatorAfter, ldvalue.Int(1000), ldvalue.String("not a date"), nil, false},

	// semver operators; missing minor/patch components are treated as zero
	{OperatorSemVerEqual, ldvalue.String("2.0.0"), ldvalue.String("2.0.0"), nil, true},
	{OperatorSemVerEqual, ldvalue.String("2.0"), ldvalue.String("2.0.0"), nil, true},
	{OperatorSemVerEqual, ldvalue.String("2"), ldvalue.String("2.0.0"), nil, true},
	{OperatorSemVerEqual, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), nil, false},
	{OperatorSemVerLessThan, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), nil, true},
	{OperatorSemVerLessThan, ldvalue.String("2.0.1"), ldvalue.String("2.0.0"), nil, false},
	{OperatorSemVerLessThan, ldvalue.String("2.0.0-rc1"), ldvalue.String("2.0.0"), nil, true},
	{OperatorSemVerGreaterThan, ldvalue.String("2.0.1"), ldvalue.String("2.0.0"), nil, true},
	{OperatorSemVerGreaterThan, ldvalue.String("2.0.0"), ldvalue.String("2.0.1"), nil, false},
	{OperatorSemVerEqual, ldvalue.String("not a version"), ldvalue.String("2.0.0"), nil, false},
	{OperatorSemVerEqual, ldvalue.String("2.0.0"), ldvalue.String("not a version"), nil, false},
	{OperatorSemVerEqual, ldvalue.Int(2), ldvalue.String("2.0.0"), nil, false},

	// unsupported operators always fail
	{OperatorSegmentMatch, ldvalue.String("segmentkey"), ldvalue.String("segmentkey"), nil, false},
	{Operator("whatever"), ldvalue.String("x"), ldvalue.String("x"), nil, false},
}

func (p opTestParams) makeClause() Clause {
	return Clause{
		Op:     p.opName,
		Values: append([]ldvalue.Value{p.clauseValue}, p.moreValues...),
	}
}

func TestClauseOperators(t *testing.T) {
	for _, p := range operatorTests {
		t.Run(p.description(), func(t *testing.T) {
			c := p.makeClause()
			assert.Equal(t, p.expected, ClauseMatchesValue(&c, p.contextValue))
		})
	}
}

// The preprocessing step builds optimized lookup data for some operators; results must be
// identical either way.
func TestClauseOperatorsWithPreprocessing(t *testing.T) {
	for _, p := range operatorTests {
		t.Run(p.description(), func(t *testing.T) {
			c := p.makeClause()
			c.preprocessed = preprocessClause(c)
			assert.Equal(t, p.expected, ClauseMatchesValue(&c, p.contextValue))
		})
	}
}

func TestClauseNegation(t *testing.T) {
	c := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("x")}, Negate: true}
	assert.False(t, ClauseMatchesValue(&c, ldvalue.String("x")))
	assert.True(t, ClauseMatchesValue(&c, ldvalue.String("y")))
}

func TestClauseNullValueIsNeverAMatch(t *testing.T) {
	c := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.Null()}}
	assert.False(t, ClauseMatchesValue(&c, ldvalue.Null()))

	negated := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.Null()}, Negate: true}
	assert.False(t, ClauseMatchesValue(&negated, ldvalue.Null()))
}

func TestClauseMatchesAnyElementOfArrayValue(t *testing.T) {
	c := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("b")}}
	matching := ldvalue.ArrayOf(ldvalue.String("a"), ldvalue.String("b"))
	nonMatching := ldvalue.ArrayOf(ldvalue.String("c"), ldvalue.String("d"))
	assert.True(t, ClauseMatchesValue(&c, matching))
	assert.False(t, ClauseMatchesValue(&c, nonMatching))
}
