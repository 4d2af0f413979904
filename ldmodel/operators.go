package ldmodel

// Operator describes an operator for a clause.
type Operator string

// List of available operators.
const (
	// OperatorIn matches a context attribute that is equal to any clause value, using JSON
	// equality semantics.
	OperatorIn Operator = "in"
	// OperatorEndsWith matches a string attribute that ends with any clause value.
	OperatorEndsWith Operator = "endsWith"
	// OperatorStartsWith matches a string attribute that starts with any clause value.
	OperatorStartsWith Operator = "startsWith"
	// OperatorMatches matches a string attribute against any clause value interpreted as a
	// regular expression.
	OperatorMatches Operator = "matches"
	// OperatorContains matches a string attribute that contains any clause value as a substring.
	OperatorContains Operator = "contains"
	// OperatorLessThan matches a numeric attribute that is less than any clause value.
	OperatorLessThan Operator = "lessThan"
	// OperatorLessThanOrEqual matches a numeric attribute that is less than or equal to any
	// clause value.
	OperatorLessThanOrEqual Operator = "lessThanOrEqual"
	// OperatorGreaterThan matches a numeric attribute that is greater than any clause value.
	OperatorGreaterThan Operator = "greaterThan"
	// OperatorGreaterThanOrEqual matches a numeric attribute that is greater than or equal to
	// any clause value.
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	// OperatorBefore matches an attribute that is a timestamp earlier than the clause value.
	// Timestamps may be RFC3339/ISO8601 strings or Unix epoch milliseconds.
	OperatorBefore Operator = "before"
	// OperatorAfter matches an attribute that is a timestamp later than the clause value.
	OperatorAfter Operator = "after"
	// OperatorSegmentMatch matches a context that is part of the segment whose key is the
	// clause value. This operator is resolved by the evaluator, not by the functions in this
	// package, since it requires data beyond the clause itself.
	OperatorSegmentMatch Operator = "segmentMatch"
	// OperatorSemVerEqual matches an attribute that is a semantic version equal in precedence
	// to the clause value. Missing minor or patch components are treated as zero.
	OperatorSemVerEqual Operator = "semVerEqual"
	// OperatorSemVerLessThan matches an attribute that is a semantic version with lower
	// precedence than the clause value.
	OperatorSemVerLessThan Operator = "semVerLessThan"
	// OperatorSemVerGreaterThan matches an attribute that is a semantic version with higher
	// precedence than the clause value.
	OperatorSemVerGreaterThan Operator = "semVerGreaterThan"
)

// Name returns the string value of the operator.
func (op Operator) Name() string {
	return string(op)
}
