package ldmodel

import (
	"regexp"
	"strings"
	"time"

	"github.com/launchdarkly/go-semver"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ClauseMatchesValue tests a context attribute value against the clause's operator, values, and
// negation flag.
//
// The caller is responsible for looking up the attribute value from the appropriate context kind;
// if the attribute had no value, the clause is a non-match and this function should not be called.
// A null value here is always a non-match, regardless of c.Negate. If the value is a JSON array,
// the test is repeated for each element, and the clause matches if any element matches.
//
// This function cannot be used if the clause's operator is OperatorSegmentMatch, since that
// involves pulling data from outside of the clause. In that case it will simply return false.
//
// This part of the flag evaluation logic is defined in ldmodel and exported, rather than being
// internal to the evaluator, as a compromise to allow for optimizations that require storing
// precomputed data in the model object. Exporting this function is preferable to exporting those
// internal implementation details.
//
// The clause is passed by reference for efficiency only; the function will not modify it.
// Passing a nil value will cause a panic.
func ClauseMatchesValue(c *Clause, value ldvalue.Value) bool {
	if value.IsNull() {
		// a null attribute value is an automatic non-match, regardless of c.Negate
		return false
	}
	matchFn := operatorFn(c.Op)

	// If the context value is an array, see if the intersection is non-empty. If so, this clause matches
	if value.Type() == ldvalue.ArrayType {
		for i := 0; i < value.Count(); i++ {
			if matchAny(c.Op, matchFn, value.GetByIndex(i), c.Values, c.preprocessed) {
				return maybeNegate(c.Negate, true)
			}
		}
		return maybeNegate(c.Negate, false)
	}

	return maybeNegate(c.Negate, matchAny(c.Op, matchFn, value, c.Values, c.preprocessed))
}

func maybeNegate(negate, result bool) bool {
	if negate {
		return !result
	}
	return result
}

func matchAny(
	op Operator,
	fn opFn,
	value ldvalue.Value,
	values []ldvalue.Value,
	preprocessed clausePreprocessedData,
) bool {
	if op == OperatorIn && preprocessed.valuesMap != nil {
		if key := asPrimitiveValueKey(value); key.isValid() { // see preprocessClause
			return preprocessed.valuesMap[key]
		}
	}
	preValues := preprocessed.values
	for i, v := range values {
		var p clausePreprocessedValue
		if preValues != nil {
			p = preValues[i] // this slice is always the same length as values
		}
		if fn(value, v, p) {
			return true
		}
	}
	return false
}

type opFn (func(contextValue ldvalue.Value, clauseValue ldvalue.Value, preprocessed clausePreprocessedValue) bool)

var versionNumericComponentsRegex = regexp.MustCompile(`^\d+(\.\d+)?(\.\d+)?`) //nolint:gochecknoglobals

var allOps = map[Operator]opFn{ //nolint:gochecknoglobals
	OperatorIn:                 operatorInFn,
	OperatorEndsWith:           operatorEndsWithFn,
	OperatorStartsWith:         operatorStartsWithFn,
	OperatorMatches:            operatorMatchesFn,
	OperatorContains:           operatorContainsFn,
	OperatorLessThan:           operatorLessThanFn,
	OperatorLessThanOrEqual:    operatorLessThanOrEqualFn,
	OperatorGreaterThan:        operatorGreaterThanFn,
	OperatorGreaterThanOrEqual: operatorGreaterThanOrEqualFn,
	OperatorBefore:             operatorBeforeFn,
	OperatorAfter:              operatorAfterFn,
	OperatorSemVerEqual:        operatorSemVerEqualFn,
	OperatorSemVerLessThan:     operatorSemVerLessThanFn,
	OperatorSemVerGreaterThan:  operatorSemVerGreaterThanFn,
}

func operatorFn(operator Operator) opFn {
	if op, ok := allOps[operator]; ok {
		return op
	}
	return operatorNoneFn
}

func operatorInFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return ctxValue.Equal(clValue)
}

func stringOperator(ctxValue, clValue ldvalue.Value, fn func(string, string) bool) bool {
	if ctxValue.Type() == ldvalue.StringType && clValue.Type() == ldvalue.StringType {
		return fn(ctxValue.StringValue(), clValue.StringValue())
	}
	return false
}

func operatorStartsWithFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return stringOperator(ctxValue, clValue, strings.HasPrefix)
}

func operatorEndsWithFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return stringOperator(ctxValue, clValue, strings.HasSuffix)
}

func operatorMatchesFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	if preprocessed.computed {
		// we have already tried to compile the clause value as a regex
		if ctxValue.Type() != ldvalue.StringType || !preprocessed.valid {
			return false
		}
		return preprocessed.parsedRegexp.MatchString(ctxValue.StringValue())
	}
	// the clause did not get preprocessed, so we'll evaluate from scratch
	return stringOperator(ctxValue, clValue, func(ctx string, cl string) bool {
		if matched, err := regexp.MatchString(cl, ctx); err == nil {
			return matched
		}
		return false
	})
}

func operatorContainsFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return stringOperator(ctxValue, clValue, strings.Contains)
}

func numericOperator(ctxValue, clValue ldvalue.Value, fn func(float64, float64) bool) bool {
	if ctxValue.IsNumber() && clValue.IsNumber() {
		return fn(ctxValue.Float64Value(), clValue.Float64Value())
	}
	return false
}

func operatorLessThanFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return numericOperator(ctxValue, clValue, func(a float64, b float64) bool { return a < b })
}

func operatorLessThanOrEqualFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return numericOperator(ctxValue, clValue, func(a float64, b float64) bool { return a <= b })
}

func operatorGreaterThanFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return numericOperator(ctxValue, clValue, func(a float64, b float64) bool { return a > b })
}

func operatorGreaterThanOrEqualFn(
	ctxValue, clValue ldvalue.Value,
	preprocessed clausePreprocessedValue,
) bool {
	return numericOperator(ctxValue, clValue, func(a float64, b float64) bool { return a >= b })
}

func dateOperator(
	ctxValue, clValue ldvalue.Value,
	preprocessed clausePreprocessedValue,
	fn func(time.Time, time.Time) bool,
) bool {
	if preprocessed.computed {
		// we have already tried to parse the clause value as a date/time
		if preprocessed.valid {
			if ctxTime, ok := parseDateTime(ctxValue); ok {
				return fn(ctxTime, preprocessed.parsedTime)
			}
		}
		return false
	}
	// the clause did not get preprocessed, so we'll evaluate from scratch
	if ctxTime, ok := parseDateTime(ctxValue); ok {
		if clTime, ok := parseDateTime(clValue); ok {
			return fn(ctxTime, clTime)
		}
	}
	return false
}

func operatorBeforeFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return dateOperator(ctxValue, clValue, preprocessed, time.Time.Before)
}

func operatorAfterFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return dateOperator(ctxValue, clValue, preprocessed, time.Time.After)
}

func semVerOperator(
	ctxValue, clValue ldvalue.Value,
	preprocessed clausePreprocessedValue,
	fn func(semver.Version, semver.Version) bool,
) bool {
	if preprocessed.computed {
		// we have already tried to parse the clause value as a version
		if preprocessed.valid {
			if ctxVer, ok := parseSemVer(ctxValue); ok {
				return fn(ctxVer, preprocessed.parsedSemver)
			}
		}
		return false
	}
	// the clause did not get preprocessed, so we'll evaluate from scratch
	if ctxVer, ok := parseSemVer(ctxValue); ok {
		if clVer, ok := parseSemVer(clValue); ok {
			return fn(ctxVer, clVer)
		}
	}
	return false
}

func operatorSemVerEqualFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return semVerOperator(ctxValue, clValue, preprocessed, func(a, b semver.Version) bool {
		return a.ComparePrecedence(b) == 0
	})
}

func operatorSemVerLessThanFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return semVerOperator(ctxValue, clValue, preprocessed, func(a, b semver.Version) bool {
		return a.ComparePrecedence(b) < 0
	})
}

func operatorSemVerGreaterThanFn(
	ctxValue, clValue ldvalue.Value,
	preprocessed clausePreprocessedValue,
) bool {
	return semVerOperator(ctxValue, clValue, preprocessed, func(a, b semver.Version) bool {
		return a.ComparePrecedence(b) > 0
	})
}

func operatorNoneFn(ctxValue, clValue ldvalue.Value, preprocessed clausePreprocessedValue) bool {
	return false
}
