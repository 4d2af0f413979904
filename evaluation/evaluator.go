package evaluation

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
)

// The initial size of the chains we use for detecting circular prerequisite or segment
// references. In the great majority of cases these will never grow beyond this size, so we
// avoid reallocations during an evaluation.
const initialStackCapacity = 20

type evaluator struct {
	dataProvider       DataProvider
	bigSegmentProvider BigSegmentProvider
	errorLogger        ldlog.BaseLogger
}

// EvaluatorOption is an optional parameter for NewEvaluatorWithOptions.
type EvaluatorOption interface {
	apply(e *evaluator)
}

type evaluatorOptionBigSegmentProvider struct{ provider BigSegmentProvider }

// EvaluatorOptionBigSegmentProvider is an option for NewEvaluatorWithOptions that specifies a
// BigSegmentProvider for evaluating Big Segment membership. If this is nil, any flag
// evaluation that references a Big Segment will behave as if no Big Segment store is
// configured.
func EvaluatorOptionBigSegmentProvider(provider BigSegmentProvider) EvaluatorOption {
	return evaluatorOptionBigSegmentProvider{provider: provider}
}

func (o evaluatorOptionBigSegmentProvider) apply(e *evaluator) {
	e.bigSegmentProvider = o.provider
}

type evaluatorOptionErrorLogger struct{ errorLogger ldlog.BaseLogger }

// EvaluatorOptionErrorLogger is an option for NewEvaluatorWithOptions that specifies a logger
// for error reporting. The Evaluator will only log errors for conditions that should not be
// possible and require investigation, such as a malformed flag or a code path that should not
// have been reached. If this is nil, no logging is done.
func EvaluatorOptionErrorLogger(errorLogger ldlog.BaseLogger) EvaluatorOption {
	return evaluatorOptionErrorLogger{errorLogger: errorLogger}
}

func (o evaluatorOptionErrorLogger) apply(e *evaluator) {
	e.errorLogger = o.errorLogger
}

// NewEvaluator creates an Evaluator, specifying a DataProvider that it will use if it needs
// to query additional feature flags or context segments during an evaluation.
//
// To support Big Segments, you must use NewEvaluatorWithOptions and specify
// EvaluatorOptionBigSegmentProvider.
func NewEvaluator(dataProvider DataProvider) Evaluator {
	return NewEvaluatorWithOptions(dataProvider)
}

// NewEvaluatorWithOptions creates an Evaluator, specifying a DataProvider that it will use if
// it needs to query additional feature flags or context segments during an evaluation, and
// also any number of EvaluatorOption modifiers.
func NewEvaluatorWithOptions(dataProvider DataProvider, options ...EvaluatorOption) Evaluator {
	e := &evaluator{dataProvider: dataProvider}
	for _, o := range options {
		if o != nil {
			o.apply(e)
		}
	}
	return e
}

// Used internally to hold the parameters of an evaluation, to avoid repetitive parameter
// passing. Its methods use a pointer receiver for efficiency, even though it is allocated on
// the stack.
type evaluationScope struct {
	owner                         *evaluator
	flag                          *ldmodel.FeatureFlag
	context                       ldcontext.Context
	prerequisiteFlagEventRecorder PrerequisiteFlagEventRecorder
	bigSegmentsStatus             ldreason.BigSegmentsStatus
	bigSegmentsMemberships        map[string]BigSegmentMembership
}

// A mutable structure that holds the state of circular-reference detection during an
// evaluation. It is passed by value so that each nested evaluation or segment reference sees
// only the chain that is on the stack above it; appending to a chain within a nested call
// does not affect the caller's state.
type evaluationStack struct {
	prerequisiteFlagChain []string
	segmentChain          []string
}

func newEvaluationStack() evaluationStack {
	return evaluationStack{
		prerequisiteFlagChain: make([]string, 0, initialStackCapacity),
		segmentChain:          make([]string, 0, initialStackCapacity),
	}
}

// Implementation of the Evaluator interface.
func (e *evaluator) Evaluate(
	flag *ldmodel.FeatureFlag,
	context ldcontext.Context,
	prerequisiteFlagEventRecorder PrerequisiteFlagEventRecorder,
) Result {
	if err := context.Err(); err != nil {
		return Result{Detail: ldreason.NewEvaluationDetailForError(
			ldreason.EvalErrorUserNotSpecified, ldvalue.Null())}
	}

	es := evaluationScope{
		owner:                         e,
		flag:                          flag,
		context:                       context,
		prerequisiteFlagEventRecorder: prerequisiteFlagEventRecorder,
	}

	detail, err := es.evaluate(newEvaluationStack())
	if err != nil {
		// An error value from the internal evaluate method means the flag data was somehow
		// invalid. The result is always an error reason of MALFORMED_FLAG; the error message
		// is logged but does not appear in the reason.
		if e.errorLogger != nil {
			e.errorLogger.Printf("Invalid flag configuration detected in flag %q: %s",
				flag.Key, err)
		}
		detail = ldreason.NewEvaluationDetailForError(ldreason.EvalErrorMalformedFlag,
			ldvalue.Null())
	}
	if es.bigSegmentsStatus != "" {
		detail.Reason = ldreason.NewEvalReasonFromReasonWithBigSegmentsStatus(detail.Reason,
			es.bigSegmentsStatus)
	}
	return Result{Detail: detail, IsExperiment: isExperiment(flag, detail.Reason)}
}

// isExperiment reports whether a result requires full event data regardless of the flag's
// overall event tracking setting. That is the case if the reason itself indicates an
// experiment, and also, in the older data model, for a fallthrough result when the flag has
// trackEventsFallthrough or a rule match on a rule that has trackEvents.
func isExperiment(flag *ldmodel.FeatureFlag, reason ldreason.EvaluationReason) bool {
	if reason.IsInExperiment() {
		return true
	}
	switch reason.GetKind() {
	case ldreason.EvalReasonFallthrough:
		return flag.TrackEventsFallthrough
	case ldreason.EvalReasonRuleMatch:
		if i := reason.GetRuleIndex(); i >= 0 && i < len(flag.Rules) {
			return flag.Rules[i].TrackEvents
		}
	}
	return false
}

// Entry point of the internal evaluation flow. A non-nil error return means the flag data was
// invalid (or contained a circular reference); the caller translates that into a
// MALFORMED_FLAG error reason.
func (es *evaluationScope) evaluate(stack evaluationStack) (ldreason.EvaluationDetail, error) {
	if !es.flag.On {
		return es.getOffValue(ldreason.NewEvalReasonOff())
	}

	// Note that all of our internal methods operate on pointers (*FeatureFlag, *Clause,
	// etc.); this is done to avoid the overhead of repeatedly copying these structs by
	// value. We know that the pointers cannot be nil, since the entry point is always
	// Evaluate which does receive its parameters by value; mutability is not a concern,
	// since Context is immutable and the evaluation code will never modify anything in the
	// data model.

	prereqErrorReason, failed, err := es.checkPrerequisites(stack)
	if err != nil {
		return ldreason.EvaluationDetail{}, err
	}
	if failed {
		return es.getOffValue(prereqErrorReason)
	}

	// Check to see if any context targets match
	if variation, found := es.anyTargetMatchVariation(); found {
		return es.getVariation(variation, ldreason.NewEvalReasonTargetMatch())
	}

	// Now walk through the rules to see if any match
	for ruleIndex := range es.flag.Rules {
		rule := &es.flag.Rules[ruleIndex]
		match, err := es.ruleMatchesContext(rule, stack)
		if err != nil {
			return ldreason.EvaluationDetail{}, err
		}
		if match {
			reason := ldreason.NewEvalReasonRuleMatch(ruleIndex, rule.ID)
			return es.getValueForVariationOrRollout(rule.VariationOrRollout, reason)
		}
	}

	return es.getValueForVariationOrRollout(es.flag.Fallthrough,
		ldreason.NewEvalReasonFallthrough())
}

// Checks the prerequisites of the current flag, recursively evaluating each prerequisite
// flag. The second return value is true if a prerequisite failed, in which case the first
// return value is the appropriate PrerequisiteFailed reason.
func (es *evaluationScope) checkPrerequisites(
	stack evaluationStack,
) (ldreason.EvaluationReason, bool, error) {
	if len(es.flag.Prerequisites) == 0 {
		return ldreason.EvaluationReason{}, false, nil
	}

	stack.prerequisiteFlagChain = append(stack.prerequisiteFlagChain, es.flag.Key)

	for _, prereq := range es.flag.Prerequisites {
		for _, p := range stack.prerequisiteFlagChain {
			if p == prereq.Key {
				return ldreason.EvaluationReason{}, false,
					circularPrereqReferenceError(prereq.Key)
			}
		}
		prereqFeatureFlag := es.owner.dataProvider.GetFeatureFlag(prereq.Key)
		if prereqFeatureFlag == nil {
			return ldreason.NewEvalReasonPrerequisiteFailed(prereq.Key), true, nil
		}

		// To evaluate the prerequisite, we temporarily change the flag in our scope and then
		// restore it, rather than creating a new scope, so that the same Big Segments state
		// is shared by the whole evaluation.
		savedFlag := es.flag
		es.flag = prereqFeatureFlag
		prereqResultDetail, err := es.evaluate(stack)
		es.flag = savedFlag
		if err != nil {
			return ldreason.EvaluationReason{}, false, err
		}

		prereqOK := prereqFeatureFlag.On &&
			prereqResultDetail.VariationIndex.OrElse(-1) == prereq.Variation
		// Note that if the prerequisite flag is off, we don't consider it a match no matter
		// what its off variation was. But we still evaluated it in order to generate an
		// event.
		if es.prerequisiteFlagEventRecorder != nil {
			event := PrerequisiteFlagEvent{
				TargetFlagKey:    es.flag.Key,
				Context:          es.context,
				PrerequisiteFlag: prereqFeatureFlag,
				PrerequisiteResult: Result{
					Detail:       prereqResultDetail,
					IsExperiment: isExperiment(prereqFeatureFlag, prereqResultDetail.Reason),
				},
			}
			es.prerequisiteFlagEventRecorder(event)
		}

		if !prereqOK {
			return ldreason.NewEvalReasonPrerequisiteFailed(prereq.Key), true, nil
		}
	}
	return ldreason.EvaluationReason{}, false, nil
}

func (es *evaluationScope) getVariation(
	index int,
	reason ldreason.EvaluationReason,
) (ldreason.EvaluationDetail, error) {
	if index < 0 || index >= len(es.flag.Variations) {
		return ldreason.EvaluationDetail{}, badVariationError(index)
	}
	return ldreason.NewEvaluationDetail(es.flag.Variations[index], index, reason), nil
}

func (es *evaluationScope) getOffValue(
	reason ldreason.EvaluationReason,
) (ldreason.EvaluationDetail, error) {
	if !es.flag.OffVariation.IsDefined() {
		return ldreason.EvaluationDetail{Reason: reason}, nil
	}
	return es.getVariation(es.flag.OffVariation.IntValue(), reason)
}

func (es *evaluationScope) getValueForVariationOrRollout(
	vr ldmodel.VariationOrRollout,
	reason ldreason.EvaluationReason,
) (ldreason.EvaluationDetail, error) {
	index, inExperiment, err := es.variationOrRolloutResult(vr, es.flag.Key, es.flag.Salt)
	if err != nil {
		return ldreason.EvaluationDetail{}, err
	}
	if inExperiment {
		reason = reasonToExperimentReason(reason)
	}
	return es.getVariation(index, reason)
}

// Returns the variation index to use if a target matches, and whether any target matched.
func (es *evaluationScope) anyTargetMatchVariation() (int, bool) {
	if len(es.flag.ContextTargets) == 0 {
		// The old-style data model only has targets for the default (user) kind.
		for i := range es.flag.Targets {
			if es.targetMatch(&es.flag.Targets[i]) {
				return es.flag.Targets[i].Variation, true
			}
		}
		return 0, false
	}
	// The newer data model defines the checking order across all kinds in ContextTargets. An
	// entry for the default kind with no values is a placeholder meaning "check the regular
	// Targets list for this variation here".
	for i := range es.flag.ContextTargets {
		t := &es.flag.ContextTargets[i]
		if (t.ContextKind == "" || t.ContextKind == ldcontext.DefaultKind) && len(t.Values) == 0 {
			for j := range es.flag.Targets {
				ut := &es.flag.Targets[j]
				if ut.Variation == t.Variation {
					if es.targetMatch(ut) {
						return ut.Variation, true
					}
					break
				}
			}
			continue
		}
		if es.targetMatch(t) {
			return t.Variation, true
		}
	}
	return 0, false
}

func (es *evaluationScope) targetMatch(t *ldmodel.Target) bool {
	kind := t.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	if individualContext := es.context.IndividualContextByKind(kind); individualContext.IsDefined() {
		return ldmodel.TargetContainsKey(t, individualContext.Key())
	}
	return false
}

func (es *evaluationScope) ruleMatchesContext(
	rule *ldmodel.FlagRule,
	stack evaluationStack,
) (bool, error) {
	// Note that rule is passed by reference only for efficiency; we do not modify it
	for i := range rule.Clauses {
		match, err := es.clauseMatchesContext(&rule.Clauses[i], stack)
		if !match || err != nil {
			return false, err
		}
	}
	return true, nil
}

func reasonToExperimentReason(reason ldreason.EvaluationReason) ldreason.EvaluationReason {
	switch reason.GetKind() {
	case ldreason.EvalReasonFallthrough:
		return ldreason.NewEvalReasonFallthroughExperiment(true)
	case ldreason.EvalReasonRuleMatch:
		return ldreason.NewEvalReasonRuleMatchExperiment(reason.GetRuleIndex(),
			reason.GetRuleID(), true)
	default:
		return reason // COVERAGE: unreachable
	}
}
