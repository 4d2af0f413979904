package ldtestdata

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"

	"golang.org/x/exp/slices"
)

const (
	trueVariationForBoolean  = 0
	falseVariationForBoolean = 1
)

// FlagBuilder is a builder for feature flag configurations to be used with TestDataSource.
type FlagBuilder struct {
	key                  string
	on                   bool
	offVariation         ldvalue.OptionalInt
	fallthroughVariation ldvalue.OptionalInt
	variations           []ldvalue.Value
	targets              []targetInfo
	rules                []*RuleBuilder
}

// RuleBuilder is a builder for feature flag rules to be used with FlagBuilder.
//
// In the LaunchDarkly model, a flag can have any number of rules, and a rule can have any
// number of clauses. A clause contains an exact-match test against a single context attribute.
//
// To start defining a rule, use one of the matching methods of FlagBuilder such as IfMatch.
// This defines the first clause for the rule. Optionally, you may add more clauses with the
// rule builder's methods such as AndMatch. Finally, call ThenReturn or ThenReturnIndex to
// finish defining the rule.
type RuleBuilder struct {
	owner     *FlagBuilder
	variation int
	clauses   []ldmodel.Clause
}

type targetInfo struct {
	contextKind ldcontext.Kind
	variation   int
	keys        []string
}

func newFlagBuilder(key string) *FlagBuilder {
	return &FlagBuilder{
		key: key,
		on:  true,
	}
}

func copyFlagBuilder(from *FlagBuilder) *FlagBuilder {
	f := new(FlagBuilder)
	*f = *from
	f.variations = slices.Clone(from.variations)
	f.targets = make([]targetInfo, 0, len(from.targets))
	for _, t := range from.targets {
		f.targets = append(f.targets, targetInfo{
			contextKind: t.contextKind,
			variation:   t.variation,
			keys:        slices.Clone(t.keys),
		})
	}
	f.rules = make([]*RuleBuilder, 0, len(from.rules))
	for _, r := range from.rules {
		f.rules = append(f.rules, copyTestFlagRuleBuilder(r, f))
	}
	return f
}

// BooleanFlag is a shortcut for setting the flag to use the standard boolean configuration.
//
// This is the default for all new flags created with TestDataSource.Flag. The flag will have
// two variations, true and false (in that order); it will return false whenever targeting is
// off, and true when targeting is on if no other settings specify otherwise.
func (f *FlagBuilder) BooleanFlag() *FlagBuilder {
	if f.isBooleanFlag() {
		return f
	}
	return f.Variations(ldvalue.Bool(true), ldvalue.Bool(false)).
		FallthroughVariationIndex(trueVariationForBoolean).
		OffVariationIndex(falseVariationForBoolean)
}

// On sets targeting to be on or off for this flag.
//
// The effect of this depends on the rest of the flag configuration, just as it does on the
// real LaunchDarkly dashboard. In the default configuration that you get from calling
// TestDataSource.Flag with a new flag key, the flag will return false whenever targeting is
// off, and true when targeting is on.
func (f *FlagBuilder) On(on bool) *FlagBuilder {
	f.on = on
	return f
}

// FallthroughVariation specifies the fallthrough variation for a boolean flag. The
// fallthrough is the value that is returned if targeting is on and the context was not
// matched by a more specific target or rule.
//
// If the flag was previously configured with other variations, this also changes it to a
// boolean flag.
func (f *FlagBuilder) FallthroughVariation(variation bool) *FlagBuilder {
	return f.BooleanFlag().FallthroughVariationIndex(variationForBoolean(variation))
}

// FallthroughVariationIndex specifies the index of the fallthrough variation. The fallthrough
// is the variation that is returned if targeting is on and the context was not matched by a
// more specific target or rule. The index is 0 for the first variation, 1 for the second, etc.
func (f *FlagBuilder) FallthroughVariationIndex(variationIndex int) *FlagBuilder {
	f.fallthroughVariation = ldvalue.NewOptionalInt(variationIndex)
	return f
}

// OffVariation specifies the off variation for a boolean flag. This is the variation that is
// returned whenever targeting is off.
//
// If the flag was previously configured with other variations, this also changes it to a
// boolean flag.
func (f *FlagBuilder) OffVariation(variation bool) *FlagBuilder {
	return f.BooleanFlag().OffVariationIndex(variationForBoolean(variation))
}

// OffVariationIndex specifies the index of the off variation. This is the variation that is
// returned whenever targeting is off. The index is 0 for the first variation, 1 for the
// second, etc.
func (f *FlagBuilder) OffVariationIndex(variationIndex int) *FlagBuilder {
	f.offVariation = ldvalue.NewOptionalInt(variationIndex)
	return f
}

// VariationForAll sets the flag to return the specified boolean variation by default for all
// contexts.
//
// Targeting is switched on, any existing targets or rules are removed, and the flag's
// variations are set to true and false. The fallthrough variation is set to the specified
// value. The off variation is left unchanged.
func (f *FlagBuilder) VariationForAll(variation bool) *FlagBuilder {
	return f.BooleanFlag().VariationForAllIndex(variationForBoolean(variation))
}

// VariationForAllIndex sets the flag to always return the specified variation for all
// contexts. The index is 0 for the first variation, 1 for the second, etc.
//
// Targeting is switched on, and any existing targets or rules are removed. The fallthrough
// variation is set to the specified value. The off variation is left unchanged.
func (f *FlagBuilder) VariationForAllIndex(variationIndex int) *FlagBuilder {
	return f.On(true).ClearRules().ClearTargets().FallthroughVariationIndex(variationIndex)
}

// ValueForAll sets the flag to always return the specified variation value for all contexts.
//
// The value may be of any JSON type, as defined by ldvalue.Value. This method changes the flag
// to only a single variation, which is this value, and to return the same variation regardless
// of whether targeting is on or off. Any existing targets or rules are removed.
func (f *FlagBuilder) ValueForAll(value ldvalue.Value) *FlagBuilder {
	f.variations = []ldvalue.Value{value}
	return f.VariationForAllIndex(0).OffVariationIndex(0)
}

// VariationForKey sets the flag to return the specified boolean variation for a specific
// context, identified by context kind and key, when targeting is on.
//
// This has no effect when targeting is turned off for the flag.
//
// If the flag was not already a boolean flag, this also changes it to a boolean flag.
func (f *FlagBuilder) VariationForKey(contextKind ldcontext.Kind, key string, variation bool) *FlagBuilder {
	return f.BooleanFlag().VariationIndexForKey(contextKind, key, variationForBoolean(variation))
}

// VariationIndexForKey sets the flag to return the specified variation for a specific context,
// identified by context kind and key, when targeting is on. The index is 0 for the first
// variation, 1 for the second, etc.
//
// This has no effect when targeting is turned off for the flag.
func (f *FlagBuilder) VariationIndexForKey(contextKind ldcontext.Kind, key string, variationIndex int) *FlagBuilder {
	if contextKind == "" {
		contextKind = ldcontext.DefaultKind
	}
	for i, t := range f.targets {
		if t.contextKind == contextKind && t.variation == variationIndex {
			if !slices.Contains(t.keys, key) {
				f.targets[i].keys = append(t.keys, key)
			}
			return f
		}
	}
	f.targets = append(f.targets, targetInfo{
		contextKind: contextKind,
		variation:   variationIndex,
		keys:        []string{key},
	})
	return f
}

// Variations changes the allowable variation values for the flag.
//
// The values may be of any JSON type, as defined by ldvalue.Value. For instance, a boolean
// flag normally has ldvalue.Bool(true), ldvalue.Bool(false); a string-valued flag might have
// ldvalue.String("red"), ldvalue.String("green"); etc.
func (f *FlagBuilder) Variations(values ...ldvalue.Value) *FlagBuilder {
	f.variations = slices.Clone(values)
	return f
}

// ClearRules removes any existing rules from the flag. This undoes the effect of methods like
// IfMatch.
func (f *FlagBuilder) ClearRules() *FlagBuilder {
	f.rules = nil
	return f
}

// ClearTargets removes any existing targets from the flag. This undoes the effect of methods
// like VariationForKey.
func (f *FlagBuilder) ClearTargets() *FlagBuilder {
	f.targets = nil
	return f
}

// IfMatch starts defining a flag rule, using the "is one of" operator. The rule will match
// contexts of the default kind ("user") whose value for the specified attribute is equal to
// any of the specified values.
//
// For example, this creates a rule that returns true if the name attribute is "Patsy" or
// "Edina":
//
//	testData.Update(testData.Flag("flag").
//	    IfMatch("name", ldvalue.String("Patsy"), ldvalue.String("Edina")).
//	    ThenReturn(true))
func (f *FlagBuilder) IfMatch(attribute string, values ...ldvalue.Value) *RuleBuilder {
	return f.IfMatchContext(ldcontext.DefaultKind, attribute, values...)
}

// IfMatchContext starts defining a flag rule, using the "is one of" operator. This is the same
// as IfMatch, but allows you to match contexts of any kind rather than only the default kind.
func (f *FlagBuilder) IfMatchContext(
	contextKind ldcontext.Kind,
	attribute string,
	values ...ldvalue.Value,
) *RuleBuilder {
	return newTestFlagRuleBuilder(f).AndMatchContext(contextKind, attribute, values...)
}

// IfNotMatch starts defining a flag rule, using the "is not one of" operator. The rule will
// match contexts of the default kind ("user") whose value for the specified attribute is not
// equal to any of the specified values.
func (f *FlagBuilder) IfNotMatch(attribute string, values ...ldvalue.Value) *RuleBuilder {
	return f.IfNotMatchContext(ldcontext.DefaultKind, attribute, values...)
}

// IfNotMatchContext starts defining a flag rule, using the "is not one of" operator. This is
// the same as IfNotMatch, but allows you to match contexts of any kind rather than only the
// default kind.
func (f *FlagBuilder) IfNotMatchContext(
	contextKind ldcontext.Kind,
	attribute string,
	values ...ldvalue.Value,
) *RuleBuilder {
	return newTestFlagRuleBuilder(f).AndNotMatchContext(contextKind, attribute, values...)
}

func (f *FlagBuilder) isBooleanFlag() bool {
	return len(f.variations) == 2 &&
		f.variations[trueVariationForBoolean].Equal(ldvalue.Bool(true)) &&
		f.variations[falseVariationForBoolean].Equal(ldvalue.Bool(false))
}

func (f *FlagBuilder) createFlag(version int) ldmodel.FeatureFlag {
	flag := ldmodel.FeatureFlag{
		Key:          f.key,
		Version:      version,
		On:           f.on,
		OffVariation: f.offVariation,
		Fallthrough:  ldmodel.VariationOrRollout{Variation: f.fallthroughVariation},
		Variations:   slices.Clone(f.variations),
	}

	// The older Targets list only supports the default context kind; all other kinds go in
	// ContextTargets. If any non-default targets exist, the default ones also get a
	// ContextTargets placeholder entry, since that list defines the checking order.
	hasNonDefaultTargets := false
	for _, t := range f.targets {
		if t.contextKind != ldcontext.DefaultKind {
			hasNonDefaultTargets = true
			break
		}
	}
	for _, t := range f.targets {
		if t.contextKind == ldcontext.DefaultKind {
			flag.Targets = append(flag.Targets, ldmodel.Target{
				Variation: t.variation,
				Values:    slices.Clone(t.keys),
			})
			if hasNonDefaultTargets {
				flag.ContextTargets = append(flag.ContextTargets, ldmodel.Target{
					ContextKind: ldcontext.DefaultKind,
					Variation:   t.variation,
				})
			}
		} else {
			flag.ContextTargets = append(flag.ContextTargets, ldmodel.Target{
				ContextKind: t.contextKind,
				Variation:   t.variation,
				Values:      slices.Clone(t.keys),
			})
		}
	}

	for i, r := range f.rules {
		flag.Rules = append(flag.Rules, ldmodel.FlagRule{
			ID:                 fmt.Sprintf("rule%d", i),
			Clauses:            slices.Clone(r.clauses),
			VariationOrRollout: ldmodel.VariationOrRollout{Variation: ldvalue.NewOptionalInt(r.variation)},
		})
	}

	ldmodel.PreprocessFlag(&flag)
	return flag
}

func newTestFlagRuleBuilder(owner *FlagBuilder) *RuleBuilder {
	return &RuleBuilder{owner: owner}
}

func copyTestFlagRuleBuilder(from *RuleBuilder, owner *FlagBuilder) *RuleBuilder {
	r := RuleBuilder{owner: owner, variation: from.variation}
	r.clauses = slices.Clone(from.clauses)
	return &r
}

// AndMatch adds another clause to the rule, using the "is one of" operator. The clause matches
// contexts of the default kind ("user") whose value for the specified attribute is equal to
// any of the specified values.
func (r *RuleBuilder) AndMatch(attribute string, values ...ldvalue.Value) *RuleBuilder {
	return r.AndMatchContext(ldcontext.DefaultKind, attribute, values...)
}

// AndMatchContext adds another clause to the rule, using the "is one of" operator. This is the
// same as AndMatch, but allows you to match contexts of any kind rather than only the default
// kind.
func (r *RuleBuilder) AndMatchContext(
	contextKind ldcontext.Kind,
	attribute string,
	values ...ldvalue.Value,
) *RuleBuilder {
	r.clauses = append(r.clauses, ldmodel.Clause{
		ContextKind: contextKind,
		Attribute:   ldattr.NewRef(attribute),
		Op:          ldmodel.OperatorIn,
		Values:      values,
	})
	return r
}

// AndNotMatch adds another clause to the rule, using the "is not one of" operator. The clause
// matches contexts of the default kind ("user") whose value for the specified attribute is not
// equal to any of the specified values.
func (r *RuleBuilder) AndNotMatch(attribute string, values ...ldvalue.Value) *RuleBuilder {
	return r.AndNotMatchContext(ldcontext.DefaultKind, attribute, values...)
}

// AndNotMatchContext adds another clause to the rule, using the "is not one of" operator. This
// is the same as AndNotMatch, but allows you to match contexts of any kind rather than only
// the default kind.
func (r *RuleBuilder) AndNotMatchContext(
	contextKind ldcontext.Kind,
	attribute string,
	values ...ldvalue.Value,
) *RuleBuilder {
	r.clauses = append(r.clauses, ldmodel.Clause{
		ContextKind: contextKind,
		Attribute:   ldattr.NewRef(attribute),
		Op:          ldmodel.OperatorIn,
		Values:      values,
		Negate:      true,
	})
	return r
}

// ThenReturn finishes defining the rule, specifying the result as a boolean value.
//
// If the flag was not already a boolean flag, this also changes it to a boolean flag.
func (r *RuleBuilder) ThenReturn(variation bool) *FlagBuilder {
	r.owner.BooleanFlag()
	return r.ThenReturnIndex(variationForBoolean(variation))
}

// ThenReturnIndex finishes defining the rule, specifying the result as a variation index. The
// index is 0 for the first variation, 1 for the second, etc.
func (r *RuleBuilder) ThenReturnIndex(variationIndex int) *FlagBuilder {
	r.variation = variationIndex
	r.owner.rules = append(r.owner.rules, r)
	return r.owner
}

func variationForBoolean(value bool) int {
	if value {
		return trueVariationForBoolean
	}
	return falseVariationForBoolean
}
