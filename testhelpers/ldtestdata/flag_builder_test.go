package ldtestdata

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFlag(b *FlagBuilder) ldmodel.FeatureFlag {
	return b.createFlag(1)
}

func TestFlagBuilderBooleanFlagDefaults(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag())

	assert.Equal(t, "flagkey", flag.Key)
	assert.True(t, flag.On)
	assert.Equal(t, []ldvalue.Value{ldvalue.Bool(true), ldvalue.Bool(false)}, flag.Variations)
	assert.Equal(t, ldvalue.NewOptionalInt(trueVariationForBoolean), flag.Fallthrough.Variation)
	assert.Equal(t, ldvalue.NewOptionalInt(falseVariationForBoolean), flag.OffVariation)
}

func TestFlagBuilderOn(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().On(false))
	assert.False(t, flag.On)
}

func TestFlagBuilderFallthroughAndOffVariations(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").
		FallthroughVariation(false).
		OffVariation(true))
	assert.Equal(t, ldvalue.NewOptionalInt(falseVariationForBoolean), flag.Fallthrough.Variation)
	assert.Equal(t, ldvalue.NewOptionalInt(trueVariationForBoolean), flag.OffVariation)
}

func TestFlagBuilderCustomVariations(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").
		Variations(ldvalue.String("red"), ldvalue.String("green")).
		FallthroughVariationIndex(1).
		OffVariationIndex(0))
	assert.Equal(t, []ldvalue.Value{ldvalue.String("red"), ldvalue.String("green")}, flag.Variations)
	assert.Equal(t, ldvalue.NewOptionalInt(1), flag.Fallthrough.Variation)
	assert.Equal(t, ldvalue.NewOptionalInt(0), flag.OffVariation)
}

func TestFlagBuilderValueForAll(t *testing.T) {
	value := ldvalue.ObjectBuild().Set("thing", ldvalue.String("stuff")).Build()
	flag := buildFlag(newFlagBuilder("flagkey").ValueForAll(value))

	assert.True(t, flag.On)
	assert.Equal(t, []ldvalue.Value{value}, flag.Variations)
	assert.Equal(t, ldvalue.NewOptionalInt(0), flag.Fallthrough.Variation)
	assert.Equal(t, ldvalue.NewOptionalInt(0), flag.OffVariation)
}

func TestFlagBuilderVariationForAllClearsRulesAndTargets(t *testing.T) {
	b := newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey(ldcontext.DefaultKind, "userkey", true).
		IfMatch("name", ldvalue.String("Lucy")).ThenReturn(true).
		VariationForAll(false)
	flag := buildFlag(b)

	assert.True(t, flag.On)
	assert.Len(t, flag.Targets, 0)
	assert.Len(t, flag.Rules, 0)
	assert.Equal(t, ldvalue.NewOptionalInt(falseVariationForBoolean), flag.Fallthrough.Variation)
}

func TestFlagBuilderTargetsForDefaultKind(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey(ldcontext.DefaultKind, "key1", true).
		VariationForKey(ldcontext.DefaultKind, "key2", true).
		VariationForKey(ldcontext.DefaultKind, "key3", false))

	require.Len(t, flag.Targets, 2)
	assert.Equal(t, trueVariationForBoolean, flag.Targets[0].Variation)
	assert.Equal(t, []string{"key1", "key2"}, flag.Targets[0].Values)
	assert.Equal(t, falseVariationForBoolean, flag.Targets[1].Variation)
	assert.Equal(t, []string{"key3"}, flag.Targets[1].Values)
	assert.Len(t, flag.ContextTargets, 0)
}

func TestFlagBuilderTargetsForOtherKinds(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey(ldcontext.DefaultKind, "userkey", true).
		VariationForKey("org", "orgkey", true))

	// Non-default kinds go in ContextTargets; the default-kind entry gets a placeholder there
	// to define the checking order, with the keys remaining in the old-style Targets list.
	require.Len(t, flag.Targets, 1)
	assert.Equal(t, []string{"userkey"}, flag.Targets[0].Values)

	require.Len(t, flag.ContextTargets, 2)
	assert.Equal(t, ldcontext.DefaultKind, flag.ContextTargets[0].ContextKind)
	assert.Len(t, flag.ContextTargets[0].Values, 0)
	assert.Equal(t, ldcontext.Kind("org"), flag.ContextTargets[1].ContextKind)
	assert.Equal(t, []string{"orgkey"}, flag.ContextTargets[1].Values)
}

func TestFlagBuilderVariationForKeyDeduplicatesKeys(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey(ldcontext.DefaultKind, "key1", true).
		VariationForKey(ldcontext.DefaultKind, "key1", true))

	require.Len(t, flag.Targets, 1)
	assert.Equal(t, []string{"key1"}, flag.Targets[0].Values)
}

func TestFlagBuilderEmptyKindDefaultsToUser(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey("", "key1", true))

	require.Len(t, flag.Targets, 1)
	assert.Equal(t, []string{"key1"}, flag.Targets[0].Values)
}

func TestFlagBuilderRules(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		IfMatch("name", ldvalue.String("Patsy"), ldvalue.String("Edina")).
		AndNotMatch("country", ldvalue.String("gb")).
		ThenReturn(true))

	require.Len(t, flag.Rules, 1)
	rule := flag.Rules[0]
	assert.Equal(t, "rule0", rule.ID)
	assert.Equal(t, ldvalue.NewOptionalInt(trueVariationForBoolean), rule.VariationOrRollout.Variation)

	require.Len(t, rule.Clauses, 2)
	assert.Equal(t, ldcontext.DefaultKind, rule.Clauses[0].ContextKind)
	assert.Equal(t, "name", rule.Clauses[0].Attribute.String())
	assert.Equal(t, ldmodel.OperatorIn, rule.Clauses[0].Op)
	assert.Equal(t, []ldvalue.Value{ldvalue.String("Patsy"), ldvalue.String("Edina")}, rule.Clauses[0].Values)
	assert.False(t, rule.Clauses[0].Negate)

	assert.Equal(t, "country", rule.Clauses[1].Attribute.String())
	assert.True(t, rule.Clauses[1].Negate)
}

func TestFlagBuilderRuleForSpecificKind(t *testing.T) {
	flag := buildFlag(newFlagBuilder("flagkey").BooleanFlag().
		IfMatchContext("org", "name", ldvalue.String("Catco")).
		ThenReturn(false))

	require.Len(t, flag.Rules, 1)
	require.Len(t, flag.Rules[0].Clauses, 1)
	assert.Equal(t, ldcontext.Kind("org"), flag.Rules[0].Clauses[0].ContextKind)
	assert.Equal(t, ldvalue.NewOptionalInt(falseVariationForBoolean), flag.Rules[0].VariationOrRollout.Variation)
}

func TestFlagBuilderCopyIsIndependent(t *testing.T) {
	original := newFlagBuilder("flagkey").BooleanFlag().
		VariationForKey(ldcontext.DefaultKind, "key1", true).
		IfMatch("name", ldvalue.String("Lucy")).ThenReturn(true)
	copied := copyFlagBuilder(original)

	original.On(false).ClearTargets().ClearRules()

	flag := buildFlag(copied)
	assert.True(t, flag.On)
	assert.Len(t, flag.Targets, 1)
	assert.Len(t, flag.Rules, 1)
}
