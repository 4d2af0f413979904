package flagstate

import (
	"encoding/json"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidState(t *testing.T) {
	a := AllFlags{valid: false}
	assert.False(t, a.IsValid())
}

func TestGetFlag(t *testing.T) {
	f := FlagState{Value: ldvalue.String("value")}
	a := AllFlags{flags: map[string]FlagState{"known-flag": f}}

	found, ok := a.GetFlag("known-flag")
	assert.True(t, ok)
	assert.Equal(t, f, found)

	_, ok = a.GetFlag("unknown-flag")
	assert.False(t, ok)
}

func TestGetValue(t *testing.T) {
	a := AllFlags{flags: map[string]FlagState{"known-flag": {Value: ldvalue.String("value")}}}
	assert.Equal(t, ldvalue.String("value"), a.GetValue("known-flag"))
	assert.Equal(t, ldvalue.Null(), a.GetValue("unknown-flag"))
}

func TestToValuesMap(t *testing.T) {
	a := AllFlags{flags: map[string]FlagState{
		"flag1": {Value: ldvalue.String("value1")},
		"flag2": {Value: ldvalue.String("value2")},
	}}
	assert.Equal(t, map[string]ldvalue.Value{
		"flag1": ldvalue.String("value1"),
		"flag2": ldvalue.String("value2"),
	}, a.ToValuesMap())

	empty := AllFlags{}
	assert.Equal(t, map[string]ldvalue.Value{}, empty.ToValuesMap())
}

func TestMarshalJSON(t *testing.T) {
	a := AllFlags{
		valid: true,
		flags: map[string]FlagState{
			"flag1": {
				Value:     ldvalue.String("value1"),
				Variation: ldvalue.NewOptionalInt(1),
				Version:   1000,
			},
			"flag2": {
				Value:                ldvalue.String("value2"),
				Variation:            ldvalue.NewOptionalInt(2),
				Version:              2000,
				Reason:               ldreason.NewEvalReasonFallthrough(),
				TrackEvents:          true,
				TrackReason:          true,
				DebugEventsUntilDate: ldtime.UnixMillisecondTime(100000),
			},
		},
	}

	bytes, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$valid": true,
		"flag1": "value1",
		"flag2": "value2",
		"$flagsState": {
			"flag1": {
				"variation": 1,
				"version": 1000
			},
			"flag2": {
				"variation": 2,
				"version": 2000,
				"reason": {"kind": "FALLTHROUGH"},
				"trackEvents": true,
				"trackReason": true,
				"debugEventsUntilDate": 100000
			}
		}
	}`, string(bytes))
}

func TestMarshalJSONOmitsReasonWhenOmitDetailsIsSet(t *testing.T) {
	a := AllFlags{
		valid: true,
		flags: map[string]FlagState{
			"flag1": {
				Value:       ldvalue.String("value1"),
				Version:     1000,
				Reason:      ldreason.NewEvalReasonFallthrough(),
				OmitDetails: true,
			},
		},
	}

	bytes, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$valid": true,
		"flag1": "value1",
		"$flagsState": {
			"flag1": {
				"version": 1000
			}
		}
	}`, string(bytes))
}

func TestMarshalJSONInvalidState(t *testing.T) {
	a := AllFlags{valid: false, flags: map[string]FlagState{}}
	bytes, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$valid": false, "$flagsState": {}}`, string(bytes))
}

func TestBuilderDefaults(t *testing.T) {
	a := NewAllFlagsBuilder().Build()
	assert.True(t, a.IsValid())
	assert.Len(t, a.flags, 0)
}

func TestBuilderAddFlag(t *testing.T) {
	f := FlagState{
		Value:     ldvalue.String("value"),
		Variation: ldvalue.NewOptionalInt(1),
		Version:   1000,
	}
	a := NewAllFlagsBuilder().AddFlag("flagkey", f).Build()
	found, ok := a.GetFlag("flagkey")
	assert.True(t, ok)
	assert.Equal(t, f, found)
}

func TestBuilderDiscardsReasonByDefault(t *testing.T) {
	f := FlagState{
		Value:  ldvalue.String("value"),
		Reason: ldreason.NewEvalReasonFallthrough(),
	}
	a := NewAllFlagsBuilder().AddFlag("flagkey", f).Build()
	found, _ := a.GetFlag("flagkey")
	assert.False(t, found.Reason.IsDefined())
}

func TestBuilderRetainsReasonWithOptionWithReasons(t *testing.T) {
	f := FlagState{
		Value:  ldvalue.String("value"),
		Reason: ldreason.NewEvalReasonFallthrough(),
	}
	a := NewAllFlagsBuilder(OptionWithReasons()).AddFlag("flagkey", f).Build()
	found, _ := a.GetFlag("flagkey")
	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), found.Reason)
}

func TestBuilderRetainsReasonIfTrackReasonIsSet(t *testing.T) {
	f := FlagState{
		Value:       ldvalue.String("value"),
		Reason:      ldreason.NewEvalReasonFallthrough(),
		TrackReason: true,
	}
	a := NewAllFlagsBuilder().AddFlag("flagkey", f).Build()
	found, _ := a.GetFlag("flagkey")
	assert.Equal(t, ldreason.NewEvalReasonFallthrough(), found.Reason)
}

func TestBuilderDetailsOnlyForTrackedFlags(t *testing.T) {
	untracked := FlagState{Value: ldvalue.String("value1")}
	tracked := FlagState{Value: ldvalue.String("value2"), TrackEvents: true}
	debugged := FlagState{Value: ldvalue.String("value3"),
		DebugEventsUntilDate: ldtime.UnixMillisecondTime(100000)}

	a := NewAllFlagsBuilder(OptionDetailsOnlyForTrackedFlags()).
		AddFlag("flag1", untracked).
		AddFlag("flag2", tracked).
		AddFlag("flag3", debugged).
		Build()

	f1, _ := a.GetFlag("flag1")
	assert.True(t, f1.OmitDetails)
	f2, _ := a.GetFlag("flag2")
	assert.False(t, f2.OmitDetails)
	f3, _ := a.GetFlag("flag3")
	assert.False(t, f3.OmitDetails)
}

func TestOptionStringers(t *testing.T) {
	assert.Equal(t, "ClientSideOnly", OptionClientSideOnly().String())
	assert.Equal(t, "WithReasons", OptionWithReasons().String())
	assert.Equal(t, "DetailsOnlyForTrackedFlags", OptionDetailsOnlyForTrackedFlags().String())
}
