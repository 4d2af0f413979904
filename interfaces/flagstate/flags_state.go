package flagstate

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// AllFlags is a snapshot of the state of multiple feature flags with regard to a specific
// evaluation context.
//
// This is the return type of LDClient.AllFlagsState().
//
// Serializing this object to JSON with json.Marshal() will produce the appropriate data
// structure for bootstrapping the LaunchDarkly JavaScript client.
type AllFlags struct {
	flags map[string]FlagState
	valid bool
}

// IsValid returns true if this object contains a valid snapshot of feature flag state, or
// false if the state could not be computed (for instance, because the client was offline or
// was not initialized).
func (a AllFlags) IsValid() bool {
	return a.valid
}

// GetFlag looks up information for a specific flag by key. The second return value is true if
// the flag was found, or false if there is no such flag.
func (a AllFlags) GetFlag(flagKey string) (FlagState, bool) {
	f, ok := a.flags[flagKey]
	return f, ok
}

// GetValue returns the value of an individual feature flag at the time the state was recorded.
// The return value will be ldvalue.Null() if the flag returned the default value, or if there
// was no such flag.
//
// This is equivalent to calling GetFlag for the flag and then getting the Value property.
func (a AllFlags) GetValue(flagKey string) ldvalue.Value {
	return a.flags[flagKey].Value
}

// ToValuesMap returns a map of flag keys to flag values. If a flag would have evaluated to the
// default value, its value will be ldvalue.Null().
//
// Do not use this method if you are passing data to the front end to "bootstrap" the
// JavaScript client. Instead, serialize the AllFlags object to JSON.
func (a AllFlags) ToValuesMap() map[string]ldvalue.Value {
	ret := make(map[string]ldvalue.Value, len(a.flags))
	for k, v := range a.flags {
		ret[k] = v.Value
	}
	return ret
}

// MarshalJSON implements a custom JSON serialization for AllFlags, to produce the correct
// data structure for "bootstrapping" the LaunchDarkly JavaScript client.
func (a AllFlags) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("$valid").Bool(a.valid)
	for key, flag := range a.flags {
		flag.Value.WriteToJSONWriter(obj.Name(key))
	}
	stateObj := obj.Name("$flagsState").Object()
	for key, flag := range a.flags {
		flagObj := stateObj.Name(key).Object()
		flagObj.Maybe("variation", flag.Variation.IsDefined()).Int(flag.Variation.OrElse(0))
		flagObj.Name("version").Int(flag.Version)
		if flag.Reason.IsDefined() && !flag.OmitDetails {
			flag.Reason.WriteToJSONWriter(flagObj.Name("reason"))
		}
		flagObj.Maybe("trackEvents", flag.TrackEvents).Bool(flag.TrackEvents)
		flagObj.Maybe("trackReason", flag.TrackReason).Bool(flag.TrackReason)
		flagObj.Maybe("debugEventsUntilDate", flag.DebugEventsUntilDate > 0).
			Float64(float64(flag.DebugEventsUntilDate))
		flagObj.End()
	}
	stateObj.End()
	obj.End()
	return w.Bytes(), w.Error()
}

// FlagState represents the state of an individual feature flag, with regard to a specific
// evaluation context, at the time the state was recorded.
type FlagState struct {
	// Value is the result of evaluating the flag for the specified evaluation context.
	Value ldvalue.Value

	// Variation is the variation index that was selected for the specified evaluation
	// context.
	Variation ldvalue.OptionalInt

	// Version is the flag's version number when it was evaluated.
	Version int

	// Reason is the evaluation reason from evaluating the flag.
	Reason ldreason.EvaluationReason

	// TrackEvents is true if a full feature event must be sent whenever evaluating this flag.
	// This will be true if the flag was explicitly configured to track events, or if an
	// experiment is running.
	TrackEvents bool

	// TrackReason is true if the evaluation reason should always be included in any full
	// feature event created for this flag, regardless of whether variationDetail was called.
	// This will be true if an experiment is running.
	TrackReason bool

	// DebugEventsUntilDate is non-zero if event debugging is enabled for this flag until the
	// specified time.
	DebugEventsUntilDate ldtime.UnixMillisecondTime

	// OmitDetails is true if, based on the options passed to AllFlagsState and the flag
	// state, some of the metadata can be left out of the JSON representation.
	OmitDetails bool
}
