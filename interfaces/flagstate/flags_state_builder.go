package flagstate

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
)

// AllFlagsBuilder is a builder for constructing an AllFlags instance. This is normally done
// only by the SDK, but it could also be used in testing.
type AllFlagsBuilder struct {
	state   AllFlags
	options allFlagsOptions
}

type allFlagsOptions struct {
	withReasons                bool
	detailsOnlyForTrackedFlags bool
}

// Option is the interface for optional parameters to LDClient.AllFlagsState().
type Option interface {
	fmt.Stringer
	apply(*allFlagsOptions)
}

// NewAllFlagsBuilder creates a builder for constructing an AllFlags instance.
func NewAllFlagsBuilder(options ...Option) *AllFlagsBuilder {
	b := &AllFlagsBuilder{
		state: AllFlags{
			flags: make(map[string]FlagState),
			valid: true,
		},
	}
	for _, o := range options {
		o.apply(&b.options)
	}
	return b
}

// Build returns an immutable State instance copied from the current builder state.
func (b *AllFlagsBuilder) Build() AllFlags {
	return b.state
}

// AddFlag adds information about a flag.
//
// The Reason property in the FlagState may or may not be recorded in the State, depending on
// the builder options.
func (b *AllFlagsBuilder) AddFlag(flagKey string, flag FlagState) *AllFlagsBuilder {
	// To save bandwidth, we include evaluation reasons only if 1. the application explicitly
	// said to include them or 2. they must be included because of experimentation
	if !b.options.withReasons && !flag.TrackReason {
		flag.Reason = ldreason.EvaluationReason{}
	}
	if b.options.detailsOnlyForTrackedFlags && !flag.TrackEvents && !flag.TrackReason &&
		flag.DebugEventsUntilDate == 0 {
		flag.OmitDetails = true
	}
	b.state.flags[flagKey] = flag
	return b
}

type optionClientSideOnly struct{}
type optionWithReasons struct{}
type optionDetailsOnlyForTrackedFlags struct{}

// OptionClientSideOnly is an option that can be passed to LDClient.AllFlagsState().
//
// It specifies that only flags marked for use with the client-side SDK should be included in
// the state object. By default, all flags are included.
func OptionClientSideOnly() Option {
	return optionClientSideOnly{}
}

func (o optionClientSideOnly) String() string { return "ClientSideOnly" }

func (o optionClientSideOnly) apply(opts *allFlagsOptions) {
	// This option is implemented by the client when it builds the state, since the builder
	// does not know anything about the flag data model.
}

// OptionWithReasons is an option that can be passed to LDClient.AllFlagsState().
//
// It specifies that evaluation reasons should be included in the state (see
// LDClient.BoolVariationDetail(), etc.). By default, they are not included.
func OptionWithReasons() Option {
	return optionWithReasons{}
}

// OptionDetailsOnlyForTrackedFlags is an option that can be passed to
// LDClient.AllFlagsState().
//
// It specifies that any flag metadata that is normally only used for event generation-- such
// as flag versions and evaluation reasons-- should be omitted for any flag that does not have
// event tracking or debugging turned on. This reduces the size of the JSON data if you are
// passing the flag state to the front end.
func OptionDetailsOnlyForTrackedFlags() Option {
	return optionDetailsOnlyForTrackedFlags{}
}

func (o optionWithReasons) String() string { return "WithReasons" }

func (o optionWithReasons) apply(opts *allFlagsOptions) {
	opts.withReasons = true
}

func (o optionDetailsOnlyForTrackedFlags) String() string { return "DetailsOnlyForTrackedFlags" }

func (o optionDetailsOnlyForTrackedFlags) apply(opts *allFlagsOptions) {
	opts.detailsOnlyForTrackedFlags = true
}
