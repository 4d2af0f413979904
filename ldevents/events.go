package ldevents

import (
	"encoding/json"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// EventInputContext represents context information that is being used as part of the inputs
// to an event-generating action. It is a combination of the standard Context struct with
// additional information that may be provided by the SDK.
//
// SDK code normally constructs EventInputContext with the Context function. The
// PreserializedContext variant is for use by the Relay Proxy, where context data received
// from another SDK has already been serialized.
type EventInputContext struct {
	context       ldcontext.Context
	preserialized json.RawMessage
}

// Context creates an EventInputContext that is exactly equivalent to the given Context.
func Context(context ldcontext.Context) EventInputContext {
	return EventInputContext{context: context}
}

// PreserializedContext creates an EventInputContext that contains both a Context and its
// already-computed JSON representation. Private attribute redaction is assumed to have
// already been done, so the JSON is written to event output as-is.
func PreserializedContext(context ldcontext.Context, jsonData json.RawMessage) EventInputContext {
	return EventInputContext{context: context, preserialized: jsonData}
}

// Event is an interface implemented by all event types.
type Event interface {
	// GetBase returns the fields common to all events.
	GetBase() BaseEvent
}

// BaseEvent provides properties common to all events.
type BaseEvent struct {
	CreationDate ldtime.UnixMillisecondTime
	Context      EventInputContext
}

// FeatureRequestEvent is generated by evaluating a feature flag or one of a flag's prerequisites.
type FeatureRequestEvent struct {
	BaseEvent
	Key                  string
	Variation            ldvalue.OptionalInt
	Value                ldvalue.Value
	Default              ldvalue.Value
	Version              ldvalue.OptionalInt
	PrereqOf             ldvalue.OptionalString
	Reason               ldreason.EvaluationReason
	TrackEvents          bool
	Debug                bool
	DebugEventsUntilDate ldtime.UnixMillisecondTime
}

// CustomEvent is generated by calling the client's Track methods.
type CustomEvent struct {
	BaseEvent
	Key         string
	Data        ldvalue.Value
	HasMetric   bool
	MetricValue float64
}

// IdentifyEvent is generated by calling the client's Identify method.
type IdentifyEvent struct {
	BaseEvent
}

// IndexEvent is generated internally to capture context details from other events. It is an
// implementation detail of the event processor, so it is not exported.
type indexEvent struct {
	BaseEvent
}

// GetBase returns the BaseEvent part of the event.
func (evt FeatureRequestEvent) GetBase() BaseEvent {
	return evt.BaseEvent
}

// GetBase returns the BaseEvent part of the event.
func (evt CustomEvent) GetBase() BaseEvent {
	return evt.BaseEvent
}

// GetBase returns the BaseEvent part of the event.
func (evt IdentifyEvent) GetBase() BaseEvent {
	return evt.BaseEvent
}

func (evt indexEvent) GetBase() BaseEvent {
	return evt.BaseEvent
}

// EventFactory is a configurable factory for event objects.
type EventFactory struct {
	includeReasons bool
	timeFn         func() ldtime.UnixMillisecondTime
}

// NewEventFactory creates an EventFactory.
//
// The includeReasons parameter is true if evaluation events should always include the
// EvaluationReason (this is used by the SDK when one of the "VariationDetail" methods is
// called). The timeFn parameter is normally nil but can be used to instrument the factory
// with a source of time data other than the standard clock.
func NewEventFactory(includeReasons bool, timeFn func() ldtime.UnixMillisecondTime) EventFactory {
	if timeFn == nil {
		timeFn = ldtime.UnixMillisNow
	}
	return EventFactory{includeReasons, timeFn}
}

// NewUnknownFlagEvent creates an evaluation event for a missing flag.
func (f EventFactory) NewUnknownFlagEvent(
	key string,
	context EventInputContext,
	defaultVal ldvalue.Value,
	reason ldreason.EvaluationReason,
) FeatureRequestEvent {
	fre := FeatureRequestEvent{
		BaseEvent: BaseEvent{
			CreationDate: f.timeFn(),
			Context:      context,
		},
		Key:     key,
		Value:   defaultVal,
		Default: defaultVal,
	}
	if f.includeReasons {
		fre.Reason = reason
	}
	return fre
}

// NewEvalEvent creates an evaluation event for an existing flag.
func (f EventFactory) NewEvalEvent(
	flagProps FlagEventProperties,
	context EventInputContext,
	detail ldreason.EvaluationDetail,
	requireReason bool,
	defaultVal ldvalue.Value,
	prereqOf string,
) FeatureRequestEvent {
	fre := FeatureRequestEvent{
		BaseEvent: BaseEvent{
			CreationDate: f.timeFn(),
			Context:      context,
		},
		Key:                  flagProps.Key,
		Version:              ldvalue.NewOptionalInt(flagProps.Version),
		Variation:            detail.VariationIndex,
		Value:                detail.Value,
		Default:              defaultVal,
		TrackEvents:          flagProps.RequireFullEvent || requireReason,
		DebugEventsUntilDate: flagProps.DebugEventsUntilDate,
	}
	if f.includeReasons || requireReason {
		fre.Reason = detail.Reason
	}
	if prereqOf != "" {
		fre.PrereqOf = ldvalue.NewOptionalString(prereqOf)
	}
	return fre
}

// NewCustomEvent creates a new custom event.
func (f EventFactory) NewCustomEvent(
	key string,
	context EventInputContext,
	data ldvalue.Value,
	withMetric bool,
	metricValue float64,
) CustomEvent {
	ce := CustomEvent{
		BaseEvent: BaseEvent{
			CreationDate: f.timeFn(),
			Context:      context,
		},
		Key:         key,
		Data:        data,
		HasMetric:   withMetric,
		MetricValue: metricValue,
	}
	return ce
}

// NewIdentifyEvent constructs a new identify event.
func (f EventFactory) NewIdentifyEvent(context EventInputContext) IdentifyEvent {
	return IdentifyEvent{
		BaseEvent: BaseEvent{
			CreationDate: f.timeFn(),
			Context:      context,
		},
	}
}
