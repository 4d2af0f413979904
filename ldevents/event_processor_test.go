package ldevents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvalEvent(factory EventFactory, flagKey string, trackEvents bool) FeatureRequestEvent {
	return factory.NewEvalEvent(
		FlagEventProperties{Key: flagKey, Version: 11, RequireFullEvent: trackEvents},
		basicContext(),
		ldreason.NewEvaluationDetail(ldvalue.String("value"), 1, ldreason.NewEvalReasonFallthrough()),
		false,
		ldvalue.String("default"),
		"",
	)
}

func TestIdentifyEventIsQueuedAndFlushed(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "identify")
		context := events[0]["context"].(map[string]interface{})
		assert.Equal(t, "userkey", context["key"])
		assert.Equal(t, "Lucy", context["name"])
	})
}

func TestUntrackedFeatureEventProducesIndexEventAndSummary(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey", false))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "summary")
		context := events[0]["context"].(map[string]interface{})
		assert.Equal(t, "userkey", context["key"])
	})
}

func TestTrackedFeatureEventProducesFullEvent(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey", true))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "feature", "summary")
		featureEvent := events[1]
		assert.Equal(t, "flagkey", featureEvent["key"])
		assert.Equal(t, float64(1), featureEvent["variation"])
		assert.Equal(t, float64(11), featureEvent["version"])
		assert.Equal(t, "value", featureEvent["value"])
		assert.Equal(t, "default", featureEvent["default"])
		// Full events reference the context by key only; the index event has the details.
		contextKeys := featureEvent["contextKeys"].(map[string]interface{})
		assert.Equal(t, "userkey", contextKeys["user"])
	})
}

func TestOnlyOneIndexEventIsGeneratedPerContext(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey1", true))
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey2", true))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "feature", "feature", "summary")
	})
}

func TestIdentifyEventMarksContextAsSeen(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey", true))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "identify", "feature", "summary")
	})
}

func TestCustomEvent(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ce := defaultEventFactory.NewCustomEvent("eventkey", basicContext(),
			ldvalue.String("data"), true, 2.5)
		ep.SendEvent(ce)
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "custom")
		customEvent := events[1]
		assert.Equal(t, "eventkey", customEvent["key"])
		assert.Equal(t, "data", customEvent["data"])
		assert.Equal(t, 2.5, customEvent["metricValue"])
	})
}

func TestDebugEventIsGeneratedWhileDebugDateIsInFuture(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		event := makeEvalEvent(defaultEventFactory, "flagkey", false)
		event.DebugEventsUntilDate = fakeBaseTime + 1000
		ep.SendEvent(event)
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "debug", "summary")
		// The debug event carries the full context, unlike a normal feature event.
		context := events[1]["context"].(map[string]interface{})
		assert.Equal(t, "Lucy", context["name"])
	})
}

func TestDebugEventIsNotGeneratedIfDebugDateIsInPast(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		event := makeEvalEvent(defaultEventFactory, "flagkey", false)
		event.DebugEventsUntilDate = fakeBaseTime - 1000
		ep.SendEvent(event)
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "summary")
	})
}

func TestDebugModeExpiresBasedOnServerTime(t *testing.T) {
	sender := newMockEventSender()
	serverTime := fakeBaseTime + 100000
	sender.setResult(EventSenderResult{Success: true, TimeFromServer: serverTime})

	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		// Deliver one payload so the processor learns the server time.
		ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		require.True(t, ep.FlushBlocking(time.Second))
		_ = sender.requirePayload(t)

		// The debug date is in the future by the local clock, but in the past by the
		// server clock, so debugging is considered expired.
		event := makeEvalEvent(defaultEventFactory, "flagkey", false)
		event.DebugEventsUntilDate = serverTime - 1000
		ep.SendEvent(event)
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "summary")
	})
}

func TestEventProcessorStopsSendingAfterUnrecoverableError(t *testing.T) {
	sender := newMockEventSender()
	sender.setResult(EventSenderResult{MustShutDown: true})

	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		require.True(t, ep.FlushBlocking(time.Second))
		_ = sender.requirePayload(t)

		ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		require.True(t, ep.FlushBlocking(time.Second))
		sender.expectNoPayload(t, 100*time.Millisecond)
	})
}

func TestEventsAreDroppedWhenOutboxIsFull(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	defer mockLog.DumpIfTestFailed(t)
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.Capacity = 1
	config.Loggers = mockLog.Loggers

	withProcessorAndSender(t, config, func(ep EventProcessor) {
		for i := 0; i < 3; i++ {
			ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
		}
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "identify")
	})

	// The capacity warning is logged only once.
	assert.Len(t, mockLog.GetOutput(ldlog.Warn), 1)
}

func TestSummaryEventAggregatesCounters(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey", false))
		ep.SendEvent(makeEvalEvent(defaultEventFactory, "flagkey", false))
		ep.SendEvent(defaultEventFactory.NewUnknownFlagEvent("badflag", basicContext(),
			ldvalue.String("default"), ldreason.NewEvalReasonError(ldreason.EvalErrorFlagNotFound)))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "summary")
		summary := events[1]
		assert.Equal(t, float64(fakeBaseTime), summary["startDate"])
		assert.Equal(t, float64(fakeBaseTime), summary["endDate"])

		features := summary["features"].(map[string]interface{})
		require.Contains(t, features, "flagkey")
		require.Contains(t, features, "badflag")

		flagSummary := features["flagkey"].(map[string]interface{})
		counters := flagSummary["counters"].([]interface{})
		require.Len(t, counters, 1)
		counter := counters[0].(map[string]interface{})
		assert.Equal(t, float64(2), counter["count"])
		assert.Equal(t, float64(1), counter["variation"])
		assert.Equal(t, float64(11), counter["version"])
		assert.Equal(t, []interface{}{"user"}, flagSummary["contextKinds"])

		unknownSummary := features["badflag"].(map[string]interface{})
		unknownCounters := unknownSummary["counters"].([]interface{})
		require.Len(t, unknownCounters, 1)
		assert.Equal(t, true, unknownCounters[0].(map[string]interface{})["unknown"])
	})
}

func TestDiagnosticInitEventIsSentOnStartup(t *testing.T) {
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.DiagnosticsManager = NewDiagnosticsManager(
		NewDiagnosticID("sdk-key"), ldvalue.Null(), ldvalue.Null(), time.Now(), nil)

	withProcessorAndSender(t, config, func(ep EventProcessor) {
		payload := sender.requireRawPayload(t)
		assert.Equal(t, DiagnosticEventDataKind, payload.kind)
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(payload.data, &event))
		assert.Equal(t, "diagnostic-init", event["kind"])
		assert.Contains(t, event, "platform")
	})
}

func TestPeriodicDiagnosticEventIsSent(t *testing.T) {
	sender := newMockEventSender()
	gate := make(chan struct{}, 1)
	config := basicConfigWithSender(sender)
	config.DiagnosticsManager = NewDiagnosticsManager(
		NewDiagnosticID("sdk-key"), ldvalue.Null(), ldvalue.Null(), time.Now(), gate)
	config.forceDiagnosticRecordingInterval = 10 * time.Millisecond

	withProcessorAndSender(t, config, func(ep EventProcessor) {
		initPayload := sender.requireRawPayload(t)
		assert.Equal(t, DiagnosticEventDataKind, initPayload.kind)

		gate <- struct{}{}
		statsPayload := sender.requireRawPayload(t)
		assert.Equal(t, DiagnosticEventDataKind, statsPayload.kind)
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(statsPayload.data, &event))
		assert.Equal(t, "diagnostic", event["kind"])
	})
}

func TestFlushWithNoEventsSendsNothing(t *testing.T) {
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		require.True(t, ep.FlushBlocking(time.Second))
		sender.expectNoPayload(t, 100*time.Millisecond)
	})
}

func TestCloseFlushesPendingEvents(t *testing.T) {
	sender := newMockEventSender()
	ep := NewDefaultEventProcessor(basicConfigWithSender(sender))
	ep.SendEvent(defaultEventFactory.NewIdentifyEvent(basicContext()))
	require.NoError(t, ep.Close())

	events := sender.requirePayload(t)
	assertEventKinds(t, events, "identify")
}

func makeEvalEventForContext(
	factory EventFactory,
	flagKey string,
	context EventInputContext,
	trackEvents bool,
) FeatureRequestEvent {
	return factory.NewEvalEvent(
		FlagEventProperties{Key: flagKey, Version: 11, RequireFullEvent: trackEvents},
		context,
		ldreason.NewEvaluationDetail(ldvalue.String("value"), 1, ldreason.NewEvalReasonFallthrough()),
		false,
		ldvalue.String("default"),
		"",
	)
}

func TestAnonymousContextDoesNotProduceIndexEvent(t *testing.T) {
	anonContext := Context(ldcontext.NewBuilder("anon-key").Anonymous(true).Build())
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEventForContext(defaultEventFactory, "flagkey", anonContext, false))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "summary")
	})
}

func TestAnonymousContextStillProducesFullEventWhenTracked(t *testing.T) {
	anonContext := Context(ldcontext.NewBuilder("anon-key").Anonymous(true).Build())
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEventForContext(defaultEventFactory, "flagkey", anonContext, true))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "feature", "summary")
		contextKeys := events[0]["contextKeys"].(map[string]interface{})
		assert.Equal(t, "anon-key", contextKeys["user"])
	})
}

func TestMultiKindContextWithNonAnonymousKindIsStillIndexed(t *testing.T) {
	multi := Context(ldcontext.NewMulti(
		ldcontext.NewBuilder("anon-key").Anonymous(true).Name("secret").Build(),
		ldcontext.NewWithKind("org", "orgkey"),
	))
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEventForContext(defaultEventFactory, "flagkey", multi, false))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "index", "summary")
		context := events[0]["context"].(map[string]interface{})
		// The anonymous kind is present but its attributes are redacted.
		userContext := context["user"].(map[string]interface{})
		assert.Equal(t, "anon-key", userContext["key"])
		assert.NotContains(t, userContext, "name")
		orgContext := context["org"].(map[string]interface{})
		assert.Equal(t, "orgkey", orgContext["key"])
	})
}

func TestFullyAnonymousMultiKindContextIsNotIndexed(t *testing.T) {
	multi := Context(ldcontext.NewMulti(
		ldcontext.NewBuilder("anon-key").Anonymous(true).Build(),
		ldcontext.NewBuilder("orgkey").Kind("org").Anonymous(true).Build(),
	))
	sender := newMockEventSender()
	withProcessorAndSender(t, basicConfigWithSender(sender), func(ep EventProcessor) {
		ep.SendEvent(makeEvalEventForContext(defaultEventFactory, "flagkey", multi, false))
		require.True(t, ep.FlushBlocking(time.Second))

		events := sender.requirePayload(t)
		assertEventKinds(t, events, "summary")
	})
}
