package ldevents

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Manages the state of summarizable information for the EventProcessor, including the
// event counters and context deduplication. Note that the methods of this type are
// deliberately not thread-safe, because they should always be called from EventProcessor's
// single event-processing goroutine.
type eventSummarizer struct {
	eventsState eventSummary
}

type eventSummary struct {
	flags     map[string]flagSummary
	startDate ldtime.UnixMillisecondTime
	endDate   ldtime.UnixMillisecondTime
}

type flagSummary struct {
	counters     map[counterKey]*counterValue
	contextKinds map[ldcontext.Kind]struct{}
	defaultValue ldvalue.Value
}

type counterKey struct {
	variation ldvalue.OptionalInt
	version   ldvalue.OptionalInt
}

type counterValue struct {
	count     int
	flagValue ldvalue.Value
}

func newEventSummarizer() eventSummarizer {
	return eventSummarizer{eventsState: newEventSummary()}
}

func newEventSummary() eventSummary {
	return eventSummary{
		flags: make(map[string]flagSummary),
	}
}

// Adds this event to our counters.
func (s *eventSummarizer) summarizeEvent(evt FeatureRequestEvent) {
	flag, ok := s.eventsState.flags[evt.Key]
	if !ok {
		flag = flagSummary{
			counters:     make(map[counterKey]*counterValue),
			contextKinds: make(map[ldcontext.Kind]struct{}),
			defaultValue: evt.Default,
		}
		s.eventsState.flags[evt.Key] = flag
	}

	context := evt.Context.context
	for i := 0; i < context.IndividualContextCount(); i++ {
		if c := context.IndividualContextByIndex(i); c.IsDefined() {
			flag.contextKinds[c.Kind()] = struct{}{}
		}
	}

	key := counterKey{variation: evt.Variation, version: evt.Version}
	if value, ok := flag.counters[key]; ok {
		value.count++
	} else {
		flag.counters[key] = &counterValue{
			count:     1,
			flagValue: evt.Value,
		}
	}

	creationDate := evt.CreationDate
	if s.eventsState.startDate == 0 || creationDate < s.eventsState.startDate {
		s.eventsState.startDate = creationDate
	}
	if creationDate > s.eventsState.endDate {
		s.eventsState.endDate = creationDate
	}
}

// Returns the summary of events so far. This does not reset the state; the caller
// resets it with reset() once the payload has been handed off to a flush worker.
func (s *eventSummarizer) snapshot() eventSummary {
	return s.eventsState
}

func (s *eventSummarizer) reset() {
	s.eventsState = newEventSummary()
}
