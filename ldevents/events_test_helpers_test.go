package ldevents

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBaseTime = ldtime.UnixMillisecondTime(100000)

func fakeTimeFn() ldtime.UnixMillisecondTime { return fakeBaseTime }

var defaultEventFactory = NewEventFactory(false, fakeTimeFn) //nolint:gochecknoglobals

func basicContext() EventInputContext {
	return Context(ldcontext.NewBuilder("userkey").Name("Lucy").Build())
}

type mockSenderPayload struct {
	kind  EventDataKind
	data  []byte
	count int
}

// mockEventSender records event payloads and returns a configurable result.
type mockEventSender struct {
	payloads chan mockSenderPayload
	result   EventSenderResult
	lock     sync.Mutex
}

func newMockEventSender() *mockEventSender {
	return &mockEventSender{
		payloads: make(chan mockSenderPayload, 100),
		result:   EventSenderResult{Success: true},
	}
}

func (s *mockEventSender) SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult {
	s.lock.Lock()
	result := s.result
	s.lock.Unlock()
	s.payloads <- mockSenderPayload{kind, data, eventCount}
	return result
}

func (s *mockEventSender) setResult(result EventSenderResult) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.result = result
}

// requirePayload waits for a payload and decodes it as a JSON array of event objects.
func (s *mockEventSender) requirePayload(t *testing.T) []map[string]interface{} {
	t.Helper()
	select {
	case p := <-s.payloads:
		var events []map[string]interface{}
		require.NoError(t, json.Unmarshal(p.data, &events))
		return events
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for event payload")
		return nil
	}
}

func (s *mockEventSender) requireRawPayload(t *testing.T) mockSenderPayload {
	t.Helper()
	select {
	case p := <-s.payloads:
		return p
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for event payload")
		return mockSenderPayload{}
	}
}

func (s *mockEventSender) expectNoPayload(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.payloads:
		require.Fail(t, "received unexpected event payload")
	case <-time.After(timeout):
	}
}

func basicConfigWithSender(sender EventSender) EventsConfiguration {
	return EventsConfiguration{
		Capacity:            1000,
		ContextKeysCapacity: 1000,
		EventSender:         sender,
		FlushInterval:       time.Hour,
		Loggers:             ldlog.NewDisabledLoggers(),
		currentTimeProvider: fakeTimeFn,
	}
}

func withProcessorAndSender(
	t *testing.T,
	config EventsConfiguration,
	action func(ep EventProcessor),
) {
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()
	action(ep)
}

func assertEventKinds(t *testing.T, events []map[string]interface{}, kinds ...string) {
	t.Helper()
	actual := make([]string, 0, len(events))
	for _, e := range events {
		actual = append(actual, e["kind"].(string))
	}
	assert.Equal(t, kinds, actual)
}
