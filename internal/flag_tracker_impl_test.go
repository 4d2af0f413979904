package internal

import (
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEvaluator lets a test control the value that the flag tracker sees when it re-evaluates
// a flag after a change event. Each evaluation is signalled on the calls channel so that a test
// can wait for the listener goroutine's initial evaluation before changing the value.
type stubEvaluator struct {
	value ldvalue.Value
	calls chan struct{}
	lock  sync.Mutex
}

func newStubEvaluator(initialValue ldvalue.Value) *stubEvaluator {
	return &stubEvaluator{value: initialValue, calls: make(chan struct{}, 10)}
}

func (s *stubEvaluator) set(value ldvalue.Value) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.value = value
}

func (s *stubEvaluator) evaluate(flagKey string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls <- struct{}{}
	return s.value
}

func (s *stubEvaluator) awaitEvaluation(t *testing.T) {
	t.Helper()
	select {
	case <-s.calls:
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for flag evaluation")
	}
}

func requireFlagValueChangeEvent(
	t *testing.T,
	ch <-chan interfaces.FlagValueChangeEvent,
) interfaces.FlagValueChangeEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for flag value change event")
		return interfaces.FlagValueChangeEvent{}
	}
}

func expectNoFlagValueChangeEvent(t *testing.T, ch <-chan interfaces.FlagValueChangeEvent) {
	t.Helper()
	select {
	case event := <-ch:
		require.Fail(t, "received unexpected flag value change event", "event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFlagTrackerDelegatesToChangeBroadcaster(t *testing.T) {
	broadcaster := NewBroadcaster[interfaces.FlagChangeEvent]()
	defer broadcaster.Close()
	tracker := NewFlagTrackerImpl(broadcaster, nil)

	ch := tracker.AddFlagChangeListener()
	assert.True(t, broadcaster.HasListeners())

	broadcaster.Broadcast(interfaces.FlagChangeEvent{Key: "flagkey"})
	event := <-ch
	assert.Equal(t, "flagkey", event.Key)

	tracker.RemoveFlagChangeListener(ch)
	assert.False(t, broadcaster.HasListeners())
}

func TestFlagValueChangeListenerReceivesValueChanges(t *testing.T) {
	broadcaster := NewBroadcaster[interfaces.FlagChangeEvent]()
	defer broadcaster.Close()
	evaluator := newStubEvaluator(ldvalue.Bool(false))
	tracker := NewFlagTrackerImpl(broadcaster, evaluator.evaluate)

	ch := tracker.AddFlagValueChangeListener("flagkey", ldcontext.New("userkey"), ldvalue.Null())
	evaluator.awaitEvaluation(t)

	evaluator.set(ldvalue.Bool(true))
	broadcaster.Broadcast(interfaces.FlagChangeEvent{Key: "flagkey"})

	event := requireFlagValueChangeEvent(t, ch)
	assert.Equal(t, "flagkey", event.Key)
	assert.Equal(t, ldvalue.Bool(false), event.OldValue)
	assert.Equal(t, ldvalue.Bool(true), event.NewValue)
}

func TestFlagValueChangeListenerIgnoresChangesToOtherFlags(t *testing.T) {
	broadcaster := NewBroadcaster[interfaces.FlagChangeEvent]()
	defer broadcaster.Close()
	evaluator := newStubEvaluator(ldvalue.Bool(false))
	tracker := NewFlagTrackerImpl(broadcaster, evaluator.evaluate)

	ch := tracker.AddFlagValueChangeListener("flagkey", ldcontext.New("userkey"), ldvalue.Null())
	evaluator.awaitEvaluation(t)

	evaluator.set(ldvalue.Bool(true))
	broadcaster.Broadcast(interfaces.FlagChangeEvent{Key: "other-flag"})

	expectNoFlagValueChangeEvent(t, ch)
}

func TestFlagValueChangeListenerIgnoresChangeWithSameValue(t *testing.T) {
	broadcaster := NewBroadcaster[interfaces.FlagChangeEvent]()
	defer broadcaster.Close()
	evaluator := newStubEvaluator(ldvalue.Bool(true))
	tracker := NewFlagTrackerImpl(broadcaster, evaluator.evaluate)

	ch := tracker.AddFlagValueChangeListener("flagkey", ldcontext.New("userkey"), ldvalue.Null())
	evaluator.awaitEvaluation(t)

	broadcaster.Broadcast(interfaces.FlagChangeEvent{Key: "flagkey"})
	expectNoFlagValueChangeEvent(t, ch)

	// A later real change is still delivered.
	evaluator.set(ldvalue.Bool(false))
	broadcaster.Broadcast(interfaces.FlagChangeEvent{Key: "flagkey"})
	event := requireFlagValueChangeEvent(t, ch)
	assert.Equal(t, ldvalue.Bool(true), event.OldValue)
	assert.Equal(t, ldvalue.Bool(false), event.NewValue)
}

func TestRemoveFlagValueChangeListenerClosesChannel(t *testing.T) {
	broadcaster := NewBroadcaster[interfaces.FlagChangeEvent]()
	defer broadcaster.Close()
	evaluator := newStubEvaluator(ldvalue.Bool(false))
	tracker := NewFlagTrackerImpl(broadcaster, evaluator.evaluate)

	ch := tracker.AddFlagValueChangeListener("flagkey", ldcontext.New("userkey"), ldvalue.Null())
	evaluator.awaitEvaluation(t)
	tracker.RemoveFlagValueChangeListener(ch)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.False(t, broadcaster.HasListeners())
}
