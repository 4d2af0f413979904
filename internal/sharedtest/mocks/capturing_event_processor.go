package mocks

import (
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk/v7/ldevents"
)

// CapturingEventProcessor is a test implementation of EventProcessor that accumulates all
// events it receives.
type CapturingEventProcessor struct {
	Events []ldevents.Event
	lock   sync.Mutex
}

// SendEvent is a standard EventProcessor method.
func (c *CapturingEventProcessor) SendEvent(e ldevents.Event) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.Events = append(c.Events, e)
}

// Flush is a standard EventProcessor method; in this implementation it does nothing.
func (c *CapturingEventProcessor) Flush() {}

// FlushBlocking is a standard EventProcessor method; in this implementation it does nothing.
func (c *CapturingEventProcessor) FlushBlocking(time.Duration) bool { return true }

// Close is a standard EventProcessor method; in this implementation it does nothing.
func (c *CapturingEventProcessor) Close() error { return nil }

// CapturedEvents returns a copy of the events received so far.
func (c *CapturingEventProcessor) CapturedEvents() []ldevents.Event {
	c.lock.Lock()
	defer c.lock.Unlock()
	ret := make([]ldevents.Event, len(c.Events))
	copy(ret, c.Events)
	return ret
}
