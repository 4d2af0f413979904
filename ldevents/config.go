package ldevents

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
)

// Default values for EventsConfiguration properties. These are the values used if the
// corresponding field is zero.
const (
	// DefaultFlushInterval is the default value for EventsConfiguration.FlushInterval.
	DefaultFlushInterval = 5 * time.Second
	// DefaultContextKeysFlushInterval is the default value for
	// EventsConfiguration.ContextKeysFlushInterval.
	DefaultContextKeysFlushInterval = 5 * time.Minute
	// DefaultDiagnosticRecordingInterval is the default value for
	// EventsConfiguration.DiagnosticRecordingInterval.
	DefaultDiagnosticRecordingInterval = 15 * time.Minute
	// MinimumDiagnosticRecordingInterval is the minimum value for
	// EventsConfiguration.DiagnosticRecordingInterval.
	MinimumDiagnosticRecordingInterval = 60 * time.Second
)

// EventsConfiguration contains options affecting the behavior of the events engine.
type EventsConfiguration struct {
	// Sets whether or not all context attributes (other than the key) should be hidden from
	// LaunchDarkly. If this is true, all attribute values will be private, not just the
	// attributes specified in PrivateAttributes.
	AllAttributesPrivate bool
	// The capacity of the events buffer. The client buffers up to this many events in memory
	// before flushing. If the capacity is exceeded before the buffer is flushed, events will
	// be discarded.
	Capacity int
	// The interval at which periodic diagnostic events will be sent, if DiagnosticsManager
	// is non-nil.
	DiagnosticRecordingInterval time.Duration
	// An object that computes the content of diagnostic events, or nil if diagnostic events
	// are disabled.
	DiagnosticsManager *DiagnosticsManager
	// The implementation of event delivery to use.
	EventSender EventSender
	// The time between flushes of the event buffer. Decreasing the flush interval means that
	// the event buffer is less likely to reach capacity.
	FlushInterval time.Duration
	// The destination for log output.
	Loggers ldlog.Loggers
	// True if the SDK should log a context's key when errors occur in processing it.
	LogContextKeyInErrors bool
	// Attribute references to mark as private for all contexts.
	PrivateAttributes []ldattr.Ref
	// The number of context keys that the event processor can remember at any one time, so
	// that duplicate context details will not be sent in analytics events.
	ContextKeysCapacity int
	// The interval at which the event processor will reset its set of known context keys.
	ContextKeysFlushInterval time.Duration
	// currentTimeProvider is used in testing to instrument the current time.
	currentTimeProvider func() ldtime.UnixMillisecondTime
	// forceDiagnosticRecordingInterval is used in testing to set a shorter interval than the
	// allowed minimum.
	forceDiagnosticRecordingInterval time.Duration
}
