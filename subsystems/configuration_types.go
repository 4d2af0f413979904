package subsystems

import (
	"net/http"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// HTTPConfiguration encapsulates top-level HTTP configuration that applies to all SDK
// components.
//
// See ldcomponents.HTTPConfigurationBuilder for more details on these properties.
type HTTPConfiguration struct {
	// DefaultHeaders are the headers that should be included in all HTTP requests from SDK
	// components to LaunchDarkly services, based on the current SDK configuration. This
	// includes Authorization and User-Agent.
	DefaultHeaders http.Header

	// CreateHTTPClient is a function that returns a new HTTP client instance based on the
	// SDK configuration.
	//
	// The SDK will ensure that this field is non-nil before passing an HTTPConfiguration to
	// any component.
	CreateHTTPClient func() *http.Client
}

// LoggingConfiguration encapsulates the SDK's general logging configuration.
//
// See ldcomponents.LoggingConfigurationBuilder for more details on these properties.
type LoggingConfiguration struct {
	// Loggers is the configured ldlog.Loggers instance.
	Loggers ldlog.Loggers

	// LogDataSourceOutageAsErrorAfter is the time threshold, if any, after which the SDK
	// will log a data source outage at Error level instead of Warn level. Zero means no
	// escalation.
	LogDataSourceOutageAsErrorAfter time.Duration

	// LogEvaluationErrors is true if evaluation errors should be logged.
	LogEvaluationErrors bool

	// LogContextKeyInErrors is true if context keys may be included in log messages.
	LogContextKeyInErrors bool
}
