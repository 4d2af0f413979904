package sharedtest

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// TestLoggingConfig returns a LoggingConfiguration corresponding to NewTestLoggers().
func TestLoggingConfig() subsystems.LoggingConfiguration {
	return subsystems.LoggingConfiguration{Loggers: NewTestLoggers()}
}

// TestLoggingConfigWithLoggers returns a LoggingConfiguration that uses the specified loggers.
func TestLoggingConfigWithLoggers(loggers ldlog.Loggers) subsystems.LoggingConfiguration {
	return subsystems.LoggingConfiguration{Loggers: loggers}
}

// NewTestLoggers returns a Loggers instance that captures output, for tests that do not need
// to inspect it. Tests that do need to inspect the output should use ldlogtest.MockLog
// directly so they can dump it on failure.
func NewTestLoggers() ldlog.Loggers {
	return ldlogtest.NewMockLog().Loggers
}

// NewSimpleTestContext returns a basic implementation of subsystems.ClientContext for use in
// test code.
func NewSimpleTestContext(sdkKey string) subsystems.BasicClientContext {
	return subsystems.BasicClientContext{
		SDKKey:  sdkKey,
		Logging: TestLoggingConfig(),
	}
}

// NewTestContext returns a ClientContext implementation for test code, with the specified
// update sinks attached.
func NewTestContext(
	sdkKey string,
	dataSourceUpdateSink subsystems.DataSourceUpdateSink,
	dataStoreUpdateSink subsystems.DataStoreUpdateSink,
) subsystems.BasicClientContext {
	ret := NewSimpleTestContext(sdkKey)
	ret.DataSourceUpdateSink = dataSourceUpdateSink
	ret.DataStoreUpdateSink = dataStoreUpdateSink
	return ret
}
