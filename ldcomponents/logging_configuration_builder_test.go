package ldcomponents

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingConfigurationBuilderDefaults(t *testing.T) {
	c, err := Logging().Build(basicClientContext())
	require.NoError(t, err)
	assert.Equal(t, DefaultLogDataSourceOutageAsErrorAfter, c.LogDataSourceOutageAsErrorAfter)
	assert.False(t, c.LogEvaluationErrors)
	assert.False(t, c.LogContextKeyInErrors)
}

func TestLoggingConfigurationBuilderSetters(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	c, err := Logging().
		Loggers(mockLog.Loggers).
		LogDataSourceOutageAsErrorAfter(time.Hour).
		LogEvaluationErrors(true).
		LogContextKeyInErrors(true).
		Build(basicClientContext())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, c.LogDataSourceOutageAsErrorAfter)
	assert.True(t, c.LogEvaluationErrors)
	assert.True(t, c.LogContextKeyInErrors)

	c.Loggers.Info("hello")
	assert.Equal(t, []string{"hello"}, mockLog.GetOutput(ldlog.Info))
}

func TestLoggingConfigurationBuilderMinLevel(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	c, err := Logging().Loggers(mockLog.Loggers).MinLevel(ldlog.Error).Build(basicClientContext())
	require.NoError(t, err)

	c.Loggers.Info("suppressed")
	c.Loggers.Error("shown")
	assert.Len(t, mockLog.GetOutput(ldlog.Info), 0)
	assert.Equal(t, []string{"shown"}, mockLog.GetOutput(ldlog.Error))
}

func TestNoLogging(t *testing.T) {
	c, err := NoLogging().Build(basicClientContext())
	require.NoError(t, err)
	assert.Equal(t, ldlog.NewDisabledLoggers(), c.Loggers)
}
