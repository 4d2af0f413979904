package ldcomponents

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datasource"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datastore"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamingDataSourceBuilder(t *testing.T) {
	t.Run("InitialReconnectDelay", func(t *testing.T) {
		s := StreamingDataSource()
		assert.Equal(t, DefaultInitialReconnectDelay, s.initialReconnectDelay)

		s.InitialReconnectDelay(time.Minute)
		assert.Equal(t, time.Minute, s.initialReconnectDelay)

		s.InitialReconnectDelay(0)
		assert.Equal(t, DefaultInitialReconnectDelay, s.initialReconnectDelay)

		s.InitialReconnectDelay(-1 * time.Millisecond)
		assert.Equal(t, DefaultInitialReconnectDelay, s.initialReconnectDelay)
	})

	t.Run("Build", func(t *testing.T) {
		s := StreamingDataSource().InitialReconnectDelay(time.Hour)
		context := basicClientContext()
		context.DataSourceUpdateSink = mocks.NewMockDataSourceUpdates(
			datastore.NewInMemoryDataStore(sharedtest.NewTestLoggers()))
		ds, err := s.Build(context)
		require.NoError(t, err)
		require.NotNil(t, ds)
		defer ds.Close()

		sp := ds.(*datasource.StreamProcessor)
		assert.Equal(t, time.Hour, sp.GetInitialReconnectDelay())
	})

	t.Run("DescribeConfiguration", func(t *testing.T) {
		s := StreamingDataSource()
		expected := ldvalue.ObjectBuild().
			Set("streamingDisabled", ldvalue.Bool(false)).
			Set("customStreamURI", ldvalue.Bool(false)).
			Set("reconnectTimeMillis", ldvalue.Int(1000)).
			Set("usingRelayDaemon", ldvalue.Bool(false)).
			Build()
		assert.JSONEq(t, expected.JSONString(), s.DescribeConfiguration(basicClientContext()).JSONString())

		customContext := clientContextWithEndpoints(interfaces.ServiceEndpoints{Streaming: "http://custom"})
		assert.True(t, s.DescribeConfiguration(customContext).GetByKey("customStreamURI").BoolValue())
	})
}
