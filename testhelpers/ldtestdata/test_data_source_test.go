package ldtestdata

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datastore"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest/mocks"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"

	th "github.com/launchdarkly/go-test-helpers/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDataSourceTestParams struct {
	td      *TestDataSource
	updates *mocks.MockDataSourceUpdates
}

func withTestDataSource(t *testing.T, action func(p testDataSourceTestParams, ds subsystems.DataSource)) {
	p := testDataSourceTestParams{
		td: DataSource(),
		updates: mocks.NewMockDataSourceUpdates(
			datastore.NewInMemoryDataStore(sharedtest.NewTestLoggers())),
	}

	context := sharedtest.NewSimpleTestContext("sdk-key")
	context.DataSourceUpdateSink = p.updates
	ds, err := p.td.Build(context)
	require.NoError(t, err)
	defer ds.Close()

	closeWhenReady := make(chan struct{})
	ds.Start(closeWhenReady)
	th.AssertChannelClosed(t, closeWhenReady, time.Second)
	require.True(t, ds.IsInitialized())

	action(p, ds)
}

func TestTestDataSourceInitializesWithEmptyData(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		data := p.updates.DataStore.WaitForNextInit(t, time.Second)
		require.Len(t, data, 2)
		assert.Equal(t, datakinds.Features, data[0].Kind)
		assert.Len(t, data[0].Items, 0)
		assert.Equal(t, datakinds.Segments, data[1].Kind)
		assert.Len(t, data[1].Items, 0)

		p.updates.RequireStatusOf(t, interfaces.DataSourceStateValid)
	})
}

func TestTestDataSourceInitializesWithCurrentData(t *testing.T) {
	td := DataSource()
	td.Update(td.Flag("flag1"))
	td.Update(td.Flag("flag2").On(false))

	updates := mocks.NewMockDataSourceUpdates(
		datastore.NewInMemoryDataStore(sharedtest.NewTestLoggers()))
	context := sharedtest.NewSimpleTestContext("sdk-key")
	context.DataSourceUpdateSink = updates
	ds, err := td.Build(context)
	require.NoError(t, err)
	defer ds.Close()

	closeWhenReady := make(chan struct{})
	ds.Start(closeWhenReady)
	th.AssertChannelClosed(t, closeWhenReady, time.Second)

	data := updates.DataStore.WaitForNextInit(t, time.Second)
	require.Len(t, data, 2)
	assert.Equal(t, datakinds.Features, data[0].Kind)
	keys := make([]string, 0, 2)
	for _, item := range data[0].Items {
		keys = append(keys, item.Key)
	}
	assert.ElementsMatch(t, []string{"flag1", "flag2"}, keys)
}

func TestTestDataSourcePropagatesUpdates(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		_ = p.updates.DataStore.WaitForNextInit(t, time.Second)

		p.td.Update(p.td.Flag("flagkey"))
		up := p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flagkey", 1, time.Second)
		flag := up.Item.Item.(*ldmodel.FeatureFlag)
		assert.True(t, flag.On)

		p.td.Update(p.td.Flag("flagkey").On(false))
		up = p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flagkey", 2, time.Second)
		flag = up.Item.Item.(*ldmodel.FeatureFlag)
		assert.False(t, flag.On)
	})
}

func TestTestDataSourceFlagRetainsPreviousConfiguration(t *testing.T) {
	td := DataSource()
	td.Update(td.Flag("flagkey").On(false).VariationForKey("org", "orgkey", true))

	b := td.Flag("flagkey")
	flag := b.createFlag(1)
	assert.False(t, flag.On)
	require.Len(t, flag.ContextTargets, 1)
	assert.Equal(t, []string{"orgkey"}, flag.ContextTargets[0].Values)
}

func TestTestDataSourceVersionsIncrementIndependently(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		_ = p.updates.DataStore.WaitForNextInit(t, time.Second)

		p.td.Update(p.td.Flag("flag1"))
		p.td.Update(p.td.Flag("flag1"))
		p.td.Update(p.td.Flag("flag2"))

		_ = p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flag1", 1, time.Second)
		_ = p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flag1", 2, time.Second)
		_ = p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flag2", 1, time.Second)
	})
}

func TestTestDataSourceUsePreconfiguredFlag(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		_ = p.updates.DataStore.WaitForNextInit(t, time.Second)

		p.td.UsePreconfiguredFlag(ldmodel.FeatureFlag{
			Key:     "flagkey",
			Version: 1000,
			On:      true,
		})
		_ = p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flagkey", 1000, time.Second)

		// A lower or equal version in the input is adjusted so the update is not discarded.
		p.td.UsePreconfiguredFlag(ldmodel.FeatureFlag{
			Key:     "flagkey",
			Version: 1,
			On:      false,
		})
		up := p.updates.DataStore.WaitForUpsert(t, datakinds.Features, "flagkey", 1001, time.Second)
		flag := up.Item.Item.(*ldmodel.FeatureFlag)
		assert.False(t, flag.On)
	})
}

func TestTestDataSourceUsePreconfiguredSegment(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		_ = p.updates.DataStore.WaitForNextInit(t, time.Second)

		p.td.UsePreconfiguredSegment(ldmodel.Segment{
			Key:     "segmentkey",
			Version: 5,
		})
		_ = p.updates.DataStore.WaitForUpsert(t, datakinds.Segments, "segmentkey", 5, time.Second)

		p.td.UsePreconfiguredSegment(ldmodel.Segment{
			Key:     "segmentkey",
			Version: 5,
			Included: []string{"userkey"},
		})
		up := p.updates.DataStore.WaitForUpsert(t, datakinds.Segments, "segmentkey", 6, time.Second)
		segment := up.Item.Item.(*ldmodel.Segment)
		assert.Equal(t, []string{"userkey"}, segment.Included)
	})
}

func TestTestDataSourceStopsUpdatingClosedInstance(t *testing.T) {
	withTestDataSource(t, func(p testDataSourceTestParams, ds subsystems.DataSource) {
		_ = p.updates.DataStore.WaitForNextInit(t, time.Second)

		require.NoError(t, ds.Close())
		p.td.Update(p.td.Flag("flagkey"))

		// The value is still recorded in the test data for any future instances.
		assert.Contains(t, p.td.currentFlags, "flagkey")
		assert.Equal(t, ldvalue.NewOptionalInt(trueVariationForBoolean),
			p.td.currentFlags["flagkey"].Item.(*ldmodel.FeatureFlag).Fallthrough.Variation)
	})
}
