package ldcomponents

import (
	"errors"
	"testing"
	"time"

	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest/mocks"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bigSegmentStoreFactoryFn func(subsystems.ClientContext) (subsystems.BigSegmentStore, error)

func (f bigSegmentStoreFactoryFn) Build(context subsystems.ClientContext) (subsystems.BigSegmentStore, error) {
	return f(context)
}

func singleBigSegmentStoreFactory(store subsystems.BigSegmentStore) bigSegmentStoreFactoryFn {
	return func(subsystems.ClientContext) (subsystems.BigSegmentStore, error) { return store, nil }
}

func TestBigSegmentsConfigurationBuilderDefaults(t *testing.T) {
	store := mocks.NewMockBigSegmentStore()
	config, err := BigSegments(singleBigSegmentStoreFactory(store)).Build(basicClientContext())
	require.NoError(t, err)

	assert.Equal(t, store, config.GetStore())
	assert.Equal(t, DefaultBigSegmentsContextCacheSize, config.GetContextCacheSize())
	assert.Equal(t, DefaultBigSegmentsContextCacheTime, config.GetContextCacheTime())
	assert.Equal(t, DefaultBigSegmentsStatusPollInterval, config.GetStatusPollInterval())
	assert.Equal(t, DefaultBigSegmentsStaleAfter, config.GetStaleAfter())
}

func TestBigSegmentsConfigurationBuilderSetters(t *testing.T) {
	store := mocks.NewMockBigSegmentStore()
	config, err := BigSegments(singleBigSegmentStoreFactory(store)).
		ContextCacheSize(999).
		ContextCacheTime(time.Second * 888).
		StatusPollInterval(time.Second * 777).
		StaleAfter(time.Second * 666).
		Build(basicClientContext())
	require.NoError(t, err)

	assert.Equal(t, 999, config.GetContextCacheSize())
	assert.Equal(t, time.Second*888, config.GetContextCacheTime())
	assert.Equal(t, time.Second*777, config.GetStatusPollInterval())
	assert.Equal(t, time.Second*666, config.GetStaleAfter())
}

func TestBigSegmentsConfigurationBuilderRejectsNonPositivePollInterval(t *testing.T) {
	store := mocks.NewMockBigSegmentStore()
	config, err := BigSegments(singleBigSegmentStoreFactory(store)).
		StatusPollInterval(-1 * time.Second).
		Build(basicClientContext())
	require.NoError(t, err)

	assert.Equal(t, DefaultBigSegmentsStatusPollInterval, config.GetStatusPollInterval())
}

func TestBigSegmentsConfigurationBuilderStoreError(t *testing.T) {
	fakeError := errors.New("sorry")
	factory := bigSegmentStoreFactoryFn(func(subsystems.ClientContext) (subsystems.BigSegmentStore, error) {
		return nil, fakeError
	})
	config, err := BigSegments(factory).Build(basicClientContext())
	assert.Equal(t, fakeError, err)
	assert.Nil(t, config)
}
