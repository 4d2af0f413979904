package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// DefaultBigSegmentsContextCacheSize is the default value for
// BigSegmentsConfigurationBuilder.ContextCacheSize.
const DefaultBigSegmentsContextCacheSize = 1000

// DefaultBigSegmentsContextCacheTime is the default value for
// BigSegmentsConfigurationBuilder.ContextCacheTime.
const DefaultBigSegmentsContextCacheTime = time.Second * 5

// DefaultBigSegmentsStatusPollInterval is the default value for
// BigSegmentsConfigurationBuilder.StatusPollInterval.
const DefaultBigSegmentsStatusPollInterval = time.Second * 5

// DefaultBigSegmentsStaleAfter is the default value for BigSegmentsConfigurationBuilder.StaleAfter.
const DefaultBigSegmentsStaleAfter = time.Minute * 2

// BigSegmentsConfigurationBuilder contains methods for configuring the SDK's Big Segments behavior.
//
// Big Segments are a specific type of segments. For more information, read the LaunchDarkly
// documentation: https://docs.launchdarkly.com/home/users/big-segments
//
// If you want to set non-default values for any of these properties, pass the builder to
// ldcomponents.BigSegments(), change its properties with the BigSegmentsConfigurationBuilder
// methods, and store it in the BigSegments field of your SDK configuration:
//
//	config := ld.Config{
//	    BigSegments: ldcomponents.BigSegments(ldredis.BigSegmentStore().URL("redis://my-redis-host")).
//	        ContextCacheSize(2000).
//	        StaleAfter(time.Second * 60),
//	}
//
// You only need to use this builder if you are using Big Segments.
type BigSegmentsConfigurationBuilder struct {
	storeFactory subsystems.ComponentConfigurer[subsystems.BigSegmentStore]
	config       bigSegmentsConfigurationImpl
}

type bigSegmentsConfigurationImpl struct {
	store              subsystems.BigSegmentStore
	contextCacheSize   int
	contextCacheTime   time.Duration
	statusPollInterval time.Duration
	staleAfter         time.Duration
}

func (c bigSegmentsConfigurationImpl) GetStore() subsystems.BigSegmentStore { return c.store }

func (c bigSegmentsConfigurationImpl) GetContextCacheSize() int { return c.contextCacheSize }

func (c bigSegmentsConfigurationImpl) GetContextCacheTime() time.Duration { return c.contextCacheTime }

func (c bigSegmentsConfigurationImpl) GetStatusPollInterval() time.Duration {
	return c.statusPollInterval
}

func (c bigSegmentsConfigurationImpl) GetStaleAfter() time.Duration { return c.staleAfter }

// BigSegments returns a configuration builder for the SDK's Big Segments feature.
//
// After configuring this object, store it in the BigSegments field of your SDK configuration. For
// example, using the Redis integration:
//
//	config := ld.Config{
//	    BigSegments: ldcomponents.BigSegments(ldredis.BigSegmentStore().URL("redis://my-redis-host")).
//	        ContextCacheSize(2000),
//	}
//
// You must always specify the storeFactory parameter, to tell the SDK what database you are using.
// Several database integrations exist for the LaunchDarkly SDK, each with its own behavior and options
// specific to that database; this is described via some implementation of
// ComponentConfigurer[BigSegmentStore]. The BigSegmentsConfigurationBuilder adds configuration
// options for aspects of SDK behavior that are independent of the database.
func BigSegments(
	storeFactory subsystems.ComponentConfigurer[subsystems.BigSegmentStore],
) *BigSegmentsConfigurationBuilder {
	return &BigSegmentsConfigurationBuilder{
		storeFactory: storeFactory,
		config: bigSegmentsConfigurationImpl{
			contextCacheSize:   DefaultBigSegmentsContextCacheSize,
			contextCacheTime:   DefaultBigSegmentsContextCacheTime,
			statusPollInterval: DefaultBigSegmentsStatusPollInterval,
			staleAfter:         DefaultBigSegmentsStaleAfter,
		},
	}
}

// ContextCacheSize sets the maximum number of contexts whose Big Segment state will be cached by the
// SDK at any given time.
//
// The default value is DefaultBigSegmentsContextCacheSize.
func (b *BigSegmentsConfigurationBuilder) ContextCacheSize(
	contextCacheSize int,
) *BigSegmentsConfigurationBuilder {
	b.config.contextCacheSize = contextCacheSize
	return b
}

// ContextCacheTime sets the maximum length of time that the Big Segment state for a context will be
// cached by the SDK.
//
// The default value is DefaultBigSegmentsContextCacheTime.
func (b *BigSegmentsConfigurationBuilder) ContextCacheTime(
	contextCacheTime time.Duration,
) *BigSegmentsConfigurationBuilder {
	b.config.contextCacheTime = contextCacheTime
	return b
}

// StatusPollInterval sets the interval at which the SDK will poll the Big Segment store to make sure
// it is available and to determine how long ago it was updated.
//
// The default value is DefaultBigSegmentsStatusPollInterval.
func (b *BigSegmentsConfigurationBuilder) StatusPollInterval(
	statusPollInterval time.Duration,
) *BigSegmentsConfigurationBuilder {
	if statusPollInterval <= 0 {
		statusPollInterval = DefaultBigSegmentsStatusPollInterval
	}
	b.config.statusPollInterval = statusPollInterval
	return b
}

// StaleAfter sets the maximum length of time between updates of the Big Segments data before the data
// is considered out of date.
//
// Normally, the LaunchDarkly Relay Proxy updates a timestamp in the Big Segment store at intervals to
// confirm that it is still in sync with the LaunchDarkly data, even if there have been no changes to the
// data. If the timestamp falls behind the current time by the amount specified in StaleAfter, the SDK
// assumes that something is not working correctly in this process and that the data may not be accurate.
//
// While in a stale state, the SDK will still continue using the last known data, but the status from
// BigSegmentStoreStatusProvider will have Stale set to true, and any flag evaluation that references a
// Big Segment will include a BigSegmentsStatus of ldreason.BigSegmentsStale in its EvaluationReason.
//
// The default value is DefaultBigSegmentsStaleAfter.
func (b *BigSegmentsConfigurationBuilder) StaleAfter(
	staleAfter time.Duration,
) *BigSegmentsConfigurationBuilder {
	b.config.staleAfter = staleAfter
	return b
}

// Build is called internally by the SDK.
func (b *BigSegmentsConfigurationBuilder) Build(
	context subsystems.ClientContext,
) (subsystems.BigSegmentsConfiguration, error) {
	config := b.config
	if b.storeFactory != nil {
		store, err := b.storeFactory.Build(context)
		if err != nil {
			return nil, err
		}
		config.store = store
	}
	return config, nil
}
