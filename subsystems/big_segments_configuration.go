package subsystems

import "time"

// BigSegmentsConfiguration encapsulates the SDK's configuration with regard to Big Segments.
//
// "Big Segments" are a specific kind of segments. For more information, read the LaunchDarkly
// documentation: https://docs.launchdarkly.com/home/users/big-segments
//
// See ldcomponents.BigSegmentsConfigurationBuilder for more details on these properties.
type BigSegmentsConfiguration interface {
	// GetStore returns the data store instance that is used for Big Segments data.
	GetStore() BigSegmentStore

	// GetContextCacheSize returns the value set by
	// BigSegmentsConfigurationBuilder.ContextCacheSize.
	GetContextCacheSize() int

	// GetContextCacheTime returns the value set by
	// BigSegmentsConfigurationBuilder.ContextCacheTime.
	GetContextCacheTime() time.Duration

	// GetStatusPollInterval returns the value set by
	// BigSegmentsConfigurationBuilder.StatusPollInterval.
	GetStatusPollInterval() time.Duration

	// GetStaleAfter returns the value set by BigSegmentsConfigurationBuilder.StaleAfter.
	GetStaleAfter() time.Duration
}
