package interfaces

// BigSegmentStoreStatusProvider is an interface for querying the status of a Big Segment
// store.
//
// An implementation of this interface is returned by
// LDClient.GetBigSegmentStoreStatusProvider(). Application code should not implement this
// interface.
//
// "Big Segments" are a specific kind of segments. For more information, read the LaunchDarkly
// documentation: https://docs.launchdarkly.com/home/users/big-segments
type BigSegmentStoreStatusProvider interface {
	// GetStatus returns the current status of the store.
	//
	// If the SDK is not configured to use a Big Segment store, the returned status will have
	// Available set to false.
	GetStatus() BigSegmentStoreStatus

	// AddStatusListener subscribes for notifications of status changes. The returned channel
	// will receive a new BigSegmentStoreStatus value for any change in status.
	//
	// The listener should consume values from the channel promptly; to unsubscribe, call
	// RemoveStatusListener. If you fail to do either of those things, the SDK may be blocked
	// from sending notifications and will drop them.
	AddStatusListener() <-chan BigSegmentStoreStatus

	// RemoveStatusListener unsubscribes from notifications of status changes. The specified
	// channel must be one that was previously returned by AddStatusListener(); otherwise,
	// the method has no effect.
	RemoveStatusListener(listener <-chan BigSegmentStoreStatus)
}

// BigSegmentStoreStatus contains information about the status of a Big Segment store,
// provided by BigSegmentStoreStatusProvider.
type BigSegmentStoreStatus struct {
	// Available is true if the Big Segment store is able to respond to queries, so that the
	// SDK can evaluate whether a context is in a segment or not.
	//
	// If this property is false, the store is not able to make queries (for instance, it may
	// not have a valid database connection). In this case, the SDK will treat any reference
	// to a Big Segment as if no contexts are included in that segment. Also, the evaluation
	// reason for any flag evaluation that references a Big Segment when the store is not
	// available will have a BigSegmentsStatus of ldreason.BigSegmentsStoreError.
	Available bool

	// Stale is true if the Big Segment store is available, but has not been updated within
	// the amount of time specified by BigSegmentsConfigurationBuilder.StaleAfter(). This may
	// indicate that the LaunchDarkly Relay Proxy, which populates the store, has stopped
	// running or has become unable to receive fresh data from LaunchDarkly. Any feature flag
	// evaluations that reference a Big Segment will be using the last known data, which may
	// be out of date. Also, the evaluation reason for those evaluations will have a
	// BigSegmentsStatus of ldreason.BigSegmentsStale.
	Stale bool
}
