package ldclient

import (
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/ldevents"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// Config exposes advanced configuration options for LDClient.
//
// All of these settings are optional, so an empty Config struct is always valid. See the
// description of each field for the default behavior if it is not set.
type Config struct {
	// Sets the SDK's behavior in regard to Big Segments.
	//
	// "Big Segments" are a specific type of segments. For more information, read the
	// LaunchDarkly documentation: https://docs.launchdarkly.com/home/users/big-segments
	//
	// If nil, there is no implementation and referencing a Big Segment in a feature flag will
	// behave as follows: the flag will behave as if the context was not included in the
	// segment, and the evaluation reason will indicate a BigSegmentsStatus of
	// ldreason.BigSegmentsNotConfigured.
	//
	//     config := ld.Config{
	//         BigSegments: ldcomponents.BigSegments(ldredis.BigSegmentStore()),
	//     }
	BigSegments subsystems.ComponentConfigurer[subsystems.BigSegmentsConfiguration]

	// Sets the implementation of DataSource for receiving feature flag updates.
	//
	// If nil, the default is ldcomponents.StreamingDataSource(); see that method for an
	// explanation of how to further configure streaming behavior. Other options include
	// ldcomponents.PollingDataSource(), ldcomponents.ExternalUpdatesOnly(), or a custom
	// implementation such as ldtestdata.DataSource() for testing.
	//
	// If Offline is set to true, then DataSource is ignored.
	//
	//     // using streaming mode and setting streaming options
	//     config := ld.Config{
	//         DataSource: ldcomponents.StreamingDataSource().InitialReconnectDelay(time.Second),
	//     }
	//
	//     // using polling mode and setting polling options
	//     config := ld.Config{
	//         DataSource: ldcomponents.PollingDataSource().PollInterval(time.Minute),
	//     }
	//
	//     // specifying that data will be updated by an external process (such as the Relay Proxy)
	//     config := ld.Config{
	//         DataSource: ldcomponents.ExternalUpdatesOnly(),
	//     }
	DataSource subsystems.ComponentConfigurer[subsystems.DataSource]

	// Sets the implementation of DataStore for holding feature flags and related data received
	// from LaunchDarkly.
	//
	// If nil, the default is ldcomponents.InMemoryDataStore(). Use
	// ldcomponents.PersistentDataStore() to wrap a database integration.
	DataStore subsystems.ComponentConfigurer[subsystems.DataStore]

	// Set to true to opt out of sending diagnostic events.
	//
	// Unless DiagnosticOptOut is set to true, the client will send some diagnostics data to the
	// LaunchDarkly servers in order to assist in the development of future SDK improvements.
	// These diagnostics consist of an initial payload containing some details of the SDK in use,
	// the SDK's configuration, and the platform the SDK is being run on, as well as payloads
	// sent periodically with information on irregular occurrences such as dropped events.
	DiagnosticOptOut bool

	// Sets the SDK's behavior regarding analytics events.
	//
	// If nil, the default is ldcomponents.SendEvents(); see that method for an explanation of
	// how to further configure event delivery. You may also turn off event delivery using
	// ldcomponents.NoEvents().
	//
	// If Offline is set to true, then event delivery is always off and Events is ignored.
	Events subsystems.ComponentConfigurer[ldevents.EventProcessor]

	// Provides configuration of the SDK's network connection behavior.
	//
	// If nil, the default is ldcomponents.HTTPConfiguration(); see that method for an
	// explanation of how to further configure these options.
	//
	// If Offline is set to true, then HTTP is ignored.
	HTTP subsystems.ComponentConfigurer[subsystems.HTTPConfiguration]

	// Provides configuration of the SDK's logging behavior.
	//
	// If nil, the default is ldcomponents.Logging(); see that method for an explanation of how
	// to further configure logging behavior. The other option is ldcomponents.NoLogging().
	Logging subsystems.ComponentConfigurer[subsystems.LoggingConfiguration]

	// Sets whether this client is offline. An offline client will not make any network
	// connections to LaunchDarkly, and will return default values for all feature flags.
	Offline bool

	// Provides custom base URIs for LaunchDarkly services, if you are connecting to a LaunchDarkly
	// Relay Proxy instance, a private LaunchDarkly instance, or a test fixture.
	//
	// If any of the fields are left empty, the SDK uses the standard production service URI.
	// The most common use case is to set all of them at once with
	// ldcomponents.RelayProxyEndpoints().
	ServiceEndpoints interfaces.ServiceEndpoints

	// Provides metadata about the application where the LaunchDarkly SDK is running, which is
	// sent to LaunchDarkly in HTTP headers so it can be shown in the dashboard.
	ApplicationInfo interfaces.ApplicationInfo
}
