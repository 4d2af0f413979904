// Package ldclient is the main package for the LaunchDarkly SDK.
//
// This package contains the types and methods for the SDK client (LDClient) and its overall
// configuration. The most commonly used other packages are "ldcomponents" (configuration
// builders) and "interfaces" (status monitoring APIs).
//
// Other types that are commonly used with the SDK, such as evaluation contexts and flag
// values, are in the go-sdk-common repository
// (https://github.com/launchdarkly/go-sdk-common).
package ldclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/evaluation"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces/flagstate"
	"github.com/launchdarkly/go-server-sdk/v7/internal"
	"github.com/launchdarkly/go-server-sdk/v7/internal/bigsegments"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datasource"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datastore"
	"github.com/launchdarkly/go-server-sdk/v7/ldcomponents"
	"github.com/launchdarkly/go-server-sdk/v7/ldevents"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoreimpl"
)

// LDClient is the LaunchDarkly client. Client instances are thread-safe. Applications should
// instantiate a single instance for the lifetime of their application.
type LDClient struct {
	sdkKey                        string
	loggers                       ldlog.Loggers
	eventProcessor                ldevents.EventProcessor
	dataSource                    subsystems.DataSource
	store                         subsystems.DataStore
	evaluator                     evaluation.Evaluator
	dataSourceStatusBroadcaster   *internal.Broadcaster[interfaces.DataSourceStatus]
	dataSourceStatusProvider      interfaces.DataSourceStatusProvider
	dataStoreStatusBroadcaster    *internal.Broadcaster[interfaces.DataStoreStatus]
	dataStoreStatusProvider       interfaces.DataStoreStatusProvider
	flagChangeEventBroadcaster    *internal.Broadcaster[interfaces.FlagChangeEvent]
	flagTracker                   interfaces.FlagTracker
	bigSegmentStoreManager        *bigsegments.BigSegmentStoreManager
	bigSegmentStoreStatusProvider interfaces.BigSegmentStoreStatusProvider
	eventsDefault                 eventsScope
	eventsWithReasons             eventsScope
	logEvaluationErrors           bool
	offline                       bool
}

// Initialization errors
var (
	ErrInitializationTimeout = errors.New("timeout encountered waiting for LaunchDarkly client initialization")
	ErrInitializationFailed  = errors.New("LaunchDarkly client initialization failed")
	ErrClientNotInitialized  = errors.New("feature flag evaluation called before LaunchDarkly client initialization completed") //nolint:lll
)

// MakeClient creates a new client instance that connects to LaunchDarkly with the default
// configuration.
//
// For advanced configuration options, use MakeCustomClient.
//
// Unless it is configured to be offline with Config.Offline or ldcomponents.ExternalUpdatesOnly(),
// the client will begin attempting to connect to LaunchDarkly as soon as you call this
// constructor. The constructor will return when it successfully connects, or when the timeout
// set by the waitFor parameter expires, whichever comes first. If it has not succeeded in
// connecting when the timeout elapses, you will receive the client in an uninitialized state
// where feature flags will return default values; it will still continue trying to connect in
// the background. You can detect whether initialization has succeeded by calling Initialized().
//
// If you prefer to have the constructor return immediately, and then wait for initialization
// to finish at some other point, you can use GetDataSourceStatusProvider() as follows:
//
//	// create the client but do not wait
//	client = ld.MakeClient(sdkKey, 0)
//
//	// later, possibly on another goroutine:
//	inited := client.GetDataSourceStatusProvider().WaitFor(
//	    interfaces.DataSourceStateValid, 10*time.Second)
//	if !inited {
//	    // do whatever is appropriate if initialization has timed out
//	}
func MakeClient(sdkKey string, waitFor time.Duration) (*LDClient, error) {
	// COVERAGE: this constructor cannot be called in unit tests because it uses the default base
	// URI and will attempt to make a live connection to LaunchDarkly.
	return MakeCustomClient(sdkKey, Config{}, waitFor)
}

// MakeCustomClient creates a new client instance that connects to LaunchDarkly with a custom
// configuration.
//
// The config parameter allows customization of all SDK properties; some of these are
// represented directly as fields in Config, while others are set by builder methods on a more
// specific configuration object. For instance, to use polling mode instead of streaming, with
// a custom polling interval:
//
//	config := ld.Config{
//	    DataSource: ldcomponents.PollingDataSource().PollInterval(45 * time.Minute),
//	}
//	client, err := ld.MakeCustomClient(sdkKey, config, 5*time.Second)
//
// The waitFor parameter has the same meaning as in MakeClient.
func MakeCustomClient(sdkKey string, config Config, waitFor time.Duration) (*LDClient, error) {
	closeWhenReady := make(chan struct{})

	eventProcessorFactory := getEventProcessorFactory(config)

	clientContext, err := newClientContextFromConfig(sdkKey, config)
	if err != nil {
		return nil, err
	}

	// Do not create a diagnostics manager if diagnostics are disabled, or if we're not using the
	// standard event processor.
	if !config.DiagnosticOptOut {
		if reflect.TypeOf(eventProcessorFactory) == reflect.TypeOf(ldcomponents.SendEvents()) {
			clientContext.DiagnosticsManager = createDiagnosticsManager(clientContext, sdkKey, config, waitFor)
		}
	}

	loggers := clientContext.GetLogging().Loggers
	loggers.Infof("Starting LaunchDarkly client %s", Version)

	client := LDClient{
		sdkKey:              sdkKey,
		loggers:             loggers,
		logEvaluationErrors: clientContext.GetLogging().LogEvaluationErrors,
		offline:             config.Offline,
	}

	client.dataStoreStatusBroadcaster = internal.NewBroadcaster[interfaces.DataStoreStatus]()
	dataStoreUpdateSink := datastore.NewDataStoreUpdateSinkImpl(client.dataStoreStatusBroadcaster)
	storeFactory := config.DataStore
	if storeFactory == nil {
		storeFactory = ldcomponents.InMemoryDataStore()
	}
	clientContextWithDataStoreUpdateSink := *clientContext
	clientContextWithDataStoreUpdateSink.BasicClientContext.DataStoreUpdateSink = dataStoreUpdateSink
	store, err := storeFactory.Build(&clientContextWithDataStoreUpdateSink)
	if err != nil {
		return nil, err
	}
	client.store = store

	bigSegmentProvider, err := client.initBigSegments(config, clientContext)
	if err != nil {
		return nil, err
	}

	dataProvider := ldstoreimpl.NewDataStoreEvaluatorDataProvider(store, loggers)
	evalOptions := []evaluation.EvaluatorOption{
		evaluation.EvaluatorOptionErrorLogger(loggers.ForLevel(ldlog.Error)),
	}
	if bigSegmentProvider != nil {
		evalOptions = append(evalOptions, evaluation.EvaluatorOptionBigSegmentProvider(bigSegmentProvider))
	}
	client.evaluator = evaluation.NewEvaluatorWithOptions(dataProvider, evalOptions...)
	client.dataStoreStatusProvider = datastore.NewDataStoreStatusProviderImpl(store, dataStoreUpdateSink)

	client.dataSourceStatusBroadcaster = internal.NewBroadcaster[interfaces.DataSourceStatus]()
	client.flagChangeEventBroadcaster = internal.NewBroadcaster[interfaces.FlagChangeEvent]()
	dataSourceUpdateSink := datasource.NewDataSourceUpdateSinkImpl(
		store,
		client.dataStoreStatusProvider,
		client.dataSourceStatusBroadcaster,
		client.flagChangeEventBroadcaster,
		clientContext.GetLogging().LogDataSourceOutageAsErrorAfter,
		loggers,
	)

	client.eventProcessor, err = eventProcessorFactory.Build(clientContext)
	if err != nil {
		return nil, err
	}
	if isNullEventProcessorFactory(eventProcessorFactory) {
		client.eventsDefault = newDisabledEventsScope()
		client.eventsWithReasons = newDisabledEventsScope()
	} else {
		client.eventsDefault = newEventsScope(&client, false)
		client.eventsWithReasons = newEventsScope(&client, true)
	}

	dataSource, err := createDataSource(config, clientContext, dataSourceUpdateSink)
	client.dataSource = dataSource
	if err != nil {
		return nil, err
	}
	client.dataSourceStatusProvider = datasource.NewDataSourceStatusProviderImpl(
		client.dataSourceStatusBroadcaster,
		dataSourceUpdateSink,
	)

	client.flagTracker = internal.NewFlagTrackerImpl(
		client.flagChangeEventBroadcaster,
		func(flagKey string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
			value, _ := client.JSONVariation(flagKey, context, defaultValue)
			return value
		},
	)

	client.dataSource.Start(closeWhenReady)
	if waitFor > 0 && client.dataSource != datasource.NewNullDataSource() {
		loggers.Infof("Waiting up to %d milliseconds for LaunchDarkly client to start...",
			waitFor/time.Millisecond)
		timeout := time.After(waitFor)
		for {
			select {
			case <-closeWhenReady:
				if !client.dataSource.IsInitialized() {
					loggers.Warn("LaunchDarkly client initialization failed")
					return &client, ErrInitializationFailed
				}

				loggers.Info("Successfully initialized LaunchDarkly client!")
				return &client, nil
			case <-timeout:
				loggers.Warn("Timeout encountered waiting for LaunchDarkly client initialization")
				go func() { <-closeWhenReady }() // Don't block the DataSource when not waiting
				return &client, ErrInitializationTimeout
			}
		}
	}
	go func() { <-closeWhenReady }() // Don't block the DataSource when not waiting
	return &client, nil
}

func (client *LDClient) initBigSegments(
	config Config,
	clientContext *internal.ClientContextImpl,
) (evaluation.BigSegmentProvider, error) {
	if config.BigSegments == nil {
		client.bigSegmentStoreStatusProvider = bigsegments.NewBigSegmentStoreStatusProviderImpl(nil)
		return nil, nil
	}
	bsConfig, err := config.BigSegments.Build(clientContext)
	if err != nil {
		return nil, err
	}
	store := bsConfig.GetStore()
	if store == nil {
		client.bigSegmentStoreStatusProvider = bigsegments.NewBigSegmentStoreStatusProviderImpl(nil)
		return nil, nil
	}
	manager := bigsegments.NewBigSegmentStoreManager(
		store,
		bsConfig.GetStatusPollInterval(),
		bsConfig.GetStaleAfter(),
		bsConfig.GetContextCacheSize(),
		bsConfig.GetContextCacheTime(),
		client.loggers,
	)
	client.bigSegmentStoreManager = manager
	client.bigSegmentStoreStatusProvider = bigsegments.NewBigSegmentStoreStatusProviderImpl(manager)
	return bigsegments.NewBigSegmentProvider(manager), nil
}

func createDataSource(
	config Config,
	context *internal.ClientContextImpl,
	dataSourceUpdateSink subsystems.DataSourceUpdateSink,
) (subsystems.DataSource, error) {
	if config.Offline {
		context.GetLogging().Loggers.Info("Starting LaunchDarkly client in offline mode")
		dataSourceUpdateSink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		return datasource.NewNullDataSource(), nil
	}
	factory := config.DataSource
	if factory == nil {
		// COVERAGE: can't cause this condition in unit tests because it would try to connect to
		// production LD
		factory = ldcomponents.StreamingDataSource()
	}
	contextCopy := *context
	contextCopy.BasicClientContext.DataSourceUpdateSink = dataSourceUpdateSink
	return factory.Build(&contextCopy)
}

// Identify reports details about an evaluation context.
//
// This method simply creates an analytics event containing the context properties, to
// that LaunchDarkly will know about that context if it does not already. Evaluating a
// flag, using the Variation methods, also sends the context information to LaunchDarkly.
//
// The method returns an error if the context is invalid (that is, its Err() method
// returns a non-nil error); no event is sent in that case.
func (client *LDClient) Identify(context ldcontext.Context) error {
	if client.eventsDefault.disabled {
		return nil
	}
	if err := context.Err(); err != nil {
		client.loggers.Warnf("Identify called with invalid context: %s", err)
		return err
	}
	evt := client.eventsDefault.factory.NewIdentifyEvent(ldevents.Context(context))
	client.eventProcessor.SendEvent(evt)
	return nil
}

// TrackEvent reports an event associated with an evaluation context.
//
// The eventName parameter is defined by the application and will be shown in analytics
// reports; it normally corresponds to the event name of a metric that you have created through
// the LaunchDarkly dashboard. If you want to associate additional data with this event, use
// TrackData or TrackMetric.
func (client *LDClient) TrackEvent(eventName string, context ldcontext.Context) error {
	return client.TrackData(eventName, context, ldvalue.Null())
}

// TrackData reports an event associated with an evaluation context, and associates it with
// custom data.
//
// The eventName parameter is defined by the application and will be shown in analytics
// reports; it normally corresponds to the event name of a metric that you have created through
// the LaunchDarkly dashboard.
//
// The data parameter is a value of any JSON type, represented with the ldvalue.Value type,
// that will be sent with the event. If no such value is needed, use ldvalue.Null() (or call
// TrackEvent instead). To send a numeric value for experimentation, use TrackMetric.
func (client *LDClient) TrackData(eventName string, context ldcontext.Context, data ldvalue.Value) error {
	if client.eventsDefault.disabled {
		return nil
	}
	if err := context.Err(); err != nil {
		client.loggers.Warnf("Track called with invalid context: %s", err)
		return err
	}
	client.eventProcessor.SendEvent(
		client.eventsDefault.factory.NewCustomEvent(
			eventName,
			ldevents.Context(context),
			data,
			false,
			0,
		))
	return nil
}

// TrackMetric reports an event associated with an evaluation context, and associates it with a
// numeric value. This value is used by the LaunchDarkly experimentation feature in numeric
// custom metrics, and will also be returned as part of the custom event for Data Export.
//
// The eventName parameter is defined by the application and will be shown in analytics
// reports; it normally corresponds to the event name of a metric that you have created through
// the LaunchDarkly dashboard.
//
// The data parameter is a value of any JSON type, represented with the ldvalue.Value type,
// that will be sent with the event. If no such value is needed, use ldvalue.Null().
func (client *LDClient) TrackMetric(
	eventName string,
	context ldcontext.Context,
	metricValue float64,
	data ldvalue.Value,
) error {
	if client.eventsDefault.disabled {
		return nil
	}
	if err := context.Err(); err != nil {
		client.loggers.Warnf("TrackMetric called with invalid context: %s", err)
		return err
	}
	client.eventProcessor.SendEvent(
		client.eventsDefault.factory.NewCustomEvent(
			eventName,
			ldevents.Context(context),
			data,
			true,
			metricValue,
		))
	return nil
}

// IsOffline returns whether the LaunchDarkly client is in offline mode.
func (client *LDClient) IsOffline() bool {
	return client.offline
}

// SecureModeHash generates the secure mode hash value for an evaluation context.
//
// This is used with the LaunchDarkly JavaScript SDK's secure mode; see
// https://docs.launchdarkly.com/sdk/features/secure-mode
func (client *LDClient) SecureModeHash(context ldcontext.Context) string {
	key := []byte(client.sdkKey)
	h := hmac.New(sha256.New, key)
	_, _ = h.Write([]byte(context.FullyQualifiedKey()))
	return hex.EncodeToString(h.Sum(nil))
}

// Initialized returns whether the LaunchDarkly client is initialized.
func (client *LDClient) Initialized() bool {
	return client.dataSource.IsInitialized()
}

// Close shuts down the LaunchDarkly client. After calling this, the LaunchDarkly client should
// no longer be used. The method will block until all pending analytics events (if any) have
// been sent.
func (client *LDClient) Close() error {
	client.loggers.Info("Closing LaunchDarkly client")
	_ = client.eventProcessor.Close()
	_ = client.dataSource.Close()
	_ = client.store.Close()
	if client.bigSegmentStoreManager != nil {
		client.bigSegmentStoreManager.Close()
	}
	client.dataSourceStatusBroadcaster.Close()
	client.dataStoreStatusBroadcaster.Close()
	client.flagChangeEventBroadcaster.Close()
	return nil
}

// Flush tells the client that all pending analytics events (if any) should be delivered as
// soon as possible. This flush is asynchronous, so this method will return before it is
// complete. To wait for the flush to complete, use FlushAndWait instead (or, if you are done
// with the SDK, Close).
//
// For more information, see: https://docs.launchdarkly.com/sdk/features/flush#go
func (client *LDClient) Flush() {
	client.eventProcessor.Flush()
}

// FlushAndWait tells the client to deliver any pending analytics events synchronously now.
//
// Unlike Flush, this method waits for event delivery to finish. The timeout parameter, if
// greater than zero, specifies the maximum amount of time to wait. If the timeout elapses
// before delivery is finished, the method returns early and returns false; in this case, the
// SDK may still continue trying to deliver the events in the background.
//
// If the timeout is zero or negative, the method waits as long as necessary to deliver the
// events. However, the SDK does not retry event delivery indefinitely; currently, any network
// error or server error will cause the SDK to wait one second and retry one time, after which
// the events will be discarded so that the SDK will not keep consuming more memory for events
// indefinitely.
//
// The method returns true if the events were successfully delivered, otherwise false.
func (client *LDClient) FlushAndWait(timeout time.Duration) bool {
	return client.eventProcessor.FlushBlocking(timeout)
}

// AllFlagsState returns an object that encapsulates the state of all feature flags for a given
// evaluation context, including the flag values and also metadata that can be used on the
// front end.
//
// The most common use case for this method is to bootstrap a set of client-side feature flags
// from a back-end service.
//
// You may pass any combination of flagstate.OptionClientSideOnly(),
// flagstate.OptionWithReasons(), and flagstate.OptionDetailsOnlyForTrackedFlags() as optional
// parameters to control what data is included.
//
// This method does not send analytics events back to LaunchDarkly.
func (client *LDClient) AllFlagsState(context ldcontext.Context, options ...flagstate.Option) flagstate.AllFlags {
	valid := true
	if client.IsOffline() {
		client.loggers.Warn("Called AllFlagsState in offline mode. Returning empty state")
		valid = false
	} else if err := context.Err(); err != nil {
		client.loggers.Warnf("Called AllFlagsState with invalid context: %s", err)
		valid = false
	} else if !client.Initialized() {
		if client.store.IsInitialized() {
			client.loggers.Warn("Called AllFlagsState before client initialization; using last known values from data store")
		} else {
			client.loggers.Warn("Called AllFlagsState before client initialization. Data store not available; returning empty state") //nolint:lll
			valid = false
		}
	}

	if !valid {
		return flagstate.AllFlags{}
	}

	items, err := client.store.GetAll(datakinds.Features)
	if err != nil {
		client.loggers.Warn("Unable to fetch flags from data store. Returning empty state. Error: " + err.Error())
		return flagstate.AllFlags{}
	}

	clientSideOnly := false
	for _, o := range options {
		if o == flagstate.OptionClientSideOnly() {
			clientSideOnly = true
			break
		}
	}

	state := flagstate.NewAllFlagsBuilder(options...)
	for _, item := range items {
		if item.Item.Item == nil {
			continue
		}
		if flag, ok := item.Item.Item.(*ldmodel.FeatureFlag); ok {
			if clientSideOnly && !flag.ClientSideAvailability.UsingEnvironmentID {
				continue
			}

			result := client.evaluator.Evaluate(flag, context, nil)

			state.AddFlag(flag.Key, flagstate.FlagState{
				Value:                result.Detail.Value,
				Variation:            result.Detail.VariationIndex,
				Version:              flag.Version,
				Reason:               result.Detail.Reason,
				TrackEvents:          flag.TrackEvents || result.IsExperiment,
				TrackReason:          result.IsExperiment,
				DebugEventsUntilDate: flag.DebugEventsUntilDate,
			})
		}
	}

	return state.Build()
}

// BoolVariation returns the value of a boolean feature flag for a given evaluation context.
//
// Returns defaultVal if there is an error, if the flag doesn't exist, or if the feature is
// turned off and has no off variation.
//
// For more information, see: https://docs.launchdarkly.com/sdk/features/evaluating#go
func (client *LDClient) BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error) {
	detail, err := client.variation(key, context, ldvalue.Bool(defaultVal), true, false)
	return detail.Value.BoolValue(), err
}

// BoolVariationDetail is the same as BoolVariation, but also returns further information about
// how the value was calculated. The "reason" data will also be included in analytics events.
func (client *LDClient) BoolVariationDetail(
	key string,
	context ldcontext.Context,
	defaultVal bool,
) (bool, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Bool(defaultVal), true, true)
	return detail.Value.BoolValue(), detail, err
}

// IntVariation returns the value of a feature flag (whose variations are integers) for the
// given evaluation context.
//
// Returns defaultVal if there is an error, if the flag doesn't exist, or if the feature is
// turned off and has no off variation.
//
// If the flag variation has a numeric value that is not an integer, it is rounded toward zero
// (truncated).
func (client *LDClient) IntVariation(key string, context ldcontext.Context, defaultVal int) (int, error) {
	detail, err := client.variation(key, context, ldvalue.Int(defaultVal), true, false)
	return detail.Value.IntValue(), err
}

// IntVariationDetail is the same as IntVariation, but also returns further information about
// how the value was calculated. The "reason" data will also be included in analytics events.
func (client *LDClient) IntVariationDetail(
	key string,
	context ldcontext.Context,
	defaultVal int,
) (int, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Int(defaultVal), true, true)
	return detail.Value.IntValue(), detail, err
}

// Float64Variation returns the value of a feature flag (whose variations are floats) for the
// given evaluation context.
//
// Returns defaultVal if there is an error, if the flag doesn't exist, or if the feature is
// turned off and has no off variation.
func (client *LDClient) Float64Variation(key string, context ldcontext.Context, defaultVal float64) (float64, error) {
	detail, err := client.variation(key, context, ldvalue.Float64(defaultVal), true, false)
	return detail.Value.Float64Value(), err
}

// Float64VariationDetail is the same as Float64Variation, but also returns further information
// about how the value was calculated. The "reason" data will also be included in analytics
// events.
func (client *LDClient) Float64VariationDetail(
	key string,
	context ldcontext.Context,
	defaultVal float64,
) (float64, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.Float64(defaultVal), true, true)
	return detail.Value.Float64Value(), detail, err
}

// StringVariation returns the value of a feature flag (whose variations are strings) for the
// given evaluation context.
//
// Returns defaultVal if there is an error, if the flag doesn't exist, or if the feature is
// turned off and has no off variation.
func (client *LDClient) StringVariation(key string, context ldcontext.Context, defaultVal string) (string, error) {
	detail, err := client.variation(key, context, ldvalue.String(defaultVal), true, false)
	return detail.Value.StringValue(), err
}

// StringVariationDetail is the same as StringVariation, but also returns further information
// about how the value was calculated. The "reason" data will also be included in analytics
// events.
func (client *LDClient) StringVariationDetail(
	key string,
	context ldcontext.Context,
	defaultVal string,
) (string, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, ldvalue.String(defaultVal), true, true)
	return detail.Value.StringValue(), detail, err
}

// JSONVariation returns the value of a feature flag for the given evaluation context, allowing
// the value to be of any JSON type.
//
// The value is returned as an ldvalue.Value, which can be inspected or converted to other
// types using methods such as GetType() and BoolValue(). The defaultVal parameter also uses
// this type. For instance, if the values for this flag are JSON arrays:
//
//	defaultValAsArray := ldvalue.ArrayBuild().
//	    Add(ldvalue.String("defaultFirstItem")).
//	    Add(ldvalue.String("defaultSecondItem")).
//	    Build()
//	result, err := client.JSONVariation(flagKey, context, defaultValAsArray)
//	firstItemAsString := result.GetByIndex(0).StringValue() // "defaultFirstItem", etc.
//
// You can also use unparsed json.RawMessage values:
//
//	defaultValAsRawJSON := ldvalue.Raw(json.RawMessage(`{"things":[1,2,3]}`))
//	result, err := client.JSONVariation(flagKey, context, defaultValAsRawJSON)
//	resultAsRawJSON := result.AsRaw()
//
// Returns defaultVal if there is an error, if the flag doesn't exist, or if the feature is
// turned off.
func (client *LDClient) JSONVariation(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
) (ldvalue.Value, error) {
	detail, err := client.variation(key, context, defaultVal, false, false)
	return detail.Value, err
}

// JSONVariationDetail is the same as JSONVariation, but also returns further information about
// how the value was calculated. The "reason" data will also be included in analytics events.
func (client *LDClient) JSONVariationDetail(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
) (ldvalue.Value, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, context, defaultVal, false, true)
	return detail.Value, detail, err
}

// GetDataSourceStatusProvider returns an interface for tracking the status of the data source.
//
// The data source is the mechanism that the SDK uses to get feature flag configurations, such
// as a streaming connection (the default) or poll requests. The DataSourceStatusProvider has
// methods for checking whether the data source is (as far as the SDK knows) currently
// operational and tracking changes in this status.
//
// See the interfaces.DataSourceStatusProvider documentation for more about this functionality.
func (client *LDClient) GetDataSourceStatusProvider() interfaces.DataSourceStatusProvider {
	return client.dataSourceStatusProvider
}

// GetDataStoreStatusProvider returns an interface for tracking the status of a persistent data
// store.
//
// The interfaces.DataStoreStatusProvider has methods for checking whether the data store is
// (as far as the SDK knows) currently operational, tracking changes in this status, and
// getting cache statistics. These are only relevant for a persistent data store; if you are
// using an in-memory data store, then this method will always report that the store is
// operational.
func (client *LDClient) GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	return client.dataStoreStatusProvider
}

// GetBigSegmentStoreStatusProvider returns an interface for tracking the status of a Big
// Segment store.
//
// The BigSegmentStoreStatusProvider has methods for checking whether the Big Segment store is
// (as far as the SDK knows) currently operational and tracking changes in this status. If you
// have not configured a Big Segment store, the returned provider always reports the store as
// unavailable.
func (client *LDClient) GetBigSegmentStoreStatusProvider() interfaces.BigSegmentStoreStatusProvider {
	return client.bigSegmentStoreStatusProvider
}

// GetFlagTracker returns an interface for tracking changes in feature flag configurations.
//
// See the interfaces.FlagTracker documentation for more about this functionality.
func (client *LDClient) GetFlagTracker() interfaces.FlagTracker {
	return client.flagTracker
}

// Generic method for evaluating a feature flag for a given evaluation context.
func (client *LDClient) variation(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
	checkType bool,
	sendReasonsInEvents bool,
) (ldreason.EvaluationDetail, error) {
	if client.IsOffline() {
		return newEvaluationError(defaultVal, ldreason.EvalErrorClientNotReady), nil
	}
	if err := context.Err(); err != nil {
		client.loggers.Warnf("Context was invalid and will not be sent to LaunchDarkly. %s", err)
		return newEvaluationError(defaultVal, ldreason.EvalErrorUserNotSpecified), err
	}
	eventsScope := client.eventsDefault
	if sendReasonsInEvents {
		eventsScope = client.eventsWithReasons
	}
	result, flag, err := client.evaluateInternal(key, context, defaultVal, eventsScope)
	if err != nil {
		result.Detail.Value = defaultVal
		result.Detail.VariationIndex = ldvalue.OptionalInt{}
	} else if checkType && defaultVal.Type() != ldvalue.NullType &&
		result.Detail.Value.Type() != defaultVal.Type() {
		result = evaluation.Result{Detail: newEvaluationError(defaultVal, ldreason.EvalErrorWrongType)}
	}

	if !eventsScope.disabled {
		var evt ldevents.FeatureRequestEvent
		eventContext := ldevents.Context(context)
		if flag == nil {
			evt = eventsScope.factory.NewUnknownFlagEvent(key, eventContext, defaultVal, result.Detail.Reason)
		} else {
			evt = eventsScope.factory.NewEvalEvent(
				flagEventProperties(flag),
				eventContext,
				result.Detail,
				result.IsExperiment,
				defaultVal,
				"",
			)
		}
		client.eventProcessor.SendEvent(evt)
	}

	return result.Detail, err
}

// Performs all the steps of evaluation except for sending the feature request event (the main
// one; events for prerequisites will be sent).
func (client *LDClient) evaluateInternal(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
	eventsScope eventsScope,
) (evaluation.Result, *ldmodel.FeatureFlag, error) {
	// THIS IS A HIGH-TRAFFIC CODE PATH so performance tuning is important. Do not add anything
	// that allocates unnecessarily or that could block the evaluation.

	var feature *ldmodel.FeatureFlag
	var storeErr error
	var ok bool

	evalErrorResult := func(
		errKind ldreason.EvalErrorKind,
		flag *ldmodel.FeatureFlag,
		err error,
	) (evaluation.Result, *ldmodel.FeatureFlag, error) {
		detail := newEvaluationError(defaultVal, errKind)
		if client.logEvaluationErrors {
			client.loggers.Warn(err)
		}
		return evaluation.Result{Detail: detail}, flag, err
	}

	if !client.Initialized() {
		if client.store.IsInitialized() {
			client.loggers.Warn("Feature flag evaluation called before LaunchDarkly client initialization completed; using last known values from data store") //nolint:lll
		} else {
			return evalErrorResult(ldreason.EvalErrorClientNotReady, nil, ErrClientNotInitialized)
		}
	}

	itemDesc, storeErr := client.store.Get(datakinds.Features, key)

	if storeErr != nil {
		client.loggers.Errorf("Encountered error fetching feature from store: %+v", storeErr)
		detail := newEvaluationError(defaultVal, ldreason.EvalErrorException)
		return evaluation.Result{Detail: detail}, nil, storeErr
	}

	if itemDesc.Item != nil {
		feature, ok = itemDesc.Item.(*ldmodel.FeatureFlag)
		if !ok {
			return evalErrorResult(ldreason.EvalErrorException, nil,
				fmt.Errorf(
					"unexpected data type (%T) found in store for feature key: %s. Returning default value",
					itemDesc.Item,
					key,
				))
		}
	} else {
		return evalErrorResult(ldreason.EvalErrorFlagNotFound, nil,
			fmt.Errorf("unknown feature key: %s. Verify that this feature key exists. Returning default value", key))
	}

	result := client.evaluator.Evaluate(feature, context, eventsScope.prerequisiteEventRecorder)
	if result.Detail.Reason.GetKind() == ldreason.EvalReasonError && client.logEvaluationErrors {
		client.loggers.Warnf("Flag evaluation for %s failed with error %s, default value was returned",
			key, result.Detail.Reason.GetErrorKind())
	}
	if result.Detail.IsDefaultValue() {
		result.Detail.Value = defaultVal
		result.Detail.VariationIndex = ldvalue.OptionalInt{}
	}
	return result, feature, nil
}

func newEvaluationError(jsonValue ldvalue.Value, errorKind ldreason.EvalErrorKind) ldreason.EvaluationDetail {
	return ldreason.NewEvaluationDetailForError(errorKind, jsonValue)
}
