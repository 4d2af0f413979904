package ldtestdata

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"

	"golang.org/x/exp/slices"
)

// TestDataSource is a test fixture that provides dynamically updatable feature flag state in
// a simplified form to an SDK client in test scenarios.
//
// See package description for more details and usage examples.
type TestDataSource struct {
	currentFlags    map[string]ldstoretypes.ItemDescriptor
	currentBuilders map[string]*FlagBuilder
	currentSegments map[string]ldstoretypes.ItemDescriptor
	instances       []*testDataSourceImpl
	lock            sync.Mutex
}

type testDataSourceImpl struct {
	owner   *TestDataSource
	updates subsystems.DataSourceUpdateSink
	loggers ldlog.Loggers
}

// DataSource creates an instance of TestDataSource.
//
// Storing this object in the DataSource field of ld.Config causes the SDK client to use the
// test data. Any subsequent changes made using methods like Update will propagate to all
// LDClient instances that are using this data source.
func DataSource() *TestDataSource {
	return &TestDataSource{
		currentFlags:    make(map[string]ldstoretypes.ItemDescriptor),
		currentBuilders: make(map[string]*FlagBuilder),
		currentSegments: make(map[string]ldstoretypes.ItemDescriptor),
	}
}

// Flag creates or copies a FlagBuilder for building a test flag configuration.
//
// If this flag key has already been defined in this TestDataSource instance, then the builder
// starts with the same configuration that was last provided for this flag.
//
// Otherwise, it starts with a new default configuration in which the flag has true and false
// variations, is true for all contexts when targeting is turned on and false otherwise, and
// currently has targeting turned on. You can change any of those properties, and provide more
// complex behavior, using the FlagBuilder methods.
//
// Once you have set the desired configuration, pass the builder to Update.
func (t *TestDataSource) Flag(key string) *FlagBuilder {
	t.lock.Lock()
	defer t.lock.Unlock()
	existingBuilder := t.currentBuilders[key]
	if existingBuilder == nil {
		return newFlagBuilder(key).BooleanFlag()
	}
	return copyFlagBuilder(existingBuilder)
}

// Update updates the test data with the specified flag configuration.
//
// This has the same effect as if a flag were added or modified on the LaunchDarkly dashboard.
// It immediately propagates the flag change to any LDClient instance(s) that you have already
// configured to use this TestDataSource. If no LDClient has been started yet, it simply adds
// this flag to the test data which will be provided to any LDClient that you subsequently
// configure.
//
// Any subsequent changes to this FlagBuilder instance do not affect the test data, unless you
// call Update again.
func (t *TestDataSource) Update(flagBuilder *FlagBuilder) *TestDataSource {
	key := flagBuilder.key
	clonedBuilder := copyFlagBuilder(flagBuilder)

	t.lock.Lock()
	oldItem := t.currentFlags[key]
	newVersion := oldItem.Version + 1
	newFlag := flagBuilder.createFlag(newVersion)
	newItem := ldstoretypes.ItemDescriptor{Version: newVersion, Item: &newFlag}
	t.currentFlags[key] = newItem
	t.currentBuilders[key] = clonedBuilder
	instances := slices.Clone(t.instances)
	t.lock.Unlock()

	for _, instance := range instances {
		instance.updates.Upsert(datakinds.Features, key, newItem)
	}

	return t
}

// UsePreconfiguredFlag copies a full feature flag data model object into the test data.
//
// It immediately propagates the flag change to any LDClient instance(s) that you have already
// configured to use this TestDataSource. If no LDClient has been started yet, it simply adds
// this flag to the test data which will be provided to any LDClient that you subsequently
// configure.
//
// Use this method if you need to use advanced flag properties that are not supported by the
// simplified FlagBuilder API. Otherwise it is recommended to use the regular Flag/Update
// mechanism to avoid dependencies on details of the data model.
//
// You cannot make incremental changes with Flag/Update to a flag that was added in this way;
// you can only replace it with an entirely new flag configuration.
func (t *TestDataSource) UsePreconfiguredFlag(flag ldmodel.FeatureFlag) *TestDataSource {
	t.lock.Lock()
	oldItem := t.currentFlags[flag.Key]
	newFlag := flag
	if flag.Version <= oldItem.Version {
		newFlag.Version = oldItem.Version + 1
	}
	ldmodel.PreprocessFlag(&newFlag)
	newItem := ldstoretypes.ItemDescriptor{Version: newFlag.Version, Item: &newFlag}
	t.currentFlags[newFlag.Key] = newItem
	delete(t.currentBuilders, newFlag.Key)
	instances := slices.Clone(t.instances)
	t.lock.Unlock()

	for _, instance := range instances {
		instance.updates.Upsert(datakinds.Features, newFlag.Key, newItem)
	}

	return t
}

// UsePreconfiguredSegment copies a full segment data model object into the test data.
//
// It immediately propagates the change to any LDClient instance(s) that you have already
// configured to use this TestDataSource. If no LDClient has been started yet, it simply adds
// this segment to the test data which will be provided to any LDClient that you subsequently
// configure.
//
// This method is mainly useful for testing segment-matching behavior, since there is no
// builder API for segments.
func (t *TestDataSource) UsePreconfiguredSegment(segment ldmodel.Segment) *TestDataSource {
	t.lock.Lock()
	oldItem := t.currentSegments[segment.Key]
	newSegment := segment
	if segment.Version <= oldItem.Version {
		newSegment.Version = oldItem.Version + 1
	}
	ldmodel.PreprocessSegment(&newSegment)
	newItem := ldstoretypes.ItemDescriptor{Version: newSegment.Version, Item: &newSegment}
	t.currentSegments[newSegment.Key] = newItem
	instances := slices.Clone(t.instances)
	t.lock.Unlock()

	for _, instance := range instances {
		instance.updates.Upsert(datakinds.Segments, newSegment.Key, newItem)
	}

	return t
}

// Build is called internally by the SDK to associate this test data source with an LDClient
// instance. You do not need to call this method.
func (t *TestDataSource) Build(context subsystems.ClientContext) (subsystems.DataSource, error) {
	instance := &testDataSourceImpl{
		owner:   t,
		updates: context.GetDataSourceUpdateSink(),
		loggers: context.GetLogging().Loggers,
	}
	t.lock.Lock()
	t.instances = append(t.instances, instance)
	t.lock.Unlock()
	return instance, nil
}

func (t *TestDataSource) makeInitData() []ldstoretypes.Collection {
	t.lock.Lock()
	defer t.lock.Unlock()
	flags := make([]ldstoretypes.KeyedItemDescriptor, 0, len(t.currentFlags))
	for key, item := range t.currentFlags {
		flags = append(flags, ldstoretypes.KeyedItemDescriptor{Key: key, Item: item})
	}
	segments := make([]ldstoretypes.KeyedItemDescriptor, 0, len(t.currentSegments))
	for key, item := range t.currentSegments {
		segments = append(segments, ldstoretypes.KeyedItemDescriptor{Key: key, Item: item})
	}
	return []ldstoretypes.Collection{
		{Kind: datakinds.Features, Items: flags},
		{Kind: datakinds.Segments, Items: segments},
	}
}

func (t *TestDataSource) closedInstance(instance *testDataSourceImpl) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i, in := range t.instances {
		if in == instance {
			t.instances = append(t.instances[:i], t.instances[i+1:]...)
			break
		}
	}
}

func (d *testDataSourceImpl) Close() error {
	d.owner.closedInstance(d)
	return nil
}

func (d *testDataSourceImpl) IsInitialized() bool {
	return true
}

func (d *testDataSourceImpl) Start(closeWhenReady chan<- struct{}) {
	_ = d.updates.Init(d.owner.makeInitData())
	d.updates.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
	close(closeWhenReady)
}
