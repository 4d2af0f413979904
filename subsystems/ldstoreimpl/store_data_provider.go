package ldstoreimpl

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-server-sdk/v7/evaluation"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// NewDataStoreEvaluatorDataProvider provides an adapter for using a DataStore with the
// Evaluator type in the evaluation package.
//
// Normal use of the SDK does not require this type. It is provided for use by other
// LaunchDarkly components that use DataStore and Evaluator separately from the SDK.
func NewDataStoreEvaluatorDataProvider(store subsystems.DataStore, loggers ldlog.Loggers) evaluation.DataProvider {
	return dataStoreEvaluatorDataProviderImpl{store, loggers}
}

type dataStoreEvaluatorDataProviderImpl struct {
	store   subsystems.DataStore
	loggers ldlog.Loggers
}

func (d dataStoreEvaluatorDataProviderImpl) GetFeatureFlag(key string) *ldmodel.FeatureFlag {
	item, err := d.store.Get(datakinds.Features, key)
	if err == nil && item.Item != nil {
		data := item.Item
		if flag, ok := data.(*ldmodel.FeatureFlag); ok {
			return flag
		}
		d.loggers.Errorf("unexpected data type (%T) found in store for feature key: %s. Returning default value", data, key)
	}
	return nil
}

func (d dataStoreEvaluatorDataProviderImpl) GetSegment(key string) *ldmodel.Segment {
	item, err := d.store.Get(datakinds.Segments, key)
	if err == nil && item.Item != nil {
		data := item.Item
		if segment, ok := data.(*ldmodel.Segment); ok {
			return segment
		}
		d.loggers.Errorf("unexpected data type (%T) found in store for segment key: %s. Returning default value", data, key)
	}
	return nil
}
