package sharedtest

import (
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"
)

// FlagDescriptor is a shortcut for creating an ItemDescriptor from a flag.
func FlagDescriptor(f ldmodel.FeatureFlag) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: f.Version, Item: &f}
}

// SegmentDescriptor is a shortcut for creating an ItemDescriptor from a segment.
func SegmentDescriptor(s ldmodel.Segment) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: s.Version, Item: &s}
}

// DeletedItem returns a tombstone ItemDescriptor with the specified version.
func DeletedItem(version int) ldstoretypes.ItemDescriptor {
	return ldstoretypes.ItemDescriptor{Version: version, Item: nil}
}

// DataSetBuilder is a helper for constructing a data set to be passed to a data store or an
// update sink's Init method.
type DataSetBuilder struct {
	flags    []ldstoretypes.KeyedItemDescriptor
	segments []ldstoretypes.KeyedItemDescriptor
}

// NewDataSetBuilder creates a DataSetBuilder.
func NewDataSetBuilder() *DataSetBuilder {
	return &DataSetBuilder{}
}

// Build returns the built data set.
func (d *DataSetBuilder) Build() []ldstoretypes.Collection {
	return []ldstoretypes.Collection{
		{Kind: datakinds.Features, Items: d.flags},
		{Kind: datakinds.Segments, Items: d.segments},
	}
}

// Flags adds flags to the data set.
func (d *DataSetBuilder) Flags(flags ...ldmodel.FeatureFlag) *DataSetBuilder {
	for _, f := range flags {
		d.flags = append(d.flags, ldstoretypes.KeyedItemDescriptor{Key: f.Key, Item: FlagDescriptor(f)})
	}
	return d
}

// Segments adds segments to the data set.
func (d *DataSetBuilder) Segments(segments ...ldmodel.Segment) *DataSetBuilder {
	for _, s := range segments {
		d.segments = append(d.segments, ldstoretypes.KeyedItemDescriptor{Key: s.Key, Item: SegmentDescriptor(s)})
	}
	return d
}
