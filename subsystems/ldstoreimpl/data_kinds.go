package ldstoreimpl

import (
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems/ldstoretypes"
)

// This file provides public access to the implementations of the factory objects for flags
// and segments. These are used by store implementations.

// Features returns the StoreDataKind instance corresponding to feature flag data.
func Features() ldstoretypes.DataKind {
	return datakinds.Features
}

// Segments returns the StoreDataKind instance corresponding to segment data.
func Segments() ldstoretypes.DataKind {
	return datakinds.Segments
}

// AllKinds returns a list of supported StoreDataKinds. Among other things, this list might
// be used by data stores to know what data (namespaces) to expect.
func AllKinds() []ldstoretypes.DataKind {
	return []ldstoretypes.DataKind{Features(), Segments()}
}
