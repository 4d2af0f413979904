package subsystems

import (
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
)

// DataStoreUpdateSink is the interface that a data store implementation can use to report
// information back to the SDK.
type DataStoreUpdateSink interface {
	// UpdateStatus informs the SDK of a change in the data store's operational status.
	//
	// This is what makes the status monitoring mechanisms in DataStoreStatusProvider work.
	UpdateStatus(newStatus interfaces.DataStoreStatus)
}
