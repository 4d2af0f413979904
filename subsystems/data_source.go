package subsystems

import (
	"io"
)

// DataSource describes the interface for an object that receives feature flag data.
type DataSource interface {
	io.Closer

	// IsInitialized returns true if the data source has successfully initialized at some
	// point.
	//
	// Once this is true, it should remain true even if a problem occurs later, since the
	// data source is still capable of providing the last known data.
	IsInitialized() bool

	// Start tells the data source to begin initializing. It should not block; data source
	// activity happens on its own goroutines.
	//
	// The data source closes the closeWhenReady channel either when it has successfully
	// initialized for the first time, or when it has determined that initialization can
	// never succeed.
	Start(closeWhenReady chan<- struct{})
}
