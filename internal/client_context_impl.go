package internal

import (
	"github.com/launchdarkly/go-server-sdk/v7/ldevents"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

// ClientContextImpl is the SDK's standard implementation of subsystems.ClientContext.
//
// It is exported so that the client constructor can set it up, but components should only
// interact with the public ClientContext interface. The diagnostics manager is carried here
// as a hidden property: the components that need it (the default event processor factory and
// the streaming data source) discover it by testing for the GetDiagnosticsManager method,
// rather than it being part of the public interface.
type ClientContextImpl struct {
	subsystems.BasicClientContext

	// DiagnosticsManager is non-nil only if diagnostic events are enabled.
	DiagnosticsManager *ldevents.DiagnosticsManager
}

// GetDiagnosticsManager returns the diagnostics manager, if any.
func (c *ClientContextImpl) GetDiagnosticsManager() *ldevents.DiagnosticsManager {
	return c.DiagnosticsManager
}
