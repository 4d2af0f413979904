package ldcomponents

import (
	"github.com/launchdarkly/go-server-sdk/v7/ldevents"
)

// Optional interface that can be implemented by the SDK's internal ClientContext implementation, to
// provide the diagnostics manager to components that create diagnostic events. The public
// BasicClientContext does not include this, because the diagnostics manager is an implementation
// detail of LDClient.
type hasDiagnosticsManager interface {
	GetDiagnosticsManager() *ldevents.DiagnosticsManager
}
