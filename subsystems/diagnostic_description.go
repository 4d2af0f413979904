package subsystems

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// DiagnosticDescription is an optional interface for components to describe their own
// configuration for the SDK's periodic diagnostic events.
//
// The SDK uses a simplified JSON representation of component configurations that can be
// recorded in diagnostic data. Any component that implements DiagnosticDescription may
// contribute property values to this representation. Components that do not implement it are
// described as "custom".
type DiagnosticDescription interface {
	// DescribeConfiguration returns a JSON value. For custom components, this must be
	// ldvalue.String("custom"); LaunchDarkly-provided components return an object of
	// component-specific properties.
	DescribeConfiguration(clientContext ClientContext) ldvalue.Value
}
