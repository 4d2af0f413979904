package ldclient

import "github.com/launchdarkly/go-server-sdk/v7/internal"

// Version is the SDK version.
const Version = internal.SDKVersion
