package ldclient

import (
	"errors"

	"github.com/launchdarkly/go-server-sdk/v7/internal"
	"github.com/launchdarkly/go-server-sdk/v7/ldcomponents"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"
)

func newClientContextFromConfig(sdkKey string, config Config) (*internal.ClientContextImpl, error) {
	if !stringIsValidHTTPHeaderValue(sdkKey) {
		// We want to fail fast in this case, because if we got as far as trying to make an HTTP
		// request to LaunchDarkly with a malformed key, the Go HTTP client unfortunately would
		// include the actual Authorization header value in its error message, which could end up
		// in logs - and that's a potential security risk if the value is close to a real SDK key.
		return nil, errors.New("SDK key contains invalid characters")
	}

	basicConfig := subsystems.BasicClientContext{
		SDKKey:           sdkKey,
		Offline:          config.Offline,
		ServiceEndpoints: config.ServiceEndpoints,
		ApplicationInfo:  config.ApplicationInfo,
	}
	ret := &internal.ClientContextImpl{BasicClientContext: basicConfig}

	loggingFactory := config.Logging
	if loggingFactory == nil {
		loggingFactory = ldcomponents.Logging()
	}
	logging, err := loggingFactory.Build(ret)
	if err != nil {
		return nil, err
	}
	ret.BasicClientContext.Logging = logging

	httpFactory := config.HTTP
	if httpFactory == nil {
		httpFactory = ldcomponents.HTTPConfiguration()
	}
	http, err := httpFactory.Build(ret)
	if err != nil {
		return nil, err
	}
	ret.BasicClientContext.HTTP = http

	return ret, nil
}

func stringIsValidHTTPHeaderValue(s string) bool {
	for _, ch := range s {
		if ch < 32 || ch > 127 {
			return false
		}
	}
	return true
}
