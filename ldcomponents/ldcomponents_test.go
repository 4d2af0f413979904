package ldcomponents

import (
	"testing"

	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/subsystems"

	"github.com/stretchr/testify/assert"
)

const testSDKKey = "test-sdk-key"

func basicClientContext() subsystems.BasicClientContext {
	return sharedtest.NewSimpleTestContext(testSDKKey)
}

func clientContextWithEndpoints(endpoints interfaces.ServiceEndpoints) subsystems.BasicClientContext {
	ret := basicClientContext()
	ret.ServiceEndpoints = endpoints
	return ret
}

func TestRelayProxyEndpoints(t *testing.T) {
	expected := interfaces.ServiceEndpoints{
		Streaming: "http://my-relay",
		Polling:   "http://my-relay",
		Events:    "http://my-relay",
	}
	assert.Equal(t, expected, RelayProxyEndpoints("http://my-relay"))
}

func TestRelayProxyEndpointsWithoutEvents(t *testing.T) {
	expected := interfaces.ServiceEndpoints{
		Streaming: "http://my-relay",
		Polling:   "http://my-relay",
	}
	assert.Equal(t, expected, RelayProxyEndpointsWithoutEvents("http://my-relay"))
}
