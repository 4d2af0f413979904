package ldcomponents

import (
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
)

// RelayProxyEndpoints returns a configuration object that tells the SDK to use a Relay Proxy
// instance for all services.
//
// When using the LaunchDarkly Relay Proxy (https://docs.launchdarkly.com/home/relay-proxy), the SDK
// can be configured to connect to the relay instead of connecting to LaunchDarkly directly. Set the
// ServiceEndpoints field in your SDK configuration to the return value of this function, specifying
// the base URI of your Relay Proxy instance:
//
//	config := ld.Config{
//	    ServiceEndpoints: ldcomponents.RelayProxyEndpoints("http://my-relay-host:8080"),
//	}
//
// If analytics events are enabled, this will also cause the SDK to forward events through the Relay
// Proxy. If you have not enabled event forwarding in your relay configuration and you want the SDK
// to send events directly to LaunchDarkly instead, use RelayProxyEndpointsWithoutEvents.
func RelayProxyEndpoints(relayProxyBaseURI string) interfaces.ServiceEndpoints {
	return interfaces.ServiceEndpoints{
		Streaming: relayProxyBaseURI,
		Polling:   relayProxyBaseURI,
		Events:    relayProxyBaseURI,
	}
}

// RelayProxyEndpointsWithoutEvents returns a configuration object that tells the SDK to use a Relay
// Proxy instance for the streaming and polling services, but to send analytics events directly to
// LaunchDarkly.
//
//	config := ld.Config{
//	    ServiceEndpoints: ldcomponents.RelayProxyEndpointsWithoutEvents("http://my-relay-host:8080"),
//	}
func RelayProxyEndpointsWithoutEvents(relayProxyBaseURI string) interfaces.ServiceEndpoints {
	return interfaces.ServiceEndpoints{
		Streaming: relayProxyBaseURI,
		Polling:   relayProxyBaseURI,
	}
}
