// Package endpoints contains the SDK's default service URIs and the logic for selecting
// between default and custom base URIs.
package endpoints

import (
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
)

// ServiceType is used internally to distinguish which service an endpoint is for.
type ServiceType int

const (
	// StreamingService is the service type for the streaming endpoint.
	StreamingService ServiceType = iota
	// PollingService is the service type for the polling endpoint.
	PollingService
	// EventsService is the service type for the events endpoint.
	EventsService
)

func (s ServiceType) String() string {
	switch s {
	case StreamingService:
		return "Streaming"
	case PollingService:
		return "Polling"
	case EventsService:
		return "Events"
	default:
		return "?" // COVERAGE: unreachable
	}
}

// Default base URIs for the LaunchDarkly services, and the request paths that the SDK
// components append to them.
const (
	DefaultStreamingBaseURI = "https://stream.launchdarkly.com/"
	DefaultPollingBaseURI   = "https://sdk.launchdarkly.com/"
	DefaultEventsBaseURI    = "https://events.launchdarkly.com/"

	StreamingRequestPath     = "/all"
	PollingRequestPath       = "/sdk/latest-all"
	BulkEventsPostPath       = "/bulk"
	DiagnosticEventsPostPath = "/diagnostic"
)

// DefaultBaseURI returns the default base URI for the given service.
func DefaultBaseURI(serviceType ServiceType) string {
	switch serviceType {
	case StreamingService:
		return DefaultStreamingBaseURI
	case PollingService:
		return DefaultPollingBaseURI
	case EventsService:
		return DefaultEventsBaseURI
	default:
		return "" // COVERAGE: unreachable
	}
}

func baseURI(serviceEndpoints interfaces.ServiceEndpoints, serviceType ServiceType) string {
	switch serviceType {
	case StreamingService:
		return serviceEndpoints.Streaming
	case PollingService:
		return serviceEndpoints.Polling
	case EventsService:
		return serviceEndpoints.Events
	default:
		return "" // COVERAGE: unreachable
	}
}

// IsCustom returns true if the service endpoint has been overridden from its default value.
func IsCustom(serviceEndpoints interfaces.ServiceEndpoints, serviceType ServiceType) bool {
	uri := baseURI(serviceEndpoints, serviceType)
	return uri != "" && strings.TrimSuffix(uri, "/") != strings.TrimSuffix(DefaultBaseURI(serviceType), "/")
}

// SelectBaseURI returns the base URI that the SDK should connect to for the given service,
// using either a custom endpoint from the configuration or the default.
//
// If some, but not all, of the service endpoints have been customized, we assume this is a
// misconfiguration and log a warning, since normally a relay proxy or other intermediary
// handles all of the services.
func SelectBaseURI(
	serviceEndpoints interfaces.ServiceEndpoints,
	serviceType ServiceType,
	loggers ldlog.Loggers,
) string {
	configuredBaseURI := ""
	if anyCustom(serviceEndpoints) {
		configuredBaseURI = baseURI(serviceEndpoints, serviceType)
		if configuredBaseURI == "" {
			loggers.Warnf(
				"You have set custom ServiceEndpoints without specifying the %s base URI; connections may not work properly",
				serviceType,
			)
			configuredBaseURI = DefaultBaseURI(serviceType)
		}
	} else {
		configuredBaseURI = DefaultBaseURI(serviceType)
	}
	return strings.TrimSuffix(configuredBaseURI, "/")
}

func anyCustom(serviceEndpoints interfaces.ServiceEndpoints) bool {
	return serviceEndpoints.Streaming != "" || serviceEndpoints.Polling != "" ||
		serviceEndpoints.Events != ""
}

// AddPath concatenates a subpath to a base URI, ensuring exactly one slash between them.
func AddPath(baseURI string, path string) string {
	return strings.TrimSuffix(baseURI, "/") + "/" + strings.TrimPrefix(path, "/")
}
