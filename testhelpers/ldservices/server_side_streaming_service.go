package ldservices

import (
	"net/http"

	"github.com/launchdarkly/go-test-helpers/v3/httphelpers"
)

const serverSideSDKStreamingPath = "/all"

// ServerSideStreamingServiceHandler creates an HTTP handler to mimic the LaunchDarkly
// server-side streaming service.
//
// This handler behaves like httphelpers.SSEHandler, but enforces that the request path is
// /all and that the method is GET. Events can be pushed and the stream can be interrupted
// with the returned SSEStreamControl.
//
//	putEvent := ldservices.NewServerSDKData().Flags(flag1).ToPutEvent()
//	handler, stream := ldservices.ServerSideStreamingServiceHandler(putEvent)
//	defer stream.Close()
func ServerSideStreamingServiceHandler(
	initialEvent httphelpers.SSEEvent,
) (http.Handler, httphelpers.SSEStreamControl) {
	handler, stream := httphelpers.SSEHandler(&initialEvent)
	return httphelpers.HandlerForPath(serverSideSDKStreamingPath,
		httphelpers.HandlerForMethod("GET", handler, nil), nil), stream
}
