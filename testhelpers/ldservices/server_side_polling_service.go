package ldservices

import (
	"net/http"

	"github.com/launchdarkly/go-test-helpers/v3/httphelpers"
)

const serverSideSDKPollingPath = "/sdk/latest-all"

// ServerSidePollingServiceHandler creates an HTTP handler to mimic the LaunchDarkly
// server-side polling service.
//
// This handler returns JSON data for requests to /sdk/latest-all, and a 404 error for all
// other requests. If the data parameter is nil, the response is an empty JSON object {};
// otherwise it is the JSON encoding of the parameter, which is normally a *ServerSDKData.
// The data is marshalled again for each request.
//
// If you want the mock service to return different responses at different points during a
// test, you can either provide a *ServerSDKData and modify its properties, or use a
// SequentialHandler from httphelpers.
func ServerSidePollingServiceHandler(data interface{}) http.Handler {
	if data == nil {
		data = map[string]interface{}{} // default is an empty JSON object rather than null
	}
	return httphelpers.HandlerForPath(serverSideSDKPollingPath,
		httphelpers.HandlerForMethod("GET", httphelpers.HandlerWithJSONResponse(data, nil), nil), nil)
}
