package ldevents

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"

	"github.com/launchdarkly/go-test-helpers/v3/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefRetryDelay = 10 * time.Millisecond

var fakeEventData = []byte(`[{"kind":"identify"}]`) //nolint:gochecknoglobals

func makeTestEventSender(server *httptest.Server) *defaultEventSender {
	return &defaultEventSender{
		httpClient:    http.DefaultClient,
		eventsURI:     server.URL + "/bulk",
		diagnosticURI: server.URL + "/diagnostic",
		headers:       http.Header{"Authorization": []string{"fake-key"}},
		loggers:       ldlog.NewDisabledLoggers(),
		retryDelay:    briefRetryDelay,
	}
}

func TestEventSenderPostsAnalyticsEvents(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

		assert.True(t, result.Success)
		assert.False(t, result.MustShutDown)

		r := <-requestsCh
		assert.Equal(t, "/bulk", r.Request.URL.Path)
		assert.Equal(t, "fake-key", r.Request.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
		assert.Equal(t, "4", r.Request.Header.Get(eventSchemaHeader))
		assert.NotEmpty(t, r.Request.Header.Get(payloadIDHeader))
		assert.Equal(t, fakeEventData, r.Body)
	})
}

func TestEventSenderPostsDiagnosticEvents(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		result := sender.SendEventData(DiagnosticEventDataKind, fakeEventData, 1)

		assert.True(t, result.Success)

		r := <-requestsCh
		assert.Equal(t, "/diagnostic", r.Request.URL.Path)
		// Diagnostic events do not use the schema or payload ID headers.
		assert.Empty(t, r.Request.Header.Get(eventSchemaHeader))
		assert.Empty(t, r.Request.Header.Get(payloadIDHeader))
	})
}

func TestEventSenderParsesServerTime(t *testing.T) {
	expectedTime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", expectedTime.Format(http.TimeFormat))
		w.WriteHeader(202)
	})
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

		assert.True(t, result.Success)
		assert.Equal(t, ldtime.UnixMillisFromTime(expectedTime), result.TimeFromServer)
	})
}

func TestEventSenderRetriesOnRecoverableError(t *testing.T) {
	for _, status := range []int{400, 408, 429, 503} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(httphelpers.SequentialHandler(
				httphelpers.HandlerWithStatus(status),
				httphelpers.HandlerWithStatus(202),
			))
			httphelpers.WithServer(handler, func(server *httptest.Server) {
				sender := makeTestEventSender(server)
				result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

				assert.True(t, result.Success)
				assert.False(t, result.MustShutDown)
				assert.Len(t, requestsCh, 2)
			})
		})
	}
}

func TestEventSenderGivesUpAfterSecondRecoverableError(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(503))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

		assert.False(t, result.Success)
		assert.False(t, result.MustShutDown)
		assert.Len(t, requestsCh, 2)
	})
}

func TestEventSenderShutsDownOnUnrecoverableError(t *testing.T) {
	for _, status := range []int{401, 403} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(status))
			httphelpers.WithServer(handler, func(server *httptest.Server) {
				sender := makeTestEventSender(server)
				result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

				assert.False(t, result.Success)
				assert.True(t, result.MustShutDown)
				// An unrecoverable error is not retried.
				assert.Len(t, requestsCh, 1)
			})
		})
	}
}

func TestEventSenderLogsErrorForInvalidSDKKey(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	defer mockLog.DumpIfTestFailed(t)
	handler := httphelpers.HandlerWithStatus(401)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		sender.loggers = mockLog.Loggers
		_ = sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

		warnings := mockLog.GetOutput(ldlog.Warn)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "401")
		assert.Contains(t, warnings[0], "invalid SDK key")
	})
}

func TestServerSideEventSenderAppliesDefaultPaths(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := NewServerSideEventSender(nil, "sdk-key", server.URL, nil, ldlog.NewDisabledLoggers())

		result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)
		assert.True(t, result.Success)
		r := <-requestsCh
		assert.Equal(t, "/bulk", r.Request.URL.Path)
		assert.Equal(t, "sdk-key", r.Request.Header.Get("Authorization"))

		result = sender.SendEventData(DiagnosticEventDataKind, fakeEventData, 1)
		assert.True(t, result.Success)
		r = <-requestsCh
		assert.Equal(t, "/diagnostic", r.Request.URL.Path)
	})
}

func TestEventSenderLogsRetryDelayAsDuration(t *testing.T) {
	mockLog := ldlogtest.NewMockLog()
	defer mockLog.DumpIfTestFailed(t)
	handler := httphelpers.SequentialHandler(
		httphelpers.HandlerWithStatus(503),
		httphelpers.HandlerWithStatus(202),
	)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sender := makeTestEventSender(server)
		sender.loggers = mockLog.Loggers
		result := sender.SendEventData(AnalyticsEventDataKind, fakeEventData, 1)

		assert.True(t, result.Success)
		mockLog.AssertMessageMatch(t, true, ldlog.Warn,
			"Will retry posting events after 10ms")
	})
}
