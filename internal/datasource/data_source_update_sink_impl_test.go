package datasource

import (
	"errors"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/internal"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datakinds"
	"github.com/launchdarkly/go-server-sdk/v7/internal/datastore"
	st "github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest"
	"github.com/launchdarkly/go-server-sdk/v7/internal/sharedtest/mocks"
	"github.com/launchdarkly/go-server-sdk/v7/ldbuilders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateSinkTestParams struct {
	store             *mocks.CapturingDataStore
	sink              *DataSourceUpdateSinkImpl
	statusBroadcaster *internal.Broadcaster[interfaces.DataSourceStatus]
	flagBroadcaster   *internal.Broadcaster[interfaces.FlagChangeEvent]
	mockLog           *ldlogtest.MockLog
}

func withUpdateSinkParams(t *testing.T, outageTimeout time.Duration, action func(p updateSinkTestParams)) {
	mockLog := ldlogtest.NewMockLog()
	defer mockLog.DumpIfTestFailed(t)
	store := mocks.NewCapturingDataStore(datastore.NewInMemoryDataStore(ldlog.NewDisabledLoggers()))
	statusBroadcaster := internal.NewBroadcaster[interfaces.DataSourceStatus]()
	defer statusBroadcaster.Close()
	flagBroadcaster := internal.NewBroadcaster[interfaces.FlagChangeEvent]()
	defer flagBroadcaster.Close()
	sink := NewDataSourceUpdateSinkImpl(store, nil, statusBroadcaster, flagBroadcaster,
		outageTimeout, mockLog.Loggers)
	action(updateSinkTestParams{
		store:             store,
		sink:              sink,
		statusBroadcaster: statusBroadcaster,
		flagBroadcaster:   flagBroadcaster,
		mockLog:           mockLog,
	})
}

func requireStatus(t *testing.T, ch <-chan interfaces.DataSourceStatus) interfaces.DataSourceStatus {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for status update")
		return interfaces.DataSourceStatus{}
	}
}

func TestUpdateSinkInitPassesDataToStore(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		flag := ldbuilders.NewFlagBuilder("flag1").Version(1).Build()
		data := st.NewDataSetBuilder().Flags(flag).Build()

		assert.True(t, p.sink.Init(data))
		p.store.WaitForNextInit(t, time.Second)

		item, err := p.store.Get(datakinds.Features, "flag1")
		require.NoError(t, err)
		assert.Equal(t, 1, item.Version)
	})
}

func TestUpdateSinkUpsertPassesDataToStore(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Build()))
		p.store.WaitForNextInit(t, time.Second)

		flag := ldbuilders.NewFlagBuilder("flag1").Version(2).Build()
		assert.True(t, p.sink.Upsert(datakinds.Features, "flag1", st.FlagDescriptor(flag)))
		p.store.WaitForUpsert(t, datakinds.Features, "flag1", 2, time.Second)
	})
}

func TestUpdateSinkInitialStatusIsInitializing(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		status := p.sink.GetLastStatus()
		assert.Equal(t, interfaces.DataSourceStateInitializing, status.State)
		assert.NotEqual(t, time.Time{}, status.StateSince)
	})
}

func TestUpdateSinkStatusChangeIsBroadcast(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		statusCh := p.statusBroadcaster.AddListener()

		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		status := requireStatus(t, statusCh)
		assert.Equal(t, interfaces.DataSourceStateValid, status.State)
		assert.Equal(t, status, p.sink.GetLastStatus())
	})
}

func TestUpdateSinkInterruptedDuringInitializingStaysInitializing(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		statusCh := p.statusBroadcaster.AddListener()

		errorInfo := interfaces.DataSourceErrorInfo{
			Kind: interfaces.DataSourceErrorKindNetworkError,
			Time: time.Now(),
		}
		p.sink.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)

		status := requireStatus(t, statusCh)
		assert.Equal(t, interfaces.DataSourceStateInitializing, status.State)
		assert.Equal(t, errorInfo, status.LastError)
	})
}

func TestUpdateSinkInterruptedAfterValid(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		statusCh := p.statusBroadcaster.AddListener()

		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		_ = requireStatus(t, statusCh)

		errorInfo := interfaces.DataSourceErrorInfo{
			Kind:       interfaces.DataSourceErrorKindErrorResponse,
			StatusCode: 401,
			Time:       time.Now(),
		}
		p.sink.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)
		status := requireStatus(t, statusCh)
		assert.Equal(t, interfaces.DataSourceStateInterrupted, status.State)
		assert.Equal(t, errorInfo, status.LastError)
	})
}

func TestUpdateSinkSameStateWithNoErrorIsNotRebroadcast(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		statusCh := p.statusBroadcaster.AddListener()

		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		_ = requireStatus(t, statusCh)

		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		select {
		case status := <-statusCh:
			require.Fail(t, "received unexpected status update", "status: %+v", status)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestUpdateSinkStoreErrorCausesInterruptedStatusAndFalseResult(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		statusCh := p.statusBroadcaster.AddListener()
		fakeError := errors.New("sorry")
		p.store.SetFakeError(fakeError)

		flag := ldbuilders.NewFlagBuilder("flag1").Version(1).Build()
		assert.False(t, p.sink.Upsert(datakinds.Features, "flag1", st.FlagDescriptor(flag)))

		status := requireStatus(t, statusCh)
		assert.Equal(t, interfaces.DataSourceStateInitializing, status.State)
		assert.Equal(t, interfaces.DataSourceErrorKindStoreError, status.LastError.Kind)
		assert.Equal(t, fakeError.Error(), status.LastError.Message)

		// The store error is logged only once for consecutive failures.
		assert.Len(t, p.mockLog.GetOutput(ldlog.Warn), 1)
		assert.False(t, p.sink.Upsert(datakinds.Features, "flag1", st.FlagDescriptor(flag)))
		assert.Len(t, p.mockLog.GetOutput(ldlog.Warn), 1)
	})
}

func TestUpdateSinkSendsFlagChangeEventsOnUpsert(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		flag1 := ldbuilders.NewFlagBuilder("flag1").Version(1).Build()
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Flags(flag1).Build()))

		flagCh := p.flagBroadcaster.AddListener()

		flag1v2 := ldbuilders.NewFlagBuilder("flag1").Version(2).Build()
		p.sink.Upsert(datakinds.Features, "flag1", st.FlagDescriptor(flag1v2))
		st.ExpectFlagChangeEvents(t, flagCh, "flag1")
	})
}

func TestUpdateSinkSendsEventsForDependentFlagsOnUpsert(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		// flag1 has flag2 as a prerequisite, so a change to flag2 also affects flag1.
		flag1 := ldbuilders.NewFlagBuilder("flag1").Version(1).AddPrerequisite("flag2", 0).Build()
		flag2 := ldbuilders.NewFlagBuilder("flag2").Version(1).Build()
		flag3 := ldbuilders.NewFlagBuilder("flag3").Version(1).Build()
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Flags(flag1, flag2, flag3).Build()))

		flagCh := p.flagBroadcaster.AddListener()

		flag2v2 := ldbuilders.NewFlagBuilder("flag2").Version(2).Build()
		p.sink.Upsert(datakinds.Features, "flag2", st.FlagDescriptor(flag2v2))
		st.ExpectFlagChangeEvents(t, flagCh, "flag1", "flag2")
	})
}

func TestUpdateSinkSendsEventsForFlagsReferencingChangedSegment(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		flag1 := ldbuilders.NewFlagBuilder("flag1").Version(1).
			AddRule(ldbuilders.NewRuleBuilder().ID("r").Variation(0).
				Clauses(ldbuilders.SegmentMatchClause("segment1"))).
			Build()
		segment1 := ldbuilders.NewSegmentBuilder("segment1").Version(1).Build()
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Flags(flag1).Segments(segment1).Build()))

		flagCh := p.flagBroadcaster.AddListener()

		segment1v2 := ldbuilders.NewSegmentBuilder("segment1").Version(2).Build()
		p.sink.Upsert(datakinds.Segments, "segment1", st.SegmentDescriptor(segment1v2))
		st.ExpectFlagChangeEvents(t, flagCh, "flag1")
	})
}

func TestUpdateSinkSendsEventsForChangedFlagsOnReInit(t *testing.T) {
	withUpdateSinkParams(t, 0, func(p updateSinkTestParams) {
		flag1 := ldbuilders.NewFlagBuilder("flag1").Version(1).Build()
		flag2 := ldbuilders.NewFlagBuilder("flag2").Version(1).Build()
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Flags(flag1, flag2).Build()))

		flagCh := p.flagBroadcaster.AddListener()

		// flag1 is unchanged, flag2 has a new version, flag3 is added, so events are
		// expected for flag2 and flag3 only.
		flag2v2 := ldbuilders.NewFlagBuilder("flag2").Version(2).Build()
		flag3 := ldbuilders.NewFlagBuilder("flag3").Version(1).Build()
		require.True(t, p.sink.Init(st.NewDataSetBuilder().Flags(flag1, flag2v2, flag3).Build()))
		st.ExpectFlagChangeEvents(t, flagCh, "flag2", "flag3")
	})
}

func TestUpdateSinkOutageIsLoggedAtErrorLevelAfterTimeout(t *testing.T) {
	outageTimeout := 100 * time.Millisecond
	withUpdateSinkParams(t, outageTimeout, func(p updateSinkTestParams) {
		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		p.sink.UpdateStatus(interfaces.DataSourceStateInterrupted, interfaces.DataSourceErrorInfo{
			Kind:       interfaces.DataSourceErrorKindErrorResponse,
			StatusCode: 503,
		})

		require.Eventually(t, func() bool {
			return len(p.mockLog.GetOutput(ldlog.Error)) > 0
		}, time.Second, 20*time.Millisecond)
		assert.Contains(t, p.mockLog.GetOutput(ldlog.Error)[0], "ERROR_RESPONSE(503) (1 time)")
	})
}

func TestUpdateSinkOutageLoggingIsCanceledOnRecovery(t *testing.T) {
	outageTimeout := 200 * time.Millisecond
	withUpdateSinkParams(t, outageTimeout, func(p updateSinkTestParams) {
		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		p.sink.UpdateStatus(interfaces.DataSourceStateInterrupted, interfaces.DataSourceErrorInfo{
			Kind: interfaces.DataSourceErrorKindNetworkError,
		})
		p.sink.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})

		time.Sleep(outageTimeout + 100*time.Millisecond)
		assert.Len(t, p.mockLog.GetOutput(ldlog.Error), 0)
	})
}
