package ldevents

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSummarizeEvent(
	flagKey string,
	version int,
	variation int,
	value ldvalue.Value,
	defaultVal ldvalue.Value,
) FeatureRequestEvent {
	return defaultEventFactory.NewEvalEvent(
		FlagEventProperties{Key: flagKey, Version: version},
		basicContext(),
		ldreason.NewEvaluationDetail(value, variation, ldreason.NewEvalReasonFallthrough()),
		false,
		defaultVal,
		"",
	)
}

func TestSummarizeEventSetsStartAndEndDates(t *testing.T) {
	es := newEventSummarizer()
	event1 := makeSummarizeEvent("key", 1, 0, ldvalue.Bool(true), ldvalue.Null())
	event2 := event1
	event3 := event1
	event1.CreationDate = 2000
	event2.CreationDate = 1000
	event3.CreationDate = 1500
	es.summarizeEvent(event1)
	es.summarizeEvent(event2)
	es.summarizeEvent(event3)

	summary := es.snapshot()
	assert.Equal(t, uint64(1000), uint64(summary.startDate))
	assert.Equal(t, uint64(2000), uint64(summary.endDate))
}

func TestSummarizeEventIncrementsCounters(t *testing.T) {
	es := newEventSummarizer()
	es.summarizeEvent(makeSummarizeEvent("key1", 11, 1, ldvalue.String("value1"), ldvalue.String("default1")))
	es.summarizeEvent(makeSummarizeEvent("key1", 11, 2, ldvalue.String("value2"), ldvalue.String("default1")))
	es.summarizeEvent(makeSummarizeEvent("key1", 11, 1, ldvalue.String("value1"), ldvalue.String("default1")))
	es.summarizeEvent(makeSummarizeEvent("key2", 22, 1, ldvalue.String("value99"), ldvalue.String("default2")))

	summary := es.snapshot()
	require.Len(t, summary.flags, 2)

	flag1 := summary.flags["key1"]
	require.Len(t, flag1.counters, 2)
	assert.Equal(t, ldvalue.String("default1"), flag1.defaultValue)

	counter1 := flag1.counters[counterKey{variation: ldvalue.NewOptionalInt(1), version: ldvalue.NewOptionalInt(11)}]
	require.NotNil(t, counter1)
	assert.Equal(t, 2, counter1.count)
	assert.Equal(t, ldvalue.String("value1"), counter1.flagValue)

	counter2 := flag1.counters[counterKey{variation: ldvalue.NewOptionalInt(2), version: ldvalue.NewOptionalInt(11)}]
	require.NotNil(t, counter2)
	assert.Equal(t, 1, counter2.count)

	flag2 := summary.flags["key2"]
	require.Len(t, flag2.counters, 1)
}

func TestSummarizeEventDistinguishesDifferentVersions(t *testing.T) {
	es := newEventSummarizer()
	es.summarizeEvent(makeSummarizeEvent("key1", 11, 1, ldvalue.String("value1"), ldvalue.Null()))
	es.summarizeEvent(makeSummarizeEvent("key1", 22, 1, ldvalue.String("value1"), ldvalue.Null()))

	summary := es.snapshot()
	flag := summary.flags["key1"]
	require.Len(t, flag.counters, 2)
}

func TestSummarizeEventForUnknownFlag(t *testing.T) {
	es := newEventSummarizer()
	event := defaultEventFactory.NewUnknownFlagEvent("badkey", basicContext(), ldvalue.String("default"),
		ldreason.NewEvalReasonError(ldreason.EvalErrorFlagNotFound))
	es.summarizeEvent(event)

	summary := es.snapshot()
	flag := summary.flags["badkey"]
	require.Len(t, flag.counters, 1)
	counter := flag.counters[counterKey{}]
	require.NotNil(t, counter)
	assert.Equal(t, 1, counter.count)
	assert.Equal(t, ldvalue.String("default"), counter.flagValue)
}

func TestSummarizeEventRecordsContextKinds(t *testing.T) {
	es := newEventSummarizer()
	multi := ldcontext.NewMulti(
		ldcontext.New("userkey"),
		ldcontext.NewWithKind("org", "orgkey"),
	)
	event := defaultEventFactory.NewEvalEvent(
		FlagEventProperties{Key: "key1", Version: 1},
		Context(multi),
		ldreason.NewEvaluationDetail(ldvalue.Bool(true), 0, ldreason.NewEvalReasonFallthrough()),
		false,
		ldvalue.Null(),
		"",
	)
	es.summarizeEvent(event)

	summary := es.snapshot()
	flag := summary.flags["key1"]
	assert.Equal(t, map[ldcontext.Kind]struct{}{
		ldcontext.DefaultKind: {},
		ldcontext.Kind("org"): {},
	}, flag.contextKinds)
}

func TestSummarizerResetClearsState(t *testing.T) {
	es := newEventSummarizer()
	es.summarizeEvent(makeSummarizeEvent("key1", 11, 1, ldvalue.String("value1"), ldvalue.Null()))
	es.reset()

	summary := es.snapshot()
	assert.Len(t, summary.flags, 0)
	assert.Equal(t, uint64(0), uint64(summary.startDate))
	assert.Equal(t, uint64(0), uint64(summary.endDate))
}
