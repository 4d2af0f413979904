package ldevents

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
)

// Serialization of event data for the events service. The JSON schema used here is the
// current analytics event schema (see eventSchemaHeader in event_sender.go); the summary
// event counters are grouped by flag key, and context data appears either as a full
// "context" property (identify, index, and debug events, with private attributes redacted)
// or as a "contextKeys" map of kinds to keys (feature and custom events).
type eventOutputFormatter struct {
	contextFormatter eventContextFormatter
	config           EventsConfiguration
}

func newEventOutputFormatter(config EventsConfiguration) eventOutputFormatter {
	return eventOutputFormatter{
		contextFormatter: newEventContextFormatter(config),
		config:           config,
	}
}

// Produces a JSON array of event output objects from the given input events and summary
// state, returning the serialized data and the number of events written. Returns (nil, 0)
// if there is nothing to send.
func (ef eventOutputFormatter) makeOutputEvents(events []Event, summary eventSummary) ([]byte, int) {
	n := 0

	w := jwriter.NewWriter()
	arr := w.Array()

	for _, e := range events {
		ef.writeOutputEvent(&w, e)
		n++
	}
	if len(summary.flags) > 0 {
		ef.writeSummaryEvent(&w, summary)
		n++
	}

	arr.End()

	if n > 0 {
		return w.Bytes(), n
	}
	return nil, 0
}

func (ef eventOutputFormatter) writeOutputEvent(w *jwriter.Writer, evt Event) {
	obj := w.Object()

	switch evt := evt.(type) {
	case FeatureRequestEvent:
		kind := "feature"
		if evt.Debug {
			kind = "debug"
		}
		beginEventFields(&obj, kind, evt.CreationDate)
		obj.Name("key").String(evt.Key)
		if evt.Variation.IsDefined() {
			obj.Name("variation").Int(evt.Variation.IntValue())
		}
		if evt.Version.IsDefined() {
			obj.Name("version").Int(evt.Version.IntValue())
		}
		evt.Value.WriteToJSONWriter(obj.Name("value"))
		evt.Default.WriteToJSONWriter(obj.Name("default"))
		if evt.PrereqOf.IsDefined() {
			obj.Name("prereqOf").String(evt.PrereqOf.StringValue())
		}
		if evt.Reason.IsDefined() {
			evt.Reason.WriteToJSONWriter(obj.Name("reason"))
		}
		if evt.Debug {
			// debug events always contain the full context, since the purpose of event
			// debugging is to see all of the evaluation inputs
			ef.contextFormatter.WriteContext(obj.Name("context"), &evt.Context)
		} else {
			writeContextKeys(&obj, &evt.Context.context)
		}

	case CustomEvent:
		beginEventFields(&obj, "custom", evt.CreationDate)
		obj.Name("key").String(evt.Key)
		if !evt.Data.IsNull() {
			evt.Data.WriteToJSONWriter(obj.Name("data"))
		}
		if evt.HasMetric {
			obj.Name("metricValue").Float64(evt.MetricValue)
		}
		writeContextKeys(&obj, &evt.Context.context)

	case IdentifyEvent:
		beginEventFields(&obj, "identify", evt.CreationDate)
		ef.contextFormatter.WriteContext(obj.Name("context"), &evt.Context)

	case indexEvent:
		beginEventFields(&obj, "index", evt.CreationDate)
		ef.contextFormatter.WriteContext(obj.Name("context"), &evt.Context)
	}

	obj.End()
}

func beginEventFields(obj *jwriter.ObjectState, kind string, creationDate ldtime.UnixMillisecondTime) {
	obj.Name("kind").String(kind)
	obj.Name("creationDate").Float64(float64(creationDate))
}

func writeContextKeys(obj *jwriter.ObjectState, c *ldcontext.Context) {
	keysObj := obj.Name("contextKeys").Object()
	for i := 0; i < c.IndividualContextCount(); i++ {
		if ic := c.IndividualContextByIndex(i); ic.IsDefined() {
			keysObj.Name(string(ic.Kind())).String(ic.Key())
		}
	}
	keysObj.End()
}

// Transforms the summary data into the format used for the "summary" event kind.
func (ef eventOutputFormatter) writeSummaryEvent(w *jwriter.Writer, snapshot eventSummary) {
	obj := w.Object()

	obj.Name("kind").String("summary")
	obj.Name("startDate").Float64(float64(snapshot.startDate))
	obj.Name("endDate").Float64(float64(snapshot.endDate))

	flagsObj := obj.Name("features").Object()

	for flagKey, flag := range snapshot.flags {
		flagObj := flagsObj.Name(flagKey).Object()

		flag.defaultValue.WriteToJSONWriter(flagObj.Name("default"))

		kindsArr := flagObj.Name("contextKinds").Array()
		for kind := range flag.contextKinds {
			kindsArr.String(string(kind))
		}
		kindsArr.End()

		countersArr := flagObj.Name("counters").Array()

		for key, value := range flag.counters {
			counterObj := countersArr.Object()
			if key.variation.IsDefined() {
				counterObj.Name("variation").Int(key.variation.IntValue())
			}
			if key.version.IsDefined() {
				counterObj.Name("version").Int(key.version.IntValue())
			} else {
				// the flag did not exist at the time of the evaluation
				counterObj.Name("unknown").Bool(true)
			}
			value.flagValue.WriteToJSONWriter(counterObj.Name("value"))
			counterObj.Name("count").Int(value.count)
			counterObj.End()
		}

		countersArr.End()
		flagObj.End()
	}

	flagsObj.End()
	obj.End()
}
