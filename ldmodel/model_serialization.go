package ldmodel

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldtime"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// DataModelSerialization defines an encoding for SDK data model objects.
//
// For the default JSON encoding used by LaunchDarkly SDKs, use NewJSONDataModelSerialization.
type DataModelSerialization interface {
	// MarshalFeatureFlag converts a FeatureFlag into its serialized encoding.
	MarshalFeatureFlag(item FeatureFlag) ([]byte, error)
	// MarshalSegment converts a Segment into its serialized encoding.
	MarshalSegment(item Segment) ([]byte, error)
	// UnmarshalFeatureFlag attempts to convert a FeatureFlag from its serialized encoding.
	UnmarshalFeatureFlag(data []byte) (FeatureFlag, error)
	// UnmarshalSegment attempts to convert a Segment from its serialized encoding.
	UnmarshalSegment(data []byte) (Segment, error)
}

type jsonDataModelSerialization struct{}

// NewJSONDataModelSerialization provides the default JSON encoding for SDK data model objects.
//
// Always use this rather than relying on json.Marshal() and json.Unmarshal(). The data model
// structs do also support those, but this API is guaranteed to use the most efficient mechanism.
func NewJSONDataModelSerialization() DataModelSerialization {
	return jsonDataModelSerialization{}
}

func (s jsonDataModelSerialization) MarshalFeatureFlag(item FeatureFlag) ([]byte, error) {
	return MarshalFeatureFlag(item)
}

func (s jsonDataModelSerialization) MarshalSegment(item Segment) ([]byte, error) {
	return MarshalSegment(item)
}

func (s jsonDataModelSerialization) UnmarshalFeatureFlag(data []byte) (FeatureFlag, error) {
	return UnmarshalFeatureFlag(data)
}

func (s jsonDataModelSerialization) UnmarshalSegment(data []byte) (Segment, error) {
	return UnmarshalSegment(data)
}

// MarshalFeatureFlag converts a FeatureFlag into its standard JSON encoding.
func MarshalFeatureFlag(item FeatureFlag) ([]byte, error) {
	w := jwriter.NewWriter()
	MarshalFeatureFlagToJSONWriter(item, &w)
	return w.Bytes(), w.Error()
}

// MarshalSegment converts a Segment into its standard JSON encoding.
func MarshalSegment(item Segment) ([]byte, error) {
	w := jwriter.NewWriter()
	MarshalSegmentToJSONWriter(item, &w)
	return w.Bytes(), w.Error()
}

// UnmarshalFeatureFlag parses a FeatureFlag from its standard JSON encoding, and preprocesses it
// for efficient evaluation.
func UnmarshalFeatureFlag(data []byte) (FeatureFlag, error) {
	r := jreader.NewReader(data)
	ret := readFeatureFlag(&r)
	if err := r.Error(); err != nil {
		return FeatureFlag{}, err
	}
	return ret, nil
}

// UnmarshalSegment parses a Segment from its standard JSON encoding, and preprocesses it for
// efficient evaluation.
func UnmarshalSegment(data []byte) (Segment, error) {
	r := jreader.NewReader(data)
	ret := readSegment(&r)
	if err := r.Error(); err != nil {
		return Segment{}, err
	}
	return ret, nil
}

// UnmarshalFeatureFlagFromJSONReader parses a FeatureFlag from an existing Reader, and
// preprocesses it for efficient evaluation. Any parsing error is reported through the
// Reader's error state.
func UnmarshalFeatureFlagFromJSONReader(reader *jreader.Reader) FeatureFlag {
	return readFeatureFlag(reader)
}

// UnmarshalSegmentFromJSONReader parses a Segment from an existing Reader, and preprocesses
// it for efficient evaluation. Any parsing error is reported through the Reader's error
// state.
func UnmarshalSegmentFromJSONReader(reader *jreader.Reader) Segment {
	return readSegment(reader)
}

// MarshalFeatureFlagToJSONWriter writes the standard JSON encoding of a FeatureFlag to an
// existing Writer.
func MarshalFeatureFlagToJSONWriter(item FeatureFlag, writer *jwriter.Writer) {
	obj := writer.Object()

	obj.Name("key").String(item.Key)
	obj.Name("on").Bool(item.On)

	prereqsArr := obj.Name("prerequisites").Array()
	for _, p := range item.Prerequisites {
		prereqObj := writer.Object()
		prereqObj.Name("key").String(p.Key)
		prereqObj.Name("variation").Int(p.Variation)
		prereqObj.End()
	}
	prereqsArr.End()

	writeTargets(writer, obj.Name("targets").Array(), item.Targets, false)
	writeTargets(writer, obj.Name("contextTargets").Array(), item.ContextTargets, true)

	rulesArr := obj.Name("rules").Array()
	for _, rule := range item.Rules {
		ruleObj := writer.Object()
		writeVariationOrRollout(writer, &ruleObj, rule.VariationOrRollout)
		ruleObj.Name("id").String(rule.ID)
		writeClauses(writer, &ruleObj, rule.Clauses)
		ruleObj.Name("trackEvents").Bool(rule.TrackEvents)
		ruleObj.End()
	}
	rulesArr.End()

	fallthroughObj := obj.Name("fallthrough").Object()
	writeVariationOrRollout(writer, &fallthroughObj, item.Fallthrough)
	fallthroughObj.End()

	obj.Maybe("offVariation", item.OffVariation.IsDefined()).Int(item.OffVariation.OrElse(0))

	variationsArr := obj.Name("variations").Array()
	for _, v := range item.Variations {
		v.WriteToJSONWriter(writer)
	}
	variationsArr.End()

	if item.ClientSideAvailability.Explicit {
		csaObj := obj.Name("clientSideAvailability").Object()
		csaObj.Name("usingMobileKey").Bool(item.ClientSideAvailability.UsingMobileKey)
		csaObj.Name("usingEnvironmentId").Bool(item.ClientSideAvailability.UsingEnvironmentID)
		csaObj.End()
	}
	obj.Name("clientSide").Bool(item.ClientSideAvailability.UsingEnvironmentID)

	obj.Name("salt").String(item.Salt)
	obj.Name("trackEvents").Bool(item.TrackEvents)
	obj.Name("trackEventsFallthrough").Bool(item.TrackEventsFallthrough)
	obj.Maybe("debugEventsUntilDate", item.DebugEventsUntilDate > 0).
		Float64(float64(item.DebugEventsUntilDate))
	obj.Name("version").Int(item.Version)
	obj.Name("deleted").Bool(item.Deleted)

	obj.End()
}

// MarshalSegmentToJSONWriter writes the standard JSON encoding of a Segment to an existing
// Writer.
func MarshalSegmentToJSONWriter(item Segment, writer *jwriter.Writer) {
	obj := writer.Object()

	obj.Name("key").String(item.Key)

	writeStringArray(writer, obj.Name("included").Array(), item.Included)
	writeStringArray(writer, obj.Name("excluded").Array(), item.Excluded)
	writeSegmentTargets(writer, obj.Name("includedContexts").Array(), item.IncludedContexts)
	writeSegmentTargets(writer, obj.Name("excludedContexts").Array(), item.ExcludedContexts)

	obj.Name("salt").String(item.Salt)

	rulesArr := obj.Name("rules").Array()
	for _, rule := range item.Rules {
		ruleObj := writer.Object()
		ruleObj.Name("id").String(rule.ID)
		writeClauses(writer, &ruleObj, rule.Clauses)
		ruleObj.Maybe("weight", rule.Weight.IsDefined()).Int(rule.Weight.OrElse(0))
		ruleObj.Maybe("bucketBy", rule.BucketBy.IsDefined()).
			String(attrRefOrName(rule.BucketBy, rule.RolloutContextKind != ""))
		ruleObj.Maybe("rolloutContextKind", rule.RolloutContextKind != "").
			String(string(rule.RolloutContextKind))
		ruleObj.End()
	}
	rulesArr.End()

	obj.Maybe("unbounded", item.Unbounded).Bool(item.Unbounded)
	obj.Maybe("unboundedContextKind", item.UnboundedContextKind != "").
		String(string(item.UnboundedContextKind))
	obj.Maybe("generation", item.Generation.IsDefined()).Int(item.Generation.OrElse(0))

	obj.Name("version").Int(item.Version)
	obj.Name("deleted").Bool(item.Deleted)

	obj.End()
}

// MarshalJSON implements the json.Marshaler interface for FeatureFlag.
func (f FeatureFlag) MarshalJSON() ([]byte, error) {
	return MarshalFeatureFlag(f)
}

// MarshalJSON implements the json.Marshaler interface for Segment.
func (s Segment) MarshalJSON() ([]byte, error) {
	return MarshalSegment(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface for FeatureFlag.
func (f *FeatureFlag) UnmarshalJSON(data []byte) error {
	result, err := UnmarshalFeatureFlag(data)
	if err == nil {
		*f = result
	}
	return err
}

// UnmarshalJSON implements the json.Unmarshaler interface for Segment.
func (s *Segment) UnmarshalJSON(data []byte) error {
	result, err := UnmarshalSegment(data)
	if err == nil {
		*s = result
	}
	return err
}

func writeStringArray(w *jwriter.Writer, arr jwriter.ArrayState, values []string) {
	for _, v := range values {
		w.String(v)
	}
	arr.End()
}

func writeTargets(w *jwriter.Writer, arr jwriter.ArrayState, targets []Target, withKind bool) {
	for _, t := range targets {
		tObj := w.Object()
		if withKind {
			tObj.Maybe("contextKind", t.ContextKind != "").String(string(t.ContextKind))
		}
		writeStringArray(w, tObj.Name("values").Array(), t.Values)
		tObj.Name("variation").Int(t.Variation)
		tObj.End()
	}
	arr.End()
}

func writeSegmentTargets(w *jwriter.Writer, arr jwriter.ArrayState, targets []SegmentTarget) {
	for _, t := range targets {
		tObj := w.Object()
		tObj.Maybe("contextKind", t.ContextKind != "").String(string(t.ContextKind))
		writeStringArray(w, tObj.Name("values").Array(), t.Values)
		tObj.End()
	}
	arr.End()
}

func writeVariationOrRollout(w *jwriter.Writer, obj *jwriter.ObjectState, vr VariationOrRollout) {
	obj.Maybe("variation", vr.Variation.IsDefined()).Int(vr.Variation.OrElse(0))
	if len(vr.Rollout.Variations) > 0 {
		rolloutObj := obj.Name("rollout").Object()
		rolloutObj.Maybe("kind", vr.Rollout.Kind != "").String(string(vr.Rollout.Kind))
		rolloutObj.Maybe("contextKind", vr.Rollout.ContextKind != "").
			String(string(vr.Rollout.ContextKind))
		variationsArr := rolloutObj.Name("variations").Array()
		for _, wv := range vr.Rollout.Variations {
			wvObj := w.Object()
			wvObj.Name("variation").Int(wv.Variation)
			wvObj.Name("weight").Int(wv.Weight)
			wvObj.Maybe("untracked", wv.Untracked).Bool(wv.Untracked)
			wvObj.End()
		}
		variationsArr.End()
		rolloutObj.Maybe("bucketBy", vr.Rollout.BucketBy.IsDefined()).
			String(attrRefOrName(vr.Rollout.BucketBy, vr.Rollout.ContextKind != ""))
		rolloutObj.Maybe("seed", vr.Rollout.Seed.IsDefined()).Int(vr.Rollout.Seed.OrElse(0))
		rolloutObj.End()
	}
}

func writeClauses(w *jwriter.Writer, obj *jwriter.ObjectState, clauses []Clause) {
	clausesArr := obj.Name("clauses").Array()
	for _, c := range clauses {
		cObj := w.Object()
		cObj.Maybe("contextKind", c.ContextKind != "").String(string(c.ContextKind))
		cObj.Name("attribute").String(attrRefOrName(c.Attribute, c.ContextKind != ""))
		cObj.Name("op").String(string(c.Op))
		valuesArr := cObj.Name("values").Array()
		for _, v := range c.Values {
			v.WriteToJSONWriter(w)
		}
		valuesArr.End()
		cObj.Name("negate").Bool(c.Negate)
		cObj.End()
	}
	clausesArr.End()
}

// attrRefOrName returns the serialized form of an attribute reference. In the newer schema,
// where a context kind accompanies it, the attribute is a slash-delimited path; in the older
// schema it is a plain attribute name, so a single-component ref of either origin serializes
// back to the bare name.
func attrRefOrName(ref ldattr.Ref, newSchema bool) string {
	if !newSchema && ref.Depth() == 1 {
		return ref.Component(0)
	}
	return ref.String()
}

// parseAttrRefOrName converts a serialized attribute into an ldattr.Ref, interpreting it as a
// path if a context kind accompanied it in the data, or as a plain name otherwise.
func parseAttrRefOrName(raw string, newSchema bool) ldattr.Ref {
	if raw == "" {
		return ldattr.Ref{}
	}
	if newSchema {
		return ldattr.NewRef(raw)
	}
	return ldattr.NewLiteralRef(raw)
}

func readFeatureFlag(r *jreader.Reader) FeatureFlag {
	var ret FeatureFlag
	ret.ClientSideAvailability.UsingMobileKey = true
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			ret.Key = r.String()
		case "on":
			ret.On = r.Bool()
		case "prerequisites":
			for arr := r.Array(); arr.Next(); {
				var p Prerequisite
				for pObj := r.Object(); pObj.Next(); {
					switch string(pObj.Name()) {
					case "key":
						p.Key = r.String()
					case "variation":
						p.Variation = r.Int()
					default:
						r.SkipValue()
					}
				}
				ret.Prerequisites = append(ret.Prerequisites, p)
			}
		case "targets":
			ret.Targets = readTargets(r)
		case "contextTargets":
			ret.ContextTargets = readTargets(r)
		case "rules":
			for arr := r.Array(); arr.Next(); {
				ret.Rules = append(ret.Rules, readFlagRule(r))
			}
		case "fallthrough":
			ret.Fallthrough = readVariationOrRollout(r)
		case "offVariation":
			ret.OffVariation = ldvalue.NewOptionalInt(r.Int())
		case "variations":
			for arr := r.Array(); arr.Next(); {
				var v ldvalue.Value
				v.ReadFromJSONReader(r)
				ret.Variations = append(ret.Variations, v)
			}
		case "clientSideAvailability":
			ret.ClientSideAvailability.Explicit = true
			for csaObj := r.Object(); csaObj.Next(); {
				switch string(csaObj.Name()) {
				case "usingMobileKey":
					ret.ClientSideAvailability.UsingMobileKey = r.Bool()
				case "usingEnvironmentId":
					ret.ClientSideAvailability.UsingEnvironmentID = r.Bool()
				default:
					r.SkipValue()
				}
			}
		case "clientSide":
			if value := r.Bool(); !ret.ClientSideAvailability.Explicit {
				ret.ClientSideAvailability.UsingEnvironmentID = value
			}
		case "salt":
			ret.Salt = r.String()
		case "trackEvents":
			ret.TrackEvents = r.Bool()
		case "trackEventsFallthrough":
			ret.TrackEventsFallthrough = r.Bool()
		case "debugEventsUntilDate":
			ret.DebugEventsUntilDate = ldtime.UnixMillisecondTime(r.Float64())
		case "version":
			ret.Version = r.Int()
		case "deleted":
			ret.Deleted = r.Bool()
		default:
			r.SkipValue()
		}
	}
	if r.Error() == nil {
		PreprocessFlag(&ret)
	}
	return ret
}

func readSegment(r *jreader.Reader) Segment {
	var ret Segment
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			ret.Key = r.String()
		case "included":
			ret.Included = readStringArray(r)
		case "excluded":
			ret.Excluded = readStringArray(r)
		case "includedContexts":
			ret.IncludedContexts = readSegmentTargets(r)
		case "excludedContexts":
			ret.ExcludedContexts = readSegmentTargets(r)
		case "salt":
			ret.Salt = r.String()
		case "rules":
			for arr := r.Array(); arr.Next(); {
				ret.Rules = append(ret.Rules, readSegmentRule(r))
			}
		case "unbounded":
			ret.Unbounded = r.Bool()
		case "unboundedContextKind":
			ret.UnboundedContextKind = ldcontext.Kind(r.String())
		case "generation":
			ret.Generation = ldvalue.NewOptionalInt(r.Int())
		case "version":
			ret.Version = r.Int()
		case "deleted":
			ret.Deleted = r.Bool()
		default:
			r.SkipValue()
		}
	}
	if r.Error() == nil {
		PreprocessSegment(&ret)
	}
	return ret
}

func readStringArray(r *jreader.Reader) []string {
	var ret []string
	for arr := r.Array(); arr.Next(); {
		ret = append(ret, r.String())
	}
	return ret
}

func readTargets(r *jreader.Reader) []Target {
	var ret []Target
	for arr := r.Array(); arr.Next(); {
		var t Target
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				t.ContextKind = ldcontext.Kind(r.String())
			case "values":
				t.Values = readStringArray(r)
			case "variation":
				t.Variation = r.Int()
			default:
				r.SkipValue()
			}
		}
		ret = append(ret, t)
	}
	return ret
}

func readSegmentTargets(r *jreader.Reader) []SegmentTarget {
	var ret []SegmentTarget
	for arr := r.Array(); arr.Next(); {
		var t SegmentTarget
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				t.ContextKind = ldcontext.Kind(r.String())
			case "values":
				t.Values = readStringArray(r)
			default:
				r.SkipValue()
			}
		}
		ret = append(ret, t)
	}
	return ret
}

func readFlagRule(r *jreader.Reader) FlagRule {
	var ret FlagRule
	var rawRollout rolloutFields
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "variation":
			ret.Variation = ldvalue.NewOptionalInt(r.Int())
		case "rollout":
			rawRollout = readRolloutFields(r)
		case "id":
			ret.ID = r.String()
		case "clauses":
			ret.Clauses = readClauses(r)
		case "trackEvents":
			ret.TrackEvents = r.Bool()
		default:
			r.SkipValue()
		}
	}
	ret.Rollout = rawRollout.toRollout()
	return ret
}

func readVariationOrRollout(r *jreader.Reader) VariationOrRollout {
	var ret VariationOrRollout
	var rawRollout rolloutFields
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "variation":
			ret.Variation = ldvalue.NewOptionalInt(r.Int())
		case "rollout":
			rawRollout = readRolloutFields(r)
		default:
			r.SkipValue()
		}
	}
	ret.Rollout = rawRollout.toRollout()
	return ret
}

// rolloutFields buffers rollout properties during parsing; the bucketBy attribute cannot be
// interpreted until we know whether a context kind was present, and JSON property order is
// arbitrary.
type rolloutFields struct {
	kind        RolloutKind
	contextKind ldcontext.Kind
	variations  []WeightedVariation
	bucketBy    string
	seed        ldvalue.OptionalInt
}

func (rf rolloutFields) toRollout() Rollout {
	return Rollout{
		Kind:        rf.kind,
		ContextKind: rf.contextKind,
		Variations:  rf.variations,
		BucketBy:    parseAttrRefOrName(rf.bucketBy, rf.contextKind != ""),
		Seed:        rf.seed,
	}
}

func readRolloutFields(r *jreader.Reader) rolloutFields {
	var ret rolloutFields
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "kind":
			ret.kind = RolloutKind(r.String())
		case "contextKind":
			ret.contextKind = ldcontext.Kind(r.String())
		case "variations":
			for arr := r.Array(); arr.Next(); {
				var wv WeightedVariation
				for wvObj := r.Object(); wvObj.Next(); {
					switch string(wvObj.Name()) {
					case "variation":
						wv.Variation = r.Int()
					case "weight":
						wv.Weight = r.Int()
					case "untracked":
						wv.Untracked = r.Bool()
					default:
						r.SkipValue()
					}
				}
				ret.variations = append(ret.variations, wv)
			}
		case "bucketBy":
			ret.bucketBy = r.String()
		case "seed":
			ret.seed = ldvalue.NewOptionalInt(r.Int())
		default:
			r.SkipValue()
		}
	}
	return ret
}

func readSegmentRule(r *jreader.Reader) SegmentRule {
	var ret SegmentRule
	var rawBucketBy string
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "id":
			ret.ID = r.String()
		case "clauses":
			ret.Clauses = readClauses(r)
		case "weight":
			ret.Weight = ldvalue.NewOptionalInt(r.Int())
		case "bucketBy":
			rawBucketBy = r.String()
		case "rolloutContextKind":
			ret.RolloutContextKind = ldcontext.Kind(r.String())
		default:
			r.SkipValue()
		}
	}
	ret.BucketBy = parseAttrRefOrName(rawBucketBy, ret.RolloutContextKind != "")
	return ret
}

func readClauses(r *jreader.Reader) []Clause {
	var ret []Clause
	for arr := r.Array(); arr.Next(); {
		var c Clause
		var rawAttr string
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				c.ContextKind = ldcontext.Kind(r.String())
			case "attribute":
				rawAttr = r.String()
			case "op":
				c.Op = Operator(r.String())
			case "values":
				for valuesArr := r.Array(); valuesArr.Next(); {
					var v ldvalue.Value
					v.ReadFromJSONReader(r)
					c.Values = append(c.Values, v)
				}
			case "negate":
				c.Negate = r.Bool()
			default:
				r.SkipValue()
			}
		}
		c.Attribute = parseAttrRefOrName(rawAttr, c.ContextKind != "")
		ret = append(ret, c)
	}
	return ret
}
