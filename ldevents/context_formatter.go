package ldevents

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// eventContextFormatter provides the special JSON serialization format that is used when
// including context data in analytics events. In this format, some attribute values may be
// redacted based on the SDK's events configuration and/or the per-context setting of
// ldcontext.Builder.Private().
type eventContextFormatter struct {
	allAttributesPrivate bool
	privateAttributes    map[string]*privateAttrLookupNode
}

type privateAttrLookupNode struct {
	attribute *ldattr.Ref
	children  map[string]*privateAttrLookupNode
}

// Creates an eventContextFormatter.
//
// An instance of this type is owned by the eventOutputFormatter that is responsible for
// writing all JSON event data. It is created at SDK initialization time based on the SDK
// configuration.
func newEventContextFormatter(config EventsConfiguration) eventContextFormatter {
	ret := eventContextFormatter{allAttributesPrivate: config.AllAttributesPrivate}
	if len(config.PrivateAttributes) != 0 {
		// Reformat the list of private attributes into a map structure that will allow
		// for faster lookups.
		ret.privateAttributes = makePrivateAttrLookupData(config.PrivateAttributes)
	}
	return ret
}

// Builds a map structure that allows configured private attribute refs to be matched
// incrementally, one path component at a time. For instance, if the private attribute
// references are "a" and "b/c", the map looks like:
//
//	"a": {attribute: "a"}
//	"b": {children: {"c": {attribute: "b/c"}}}
func makePrivateAttrLookupData(attrRefList []ldattr.Ref) map[string]*privateAttrLookupNode {
	ret := make(map[string]*privateAttrLookupNode)
	for _, a := range attrRefList {
		parentMap := &ret
		for i := 0; i < a.Depth(); i++ {
			name := a.Component(i)
			if *parentMap == nil {
				*parentMap = make(map[string]*privateAttrLookupNode)
			}
			nextNode := (*parentMap)[name]
			if nextNode == nil {
				nextNode = &privateAttrLookupNode{}
				if i == a.Depth()-1 {
					aa := a
					nextNode.attribute = &aa
				}
				(*parentMap)[name] = nextNode
			}
			parentMap = &nextNode.children
		}
	}
	return ret
}

// WriteContext serializes a Context in the format appropriate for an analytics event,
// redacting private attributes if necessary.
func (f *eventContextFormatter) WriteContext(w *jwriter.Writer, ec *EventInputContext) {
	if ec.preserialized != nil {
		// If the context was already serialized, private attribute redaction has already
		// been done by whatever process produced that data.
		w.Raw(ec.preserialized)
		return
	}
	if ec.context.Err() != nil {
		w.AddError(ec.context.Err())
		return
	}
	if ec.context.Multiple() {
		f.writeContextInternalMulti(w, ec)
	} else {
		f.writeContextInternalSingle(w, &ec.context, true)
	}
}

func (f *eventContextFormatter) writeContextInternalSingle(
	w *jwriter.Writer,
	c *ldcontext.Context,
	includeKind bool,
) {
	obj := w.Object()
	if includeKind {
		obj.Name(ldattr.KindAttr).String(string(c.Kind()))
	}

	obj.Name(ldattr.KeyAttr).String(c.Key())

	optionalAttrNames := make([]string, 0, 50) // arbitrary capacity, expanded if necessary
	redactedAttrs := make([]string, 0, 20)

	optionalAttrNames = c.GetOptionalAttributeNames(optionalAttrNames)

	// An anonymous context kind gets the same treatment as allAttributesPrivate: its
	// attributes are never stored on the dashboard, so only the identifiers are sent.
	redactAll := f.allAttributesPrivate || c.Anonymous()

	for _, key := range optionalAttrNames {
		if value := c.GetValue(key); value.IsDefined() {
			if redactAll {
				// If all attributes are redacted, then there's no complex filtering or
				// recursing to be done: just add their names to the redacted list.
				escapedAttrName := ldattr.NewLiteralRef(key).String()
				redactedAttrs = append(redactedAttrs, escapedAttrName)
				continue
			}
			path := make([]string, 0, 10)
			f.writeFilteredAttribute(w, c, &obj, path, key, value, &redactedAttrs)
		}
	}

	if c.Anonymous() {
		obj.Name(ldattr.AnonymousAttr).Bool(true)
	}

	if len(redactedAttrs) > 0 {
		metaJSON := obj.Name("_meta").Object()
		privateAttrsJSON := metaJSON.Name("redactedAttributes").Array()
		for _, a := range redactedAttrs {
			privateAttrsJSON.String(a)
		}
		privateAttrsJSON.End()
		metaJSON.End()
	}

	obj.End()
}

func (f *eventContextFormatter) writeContextInternalMulti(w *jwriter.Writer, ec *EventInputContext) {
	obj := w.Object()
	obj.Name(ldattr.KindAttr).String(string(ldcontext.MultiKind))

	for i := 0; i < ec.context.IndividualContextCount(); i++ {
		mc := ec.context.IndividualContextByIndex(i)
		if !mc.IsDefined() {
			continue // COVERAGE: can't happen for a valid multi-kind context
		}
		f.writeContextInternalSingle(obj.Name(string(mc.Kind())), &mc, false)
	}

	obj.End()
}

// writeFilteredAttribute checks whether a context attribute needs to be redacted before
// writing it, recursing if it is an object value whose nested properties might be
// individually redacted.
func (f *eventContextFormatter) writeFilteredAttribute(
	w *jwriter.Writer,
	c *ldcontext.Context,
	parentObj *jwriter.ObjectState,
	parentPath []string,
	key string,
	value ldvalue.Value,
	redactedAttrs *[]string,
) {
	path := append(parentPath, key) //nolint:gocritic // purposely not copying the slice here

	isRedacted, nestedPropertiesAreRedacted := f.maybeRedact(c, path, value.Type(), redactedAttrs)
	if isRedacted {
		return
	}

	if value.Type() != ldvalue.ObjectType || !nestedPropertiesAreRedacted {
		// the attribute is not an object, or it is an object but none of its nested
		// properties need to be redacted, so we can write it as-is
		value.WriteToJSONWriter(parentObj.Name(key))
		return
	}

	// The value is an object, and some of its nested properties may be redacted, so we'll
	// need to write it one property at a time while recursively checking each one.
	subObj := parentObj.Name(key).Object()
	objectKeys := make([]string, 0, 50) // arbitrary capacity, expanded if necessary

	for _, subKey := range value.Keys(objectKeys) {
		subValue := value.GetByKey(subKey)
		f.writeFilteredAttribute(w, c, &subObj, path, subKey, subValue, redactedAttrs)
	}
	subObj.End()
}

// maybeRedact tests whether the attribute at the given path should be redacted entirely
// (first return value) and whether, if it is an object, some of its nested properties might
// need to be redacted (second return value).
func (f *eventContextFormatter) maybeRedact(
	c *ldcontext.Context,
	parentPath []string,
	valueType ldvalue.ValueType,
	redactedAttrs *[]string,
) (bool, bool) {
	// First check the globally configured private attributes.
	redactedAttrRef, nestedPropertiesAreRedacted := f.checkGlobalPrivateAttrRefs(parentPath)
	if redactedAttrRef != nil {
		*redactedAttrs = append(*redactedAttrs, redactedAttrRef.String())
		return true, false
	}

	// Then check any per-context private attributes.
	shouldCheckForNestedProperties := valueType == ldvalue.ObjectType
	for i := 0; i < c.PrivateAttributeCount(); i++ {
		a, _ := c.PrivateAttributeByIndex(i)
		depth := a.Depth()
		if depth < len(parentPath) {
			// If the attribute reference is, say, "a/b", then we don't need to consider it
			// at all if we are at a deeper path like "a/b/c".
			continue
		}
		if !shouldCheckForNestedProperties && depth > len(parentPath) {
			continue
		}
		match := true
		for j := 0; j < len(parentPath); j++ {
			if a.Component(j) != parentPath[j] {
				match = false
				break
			}
		}
		if match {
			if depth == len(parentPath) {
				*redactedAttrs = append(*redactedAttrs, a.String())
				return true, false
			}
			nestedPropertiesAreRedacted = true
		}
	}
	return false, nestedPropertiesAreRedacted
}

// checkGlobalPrivateAttrRefs walks the configured private attribute lookup map along the
// given path. The first return value is non-nil if the exact attribute path is private; the
// second return value is true if nested properties below this path might be private.
func (f *eventContextFormatter) checkGlobalPrivateAttrRefs(parentPath []string) (*ldattr.Ref, bool) {
	lookup := f.privateAttributes
	if lookup == nil {
		return nil, false
	}
	for _, pathComponent := range parentPath {
		nextNode, ok := lookup[pathComponent]
		if !ok {
			return nil, false
		}
		if nextNode.attribute != nil {
			return nextNode.attribute, false
		}
		lookup = nextNode.children
	}
	return nil, true
}
