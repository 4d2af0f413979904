// Package ldevents implements the LaunchDarkly analytics event pipeline: input event types,
// the asynchronous event processor, summarization, private attribute redaction, and delivery
// of event payloads to LaunchDarkly.
//
// Application code normally does not use this package directly; the SDK client creates and
// manages its own EventProcessor. The types are exported for use by LaunchDarkly service
// code and test tooling.
package ldevents
