// Package evaluation contains the feature flag evaluation engine.
//
// This logic is used by the SDK client and is not intended for direct use by applications.
// It is in its own package, with the data model it operates on in ldmodel, so that it can
// also be consumed by LaunchDarkly services and tools that need to evaluate flags outside
// of an SDK client instance.
package evaluation
