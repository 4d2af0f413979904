// Package ldmodel contains the SDK's internal representation of feature flag and segment data.
//
// The types in this package are exported so that they can be used by data store integrations
// and by LaunchDarkly service code. Application code normally does not interact with them:
// flag and segment JSON is deserialized with the functions in this package, stored as opaque
// items, and evaluated by the evaluation package.
//
// The data model types are plain structs rather than encapsulated objects, and there is no
// validation when constructing them programmatically. Data received from LaunchDarkly is
// assumed to be well-formed; anything that is not becomes either a JSON parsing error or,
// at evaluation time, a non-match or MALFORMED_FLAG result.
package ldmodel
