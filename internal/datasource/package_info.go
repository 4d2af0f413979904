// Package datasource contains the default data source implementations (streaming and polling),
// the state machine that tracks data source status, and related internal helpers.
package datasource
