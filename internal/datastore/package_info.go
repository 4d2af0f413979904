// Package datastore contains the default in-memory data store implementation, the wrapper
// that provides caching and status monitoring for persistent data stores, and related
// internal helpers.
package datastore
