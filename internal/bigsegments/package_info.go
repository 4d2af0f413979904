// Package bigsegments contains the internal implementation of Big Segments support: the
// store manager that caches membership queries and tracks store status, and the adapters
// that connect it to the evaluator and the public status provider.
package bigsegments
