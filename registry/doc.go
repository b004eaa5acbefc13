// Package registry tracks every live mask binding in the process.
//
// Create instantiates a binding, assigns it a generated id and inserts
// the record; an instantiation failure inserts nothing. Remove is
// idempotent and runs the binding's teardown exactly once. RemoveAll is
// the shutdown safety net: it tears down every record, logs individual
// teardown failures instead of propagating them, and always leaves the
// registry empty.
//
// Registries are plain values; tests construct isolated instances
// instead of sharing process globals.
package registry
