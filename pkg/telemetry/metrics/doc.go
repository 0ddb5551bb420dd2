// Package metrics provides Prometheus instrumentation for the feasibility
// gate, the safety mode engine, and the promotion policy engine.
//
// All metric groups are nil-safe: an engine constructed without metrics
// simply records nothing, so tests and embedded uses need no registry.
package metrics
