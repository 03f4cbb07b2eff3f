// Package metrics defines the sinks that record solve observability data:
// the outcome of each solve, gap improvements seen by the termination
// monitor and the termination requests it issues. Sinks are built from
// configuration through a registry and combined with NewMultiSink when
// several are configured.
package metrics
