// Package observe provides observability primitives for calculator
// execution.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the calculation
// engine or their own dispatch path.
package observe
