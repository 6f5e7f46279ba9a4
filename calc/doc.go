// Package calc defines the shared data model for calculator execution.
//
// It provides input schemas (Descriptor, InputSpec), constraint validation
// that collects every violation for form display, and the immutable
// calculation Result shape with its accuracy classification.
package calc
