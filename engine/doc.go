// Package engine orchestrates calculator execution: input validation,
// result caching behind canonicalized keys, algorithm dispatch with
// built-in fallbacks, per-call timeouts, single-flight miss coalescing,
// and performance recording.
package engine
