// Package registry maps calculator IDs to pure computation functions and
// provides the built-in fallback algorithms the engine uses when no
// algorithm was registered for an ID.
package registry
