// Package stopwatch models stopwatches, their laps and the identifiers clients
// use to refer to them.
//
// Timing uses two separate readings per lap: a wall clock start for display
// and a monotonic timer reference for elapsed arithmetic. Durations are always
// computed on read, never cached.
//
// None of the types here are safe for concurrent use; the manager package owns
// every live Stopwatch and serialises access to it.
package stopwatch
