// Package manager owns the live stopwatch collection.
//
// Manager holds the stopwatches in a slice ordered by access, last element
// most recent. It is not safe for concurrent use: Service runs it on a single
// goroutine and feeds it commands from a FIFO queue, so every command's
// lookup, mutation and re-insertion happens without interleaving.
package manager
