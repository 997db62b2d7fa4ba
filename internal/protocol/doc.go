// Package protocol defines what crosses the socket between the stopwatchd
// client and daemon.
//
// Every connection carries exactly one Request followed by exactly one Reply,
// each encoded as a single line of JSON. The types here are deliberately plain
// data, decoupled from the stopwatch model, so the daemon can evolve its
// internals without breaking older clients. Breaking changes bump Version.
package protocol
