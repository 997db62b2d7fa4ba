// Package errors provides the classified error primitives used across stopwatchd.
//
// A ClassifiedError carries a category (what went wrong), a severity (how bad)
// and a retry strategy (what a caller may do about it). Errors are built with a
// fluent builder:
//
//	err := errors.TransportError("dial daemon socket").
//		WithContext("socket", path).
//		WithCause(dialErr).
//		Build()
//
// The CLI adapter turns a classified error into a user-facing message and a
// process exit code for the short-lived client commands.
package errors
