// Package lifecycle owns the application state and every operation that
// changes it.
//
// A Manager holds the current snapshot (settings, records, templates) and
// is its only writer. Each mutating call builds the next snapshot from a
// copy, persists it through the store in one atomic write, and only then
// swaps it in. A failed save returns the error and leaves the in-memory
// state exactly as it was.
//
// Record states:
//
//	ACTIVE -> FINISHED   (terminal, MarkFinished)
//	ACTIVE -> deleted
//	FINISHED -> deleted
//
// Licensing is not checked here. Callers consult the license package
// before invoking gated operations.
package lifecycle
