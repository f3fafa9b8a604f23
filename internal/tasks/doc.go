// Package tasks runs multi-item resolution jobs with real-time progress reporting.
//
// # Prefetch
//
// [Engine.Prefetch] fetches a listing (usually a playlist) and resolves a stream for each entry:
//   - Entries are resolved one at a time, paced by a [rate.Limiter] (default 2/s)
//   - A failed entry keeps its attempt log and does not stop the run
//   - A JSON manifest named after a random run id is written to the output directory
//
// [Engine.PrefetchListing] does the same for a listing the caller already holds.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
