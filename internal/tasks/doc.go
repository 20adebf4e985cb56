// Package tasks runs long-running watchlist operations with real-time progress reporting.
//
// # Core Operations
//
// [RefreshEngine] offers three operations:
//
//  1. [RefreshEngine.Refresh] : re-fetch catalog details for every catalog watchlist entry
//     - Custom entries are skipped; the catalog knows nothing about them
//     - Fetches run on a bounded worker pool, paced by a rate limiter
//     - Refreshed entries are written back through the watchlist reconciler
//     - Per-entry failures are collected, not fatal
//
//  2. [RefreshEngine.Export] : write the watchlist in several formats plus a manifest
//
//  3. [RefreshEngine.PollTrending] : check trending titles on an interval and raise notifications
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
