// Package models defines the domain records for the expense tracker.
//
// Records are plain values: services read them from storage, derive results
// (balances, suggestions, analytics) and write new records back. Nothing here
// caches derived state: balances in particular are always recomputed from the
// expense and settlement history, never stored.
//
// All money fields are decimal.Decimal and are persisted as exact strings.
// Timestamps are Unix seconds; calendar dates use time.Time truncated to the
// day.
package models
