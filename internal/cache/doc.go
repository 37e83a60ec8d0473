// Package cache stores review responses on disk so that re-running a review
// over an unchanged pull request does not repeat paid model calls.
//
// Entries are JSON files keyed by a SHA-256 of backend, model, and prompt,
// with a TTL checked on read. A disabled cache is a no-op, never an error.
package cache
