// Package dispatch fans review requests out to a backend with bounded
// concurrency and turns every request into exactly one result.
//
// Transient backend failures are retried with exponential backoff up to a
// configurable attempt limit; a request that still fails becomes a failed
// result rather than an error, so one flaky call never aborts the run.
// Fatal backend errors (bad credentials, unknown model) cancel the whole
// run immediately. A run-level deadline converts everything still pending
// into failed results with a timeout error.
//
// Results are re-associated with their requests by ID; callers re-sort by
// original order, never by arrival order.
package dispatch
