// Package report aggregates per-chunk review results into an ordered,
// per-file run report ready for rendering.
package report
