// Package chunk turns parsed file changes into bounded, model-ready review
// requests.
//
// A [Builder] greedily packs consecutive hunks into chunks that fit the
// configured token budget; a single hunk larger than the budget is split at
// line boundaries with its header context carried into every sub-chunk.
// Concatenating the diff text of a file's requests in chunk order
// reconstructs the full hunk sequence with no line duplicated or dropped.
//
// Each chunk is wrapped in a fixed reviewer instruction template before it
// leaves the process, and secrets are redacted from the diff text first.
package chunk
