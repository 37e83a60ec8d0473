// Package cli wires the review pipeline into cobra commands and maps
// failures onto deterministic exit codes.
package cli
