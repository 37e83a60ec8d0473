// Package output renders run reports as markdown and writes the review
// artifact to disk.
package output
