package gitdiff

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FileStatus describes what happened to a file between base and head.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// Marker classifies a single diff line.
type Marker string

const (
	MarkerAdd     Marker = "+"
	MarkerRemove  Marker = "-"
	MarkerContext Marker = " "
)

// Line is one line of a hunk with its diff marker.
type Line struct {
	Marker Marker
	Text   string
}

// Hunk is a contiguous block of changed and context lines.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	// Section is the trailing context on the @@ header line, e.g. the
	// enclosing function name.
	Section string
	Lines   []Line
}

// Header renders the canonical @@ header for the hunk.
func (h Hunk) Header() string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if h.Section != "" {
		header += " " + h.Section
	}
	return header
}

// Text renders the hunk as unified-diff text, header included.
func (h Hunk) Text() string {
	var b strings.Builder
	b.WriteString(h.Header())
	b.WriteString("\n")
	for _, line := range h.Lines {
		b.WriteString(string(line.Marker))
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// FileChange holds the parsed diff for a single file.
type FileChange struct {
	Path    string
	OldPath string // set for renames
	Status  FileStatus
	Binary  bool
	Hunks   []Hunk
}

// ChangeSet is the ordered result of one base..head comparison. It is
// immutable after extraction.
type ChangeSet struct {
	BaseRef   string
	HeadRef   string
	MergeBase string
	Files     []FileChange
}

// RefNotFoundError indicates a ref that does not resolve to a commit in the
// checked-out history.
type RefNotFoundError struct {
	Ref string
	Err error
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("ref %q not found in repository history", e.Ref)
}

func (e *RefNotFoundError) Unwrap() error { return e.Err }

// NoCommonAncestorError indicates the two refs share no merge base, usually
// because the checkout is too shallow to contain it.
type NoCommonAncestorError struct {
	BaseRef string
	HeadRef string
}

func (e *NoCommonAncestorError) Error() string {
	return fmt.Sprintf("no common ancestor between %q and %q (is the checkout deep enough?)", e.BaseRef, e.HeadRef)
}

// Options controls diff extraction.
type Options struct {
	// RepoDir is the repository to read. Empty means the current directory.
	RepoDir string
	// ContextLines is passed to git as -U<n>. Zero keeps git's default.
	ContextLines int
}

// Extract compares base and head and returns the parsed change set.
// Both refs must resolve and be connected through a common ancestor; the
// diff is taken from the merge base to head so only changes introduced on
// the head side are reviewed.
func Extract(ctx context.Context, baseRef, headRef string, opts Options) (*ChangeSet, error) {
	for _, ref := range []string{baseRef, headRef} {
		if _, err := gitOutput(ctx, opts.RepoDir, "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err != nil {
			return nil, &RefNotFoundError{Ref: ref, Err: err}
		}
	}

	mergeBase, err := gitOutput(ctx, opts.RepoDir, "merge-base", baseRef, headRef)
	if err != nil {
		return nil, &NoCommonAncestorError{BaseRef: baseRef, HeadRef: headRef}
	}
	mergeBase = strings.TrimSpace(mergeBase)
	if mergeBase == "" {
		return nil, &NoCommonAncestorError{BaseRef: baseRef, HeadRef: headRef}
	}

	args := []string{"diff", "--find-renames"}
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, mergeBase, headRef)

	diff, err := gitOutput(ctx, opts.RepoDir, args...)
	if err != nil {
		return nil, fmt.Errorf("git diff %s %s: %w", mergeBase, headRef, err)
	}

	files, err := ParseUnified(diff)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	return &ChangeSet{
		BaseRef:   baseRef,
		HeadRef:   headRef,
		MergeBase: mergeBase,
		Files:     files,
	}, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
