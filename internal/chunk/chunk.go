package chunk

import (
	"strings"

	"github.com/google/uuid"

	"github.com/marlonsouza/magic-pipe/internal/gitdiff"
	"github.com/marlonsouza/magic-pipe/internal/redact"
)

// DefaultMaxPromptTokens bounds a single request when no budget is configured.
const DefaultMaxPromptTokens = 6000

// bytesPerToken is the conservative chars-per-token estimate used to map the
// token budget onto diff bytes.
const bytesPerToken = 4

// TokenBudget bounds the size of a single review request.
type TokenBudget struct {
	MaxPromptTokens int
}

// estimateTokens approximates the token count of text.
func estimateTokens(text string) int {
	return (len(text) + bytesPerToken - 1) / bytesPerToken
}

// ReviewRequest is one bounded unit of review work. It is created here,
// dispatched exactly once, and discarded after its result is recorded.
type ReviewRequest struct {
	ID         string
	FilePath   string
	Prompt     string
	ChunkIndex int
	ChunkCount int
	// DiffText is the exact diff slice this request covers. Concatenating
	// DiffText over a file's requests in order reproduces its hunks.
	DiffText string
	// HunkContext carries the @@ header for sub-chunks of a split hunk
	// whose DiffText no longer starts with it.
	HunkContext string
	// Truncated marks a chunk whose diff had to be cut to fit the budget.
	Truncated bool
}

// Options controls prompt construction.
type Options struct {
	// Detailed expands the instruction template with per-change guidance.
	Detailed bool
	// RedactSecrets scrubs secret-looking material from diff text before it
	// is embedded in a prompt.
	RedactSecrets bool
}

// Builder converts file changes into review requests under a token budget.
type Builder struct {
	budget TokenBudget
	opts   Options
}

// NewBuilder returns a Builder for the given budget. A zero budget falls
// back to DefaultMaxPromptTokens.
func NewBuilder(budget TokenBudget, opts Options) *Builder {
	if budget.MaxPromptTokens <= 0 {
		budget.MaxPromptTokens = DefaultMaxPromptTokens
	}
	return &Builder{budget: budget, opts: opts}
}

// Build returns the ordered review requests for a single file change.
// A change with no hunks (binary, pure rename, mode change) yields none,
// and deletions are skipped outright: there is no code left to review.
func (b *Builder) Build(change gitdiff.FileChange) ([]ReviewRequest, error) {
	if len(change.Hunks) == 0 || change.Status == gitdiff.StatusDeleted {
		return nil, nil
	}

	diffBudget := b.diffByteBudget(change)

	var pieces []piece
	for _, hunk := range change.Hunks {
		text := hunk.Text()
		if b.opts.RedactSecrets {
			text = redact.Secrets(text)
		}
		if len(text) <= diffBudget {
			pieces = appendPacked(pieces, text, diffBudget)
			continue
		}
		pieces = append(pieces, splitHunk(hunk, text, diffBudget)...)
	}

	requests := make([]ReviewRequest, 0, len(pieces))
	for i, p := range pieces {
		requests = append(requests, ReviewRequest{
			ID:          uuid.NewString(),
			FilePath:    change.Path,
			ChunkIndex:  i,
			ChunkCount:  len(pieces),
			DiffText:    p.text,
			HunkContext: p.context,
			Truncated:   p.truncated,
		})
	}
	for i := range requests {
		requests[i].Prompt = buildPrompt(change, requests[i], b.opts.Detailed)
	}
	return requests, nil
}

// diffByteBudget converts the token budget into bytes available for diff
// text once the instruction template is accounted for.
func (b *Builder) diffByteBudget(change gitdiff.FileChange) int {
	overhead := estimateTokens(buildPrompt(change, ReviewRequest{ChunkCount: 1}, b.opts.Detailed))
	budget := (b.budget.MaxPromptTokens - overhead) * bytesPerToken
	if budget < minDiffBudget {
		budget = minDiffBudget
	}
	return budget
}

// minDiffBudget keeps splitting sane when the configured budget is smaller
// than the template itself.
const minDiffBudget = 256

type piece struct {
	text      string
	context   string
	truncated bool
}

// appendPacked merges text into the last open piece when it still fits,
// otherwise starts a new one.
func appendPacked(pieces []piece, text string, budget int) []piece {
	if n := len(pieces); n > 0 && !pieces[n-1].truncated && len(pieces[n-1].text)+len(text) <= budget {
		pieces[n-1].text += text
		return pieces
	}
	return append(pieces, piece{text: text})
}

// splitHunk cuts an oversized hunk at line boundaries. The first sub-chunk
// keeps the @@ header line in its text; later sub-chunks carry it as
// HunkContext instead, so concatenating sub-chunk text reproduces the
// original hunk exactly.
func splitHunk(hunk gitdiff.Hunk, text string, budget int) []piece {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	header := hunk.Header()
	var pieces []piece
	var current strings.Builder

	flush := func(truncated bool, text string) {
		p := piece{text: text, truncated: truncated}
		if len(pieces) > 0 {
			p.context = header
		}
		pieces = append(pieces, p)
	}

	for _, line := range lines {
		if len(line) > budget {
			// A single line beyond the budget cannot be split without
			// corrupting the diff; degrade by truncating and flagging.
			if current.Len() > 0 {
				flush(false, current.String())
				current.Reset()
			}
			flush(true, line[:budget]+"\n")
			continue
		}
		if current.Len()+len(line) > budget && current.Len() > 0 {
			flush(false, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		flush(false, current.String())
	}
	return pieces
}

// BuildAll runs Build over every file in the change set, preserving file
// order. The returned slice is the dispatch order for the whole run.
func (b *Builder) BuildAll(cs *gitdiff.ChangeSet) ([]ReviewRequest, error) {
	var requests []ReviewRequest
	for _, fc := range cs.Files {
		reqs, err := b.Build(fc)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}
	return requests, nil
}
