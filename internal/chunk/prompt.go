package chunk

import (
	"fmt"
	"strings"

	"github.com/marlonsouza/magic-pipe/internal/gitdiff"
)

const reviewerPersona = `You are a friendly, experienced code reviewer. Your mission is to review the changes below constructively and encouragingly.

When reviewing:
- Start by calling out strengths and good practices already applied
- Make suggestions in a constructive, positive tone
- Suggest specific improvements with examples when relevant
- Keep an encouraging, collaborative voice

Focus areas, in order: correctness, security, style, performance.

Respond in GitHub-flavored Markdown. Begin with a one-paragraph summary of the change, then list your observations.`

const detailedInstructions = `
For every notable change:
1. Analyze the surrounding context and the intent of the change
2. Point out patterns and good practices you recognize
3. Flag possible bugs, security issues, or performance traps with a concrete fix
4. Share useful knowledge related to the code's context

Include short code examples for any suggestion that changes code.`

// buildPrompt wraps a chunk's diff text in the fixed reviewer instruction
// template. The template is identical for the direct and MCP backends.
func buildPrompt(change gitdiff.FileChange, req ReviewRequest, detailed bool) string {
	var b strings.Builder

	b.WriteString(reviewerPersona)
	if detailed {
		b.WriteString(detailedInstructions)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Please review this file:\n- Name: %s\n- Status: %s\n", change.Path, change.Status)
	if change.Status == gitdiff.StatusRenamed && change.OldPath != "" {
		fmt.Fprintf(&b, "- Renamed from: %s\n", change.OldPath)
	}
	if req.ChunkCount > 1 {
		fmt.Fprintf(&b, "- Part %d of %d of this file's changes\n", req.ChunkIndex+1, req.ChunkCount)
	}
	if req.HunkContext != "" {
		fmt.Fprintf(&b, "- Continues hunk: %s\n", req.HunkContext)
	}
	if req.Truncated {
		b.WriteString("- Note: this chunk was truncated to fit the review size limit\n")
	}

	b.WriteString("\nChanges:\n```diff\n")
	b.WriteString(req.DiffText)
	if !strings.HasSuffix(req.DiffText, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	return b.String()
}
