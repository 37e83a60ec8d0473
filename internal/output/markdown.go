package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marlonsouza/magic-pipe/internal/dispatch"
	"github.com/marlonsouza/magic-pipe/internal/report"
)

// summaryLimit is the cutoff above which a file summary falls back to its
// first sentence.
const summaryLimit = 200

// chunkSeparator joins the reviews of a file that was reviewed in several
// parts.
const chunkSeparator = "\n\n---\n\n"

// MarkdownWriter renders a run report as a PR-comment-friendly markdown
// document. Detailed mode includes every review in full; summary mode
// boils each file down to a line.
type MarkdownWriter struct {
	Detailed bool
}

func (m *MarkdownWriter) Write(w io.Writer, rep *report.RunReport) error {
	fmt.Fprintf(w, "# 🎉 Code Review\n\n")
	header := rep.SummaryHeader
	if header == "" {
		header = fmt.Sprintf("Reviewed %d file(s) in this pull request. Here is a summary of the main observations:", rep.TotalFiles)
	}
	fmt.Fprintf(w, "%s\n\n", header)

	if len(rep.Sections) == 0 {
		fmt.Fprintf(w, "No reviewable changes were found. 🎈\n\n")
	} else if m.Detailed {
		m.writeDetailed(w, rep)
	} else {
		m.writeSummary(w, rep)
	}

	if rep.HadFailures() {
		fmt.Fprintf(w, "> ⚠️ %d chunk(s) could not be reviewed this run. Their files may be only partially covered.\n\n", rep.Failed+rep.Skipped)
	}

	fmt.Fprintf(w, "## 💡 Key Recommendations\n\n")
	fmt.Fprintf(w, "- Keep the project's existing code patterns consistent\n")
	fmt.Fprintf(w, "- Consider adding tests for the new functionality\n")
	fmt.Fprintf(w, "- Document public interfaces and APIs\n")
	fmt.Fprintf(w, "- Double-check error handling and edge cases\n\n")
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "✨ *This review was generated automatically. Mention a file in the comments for a deeper look.* ✨\n")
	if !rep.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "\n*Generated %s*\n", rep.GeneratedAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (m *MarkdownWriter) writeDetailed(w io.Writer, rep *report.RunReport) {
	for _, sec := range rep.Sections {
		fmt.Fprintf(w, "## 🔍 `%s`\n\n", baseName(sec.Path))
		fmt.Fprintf(w, "%s\n\n", sectionBody(sec))
		fmt.Fprintf(w, "---\n\n")
	}
}

func (m *MarkdownWriter) writeSummary(w io.Writer, rep *report.RunReport) {
	fmt.Fprintf(w, "## 📝 Summary by File\n\n")
	for _, sec := range rep.Sections {
		fmt.Fprintf(w, "- **`%s`**: %s\n", baseName(sec.Path), summarize(sec))
	}
	fmt.Fprintf(w, "\n")
}

// sectionBody joins a file's chunk reviews in order. Failed chunks leave a
// visible gap instead of silently vanishing.
func sectionBody(sec report.FileSection) string {
	parts := make([]string, 0, len(sec.Chunks))
	for _, c := range sec.Chunks {
		switch c.Status {
		case dispatch.StatusOK:
			parts = append(parts, strings.TrimSpace(c.Body))
		case dispatch.StatusSkipped:
			parts = append(parts, fmt.Sprintf("> ⚠️ Part %d of %d was not reviewed: %s", c.Index+1, c.Count, c.Err))
		default:
			parts = append(parts, fmt.Sprintf("> ⚠️ Part %d of %d could not be reviewed: %s", c.Index+1, c.Count, c.Err))
		}
	}
	return strings.Join(parts, chunkSeparator)
}

// summarize reduces a file's review to its first paragraph, or first
// sentence when the paragraph runs long.
func summarize(sec report.FileSection) string {
	if !sec.Reviewed() {
		return fmt.Sprintf("review unavailable (%s)", firstError(sec))
	}

	text := ""
	for _, c := range sec.Chunks {
		if c.Status == dispatch.StatusOK {
			text = strings.TrimSpace(c.Body)
			break
		}
	}

	para := text
	if i := strings.Index(text, "\n\n"); i >= 0 {
		para = text[:i]
	}
	para = strings.ReplaceAll(para, "\n", " ")

	if len(para) > summaryLimit {
		if i := strings.Index(para, ". "); i >= 0 {
			return para[:i+1]
		}
		// No sentence break to fall back on; cut hard at a rune
		// boundary so the bullet stays a one-liner.
		runes := []rune(para)
		if len(runes) > summaryLimit {
			runes = runes[:summaryLimit]
		}
		return strings.TrimRight(string(runes), " ") + "…"
	}
	return para
}

func firstError(sec report.FileSection) string {
	for _, c := range sec.Chunks {
		if c.Err != "" {
			return c.Err
		}
	}
	return "unknown error"
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
