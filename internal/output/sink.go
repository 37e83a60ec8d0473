package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marlonsouza/magic-pipe/internal/report"
)

// DefaultArtifactPath is where the report lands unless configured
// otherwise.
const DefaultArtifactPath = "code-review.md"

// Render produces the full markdown document for a run report.
func Render(rep *report.RunReport, detailed bool) (string, error) {
	var sb strings.Builder
	w := &MarkdownWriter{Detailed: detailed}
	if err := w.Write(&sb, rep); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteArtifact writes the rendered report to path, creating parent
// directories as needed. An empty document is refused so a broken render
// can never clobber a previous report with nothing.
func WriteArtifact(path, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("write artifact: refusing to write an empty report to %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// WriteFallback writes a minimal report explaining why no review could be
// produced, so the artifact exists even when the run dies early. It returns
// the document it wrote.
func WriteFallback(path, reason string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# 🎉 Code Review\n\n")
	fmt.Fprintf(&sb, "⚠️ The automated review could not run to completion.\n\n")
	fmt.Fprintf(&sb, "**Reason:** %s\n\n", reason)
	fmt.Fprintf(&sb, "Re-run the workflow once the underlying problem is fixed.\n")

	content := sb.String()
	if err := WriteArtifact(path, content); err != nil {
		return "", err
	}
	return content, nil
}
