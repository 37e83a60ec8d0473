package gitdiff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

// ParseUnified parses git unified-diff output into per-file changes.
// Files appear in the order git emitted them; hunks keep file order.
func ParseUnified(diff string) ([]FileChange, error) {
	var files []FileChange
	for _, section := range splitSections(diff) {
		fc, err := parseSection(section)
		if err != nil {
			return nil, err
		}
		files = append(files, fc)
	}
	return files, nil
}

// splitSections breaks the diff at each "diff --git" boundary.
func splitSections(diff string) []string {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if s := current.String(); strings.TrimSpace(s) != "" {
		sections = append(sections, s)
	}
	return sections
}

func parseSection(section string) (FileChange, error) {
	fc := FileChange{Status: StatusModified}
	lines := strings.Split(section, "\n")

	var hunk *Hunk
	flush := func() {
		if hunk != nil {
			fc.Hunks = append(fc.Hunks, *hunk)
			hunk = nil
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "@@") {
			flush()
			h, err := parseHunkHeader(line)
			if err != nil {
				return FileChange{}, err
			}
			hunk = &h
			continue
		}

		// Once the first @@ header is seen, every line is hunk content
		// until the next header. File headers must not match here: a
		// removed "-- comment" renders as "--- comment" and an added
		// "++ x" as "+++ x", which would read as ---/+++ path lines.
		if hunk != nil {
			switch {
			case len(line) > 0 && (line[0] == '+' || line[0] == '-' || line[0] == ' '):
				hunk.Lines = append(hunk.Lines, Line{Marker: Marker(line[:1]), Text: line[1:]})
			case strings.HasPrefix(line, `\ No newline at end of file`):
				// Metadata, not content.
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			// Paths on this line may be quoted or contain spaces; the
			// ---/+++ and rename headers below are authoritative.
		case strings.HasPrefix(line, "new file mode"):
			fc.Status = StatusAdded
		case strings.HasPrefix(line, "deleted file mode"):
			fc.Status = StatusDeleted
		case strings.HasPrefix(line, "rename from "):
			fc.Status = StatusRenamed
			fc.OldPath = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			fc.Path = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch"):
			fc.Binary = true
		case strings.HasPrefix(line, "--- "):
			if p := strings.TrimPrefix(line, "--- "); p != "/dev/null" && fc.OldPath == "" {
				fc.OldPath = strings.TrimPrefix(p, "a/")
			}
		case strings.HasPrefix(line, "+++ "):
			if p := strings.TrimPrefix(line, "+++ "); p != "/dev/null" {
				fc.Path = strings.TrimPrefix(p, "b/")
			}
		}
	}
	flush()

	// A deleted file has no +++ path; fall back to the old one.
	if fc.Path == "" {
		fc.Path = fc.OldPath
	}
	if fc.Path == "" {
		return FileChange{}, fmt.Errorf("diff section with no file path: %q", firstLine(section))
	}
	// Binary files carry no reviewable hunks.
	if fc.Binary {
		fc.Hunks = nil
	}
	return fc, nil
}

func parseHunkHeader(line string) (Hunk, error) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, fmt.Errorf("malformed hunk header: %q", line)
	}
	h := Hunk{
		OldStart: atoiDefault(m[1], 0),
		OldCount: atoiDefault(m[2], 1),
		NewStart: atoiDefault(m[3], 0),
		NewCount: atoiDefault(m[4], 1),
		Section:  strings.TrimSpace(m[5]),
	}
	return h, nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
