package gitdiff

import (
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1234567..89abcde 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@ package main
 package main
+import "fmt"

 func main() {}
diff --git a/old.txt b/old.txt
deleted file mode 100644
index 1234567..0000000
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-first
-second
diff --git a/added.py b/added.py
new file mode 100644
index 0000000..89abcde
--- /dev/null
+++ b/added.py
@@ -0,0 +1,2 @@
+def hello():
+    pass
`

func TestParseUnified(t *testing.T) {
	files, err := ParseUnified(sampleDiff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}

	if files[0].Path != "main.go" || files[0].Status != StatusModified {
		t.Errorf("files[0] = %s/%s, want main.go/modified", files[0].Path, files[0].Status)
	}
	if len(files[0].Hunks) != 1 {
		t.Fatalf("main.go: got %d hunks, want 1", len(files[0].Hunks))
	}
	h := files[0].Hunks[0]
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 4 {
		t.Errorf("hunk header = -%d,%d +%d,%d, want -1,3 +1,4", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	}
	if h.Section != "package main" {
		t.Errorf("Section = %q, want %q", h.Section, "package main")
	}
	if len(h.Lines) != 4 {
		t.Errorf("got %d lines, want 4", len(h.Lines))
	}
	if h.Lines[1].Marker != MarkerAdd || h.Lines[1].Text != `import "fmt"` {
		t.Errorf("Lines[1] = %q %q", h.Lines[1].Marker, h.Lines[1].Text)
	}

	if files[1].Path != "old.txt" || files[1].Status != StatusDeleted {
		t.Errorf("files[1] = %s/%s, want old.txt/deleted", files[1].Path, files[1].Status)
	}
	if files[2].Path != "added.py" || files[2].Status != StatusAdded {
		t.Errorf("files[2] = %s/%s, want added.py/added", files[2].Path, files[2].Status)
	}
}

func TestParseUnified_DeletedFileHasNoAddedLines(t *testing.T) {
	files, err := ParseUnified(sampleDiff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	for _, h := range files[1].Hunks {
		for _, line := range h.Lines {
			if line.Marker == MarkerAdd {
				t.Errorf("deleted file has added line %q", line.Text)
			}
		}
	}
}

func TestParseUnified_Binary(t *testing.T) {
	diff := `diff --git a/logo.png b/logo.png
new file mode 100644
index 0000000..89abcde
Binary files /dev/null and b/logo.png differ
`
	files, err := ParseUnified(diff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if !files[0].Binary {
		t.Error("expected Binary=true")
	}
	if len(files[0].Hunks) != 0 {
		t.Errorf("binary file has %d hunks, want 0", len(files[0].Hunks))
	}
}

func TestParseUnified_Rename(t *testing.T) {
	diff := `diff --git a/before.go b/after.go
similarity index 100%
rename from before.go
rename to after.go
`
	files, err := ParseUnified(diff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	fc := files[0]
	if fc.Status != StatusRenamed {
		t.Errorf("Status = %s, want renamed", fc.Status)
	}
	if fc.Path != "after.go" || fc.OldPath != "before.go" {
		t.Errorf("paths = %q <- %q, want after.go <- before.go", fc.Path, fc.OldPath)
	}
	if len(fc.Hunks) != 0 {
		t.Errorf("pure rename has %d hunks, want 0", len(fc.Hunks))
	}
}

func TestParseUnified_Empty(t *testing.T) {
	files, err := ParseUnified("")
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files for empty diff, want 0", len(files))
	}
}

func TestParseUnified_NoNewlineMarker(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1 +1 @@
-old
+new
\ No newline at end of file
`
	files, err := ParseUnified(diff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if got := len(files[0].Hunks[0].Lines); got != 2 {
		t.Errorf("got %d lines, want 2 (no-newline marker is not content)", got)
	}
}

func TestHunkText_RoundTrip(t *testing.T) {
	files, err := ParseUnified(sampleDiff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	text := files[0].Hunks[0].Text()
	if !strings.HasPrefix(text, "@@ -1,3 +1,4 @@ package main\n") {
		t.Errorf("Text() header = %q", text)
	}
	if !strings.Contains(text, "+import \"fmt\"\n") {
		t.Errorf("Text() missing added line: %q", text)
	}
}

// Removed lines starting with "-- " render as "--- ..." and added lines
// starting with "++ " render as "+++ ...", identical to the file header
// prefixes. They are hunk content and must stay in the hunk.
func TestParseUnified_DashPrefixedContentLines(t *testing.T) {
	const diff = `diff --git a/q.sql b/q.sql
index 1234567..89abcde 100644
--- a/q.sql
+++ b/q.sql
@@ -1,2 +1,2 @@
--- old comment
+++ marker
 select 1;
`
	files, err := ParseUnified(diff)
	if err != nil {
		t.Fatalf("ParseUnified error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	fc := files[0]
	if fc.Path != "q.sql" {
		t.Errorf("Path = %q, want q.sql", fc.Path)
	}
	if len(fc.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(fc.Hunks))
	}
	lines := fc.Hunks[0].Lines
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	want := []Line{
		{Marker: MarkerRemove, Text: "-- old comment"},
		{Marker: MarkerAdd, Text: "++ marker"},
		{Marker: MarkerContext, Text: "select 1;"},
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("Lines[%d] = %q %q, want %q %q", i, lines[i].Marker, lines[i].Text, w.Marker, w.Text)
		}
	}
}

func TestParseHunkHeader_DefaultCounts(t *testing.T) {
	h, err := parseHunkHeader("@@ -5 +7 @@")
	if err != nil {
		t.Fatalf("parseHunkHeader error: %v", err)
	}
	if h.OldCount != 1 || h.NewCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1 when omitted", h.OldCount, h.NewCount)
	}
}

func TestParseHunkHeader_Malformed(t *testing.T) {
	if _, err := parseHunkHeader("@@ garbage @@"); err == nil {
		t.Error("expected error for malformed header")
	}
}
