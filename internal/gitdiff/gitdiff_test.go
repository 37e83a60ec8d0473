package gitdiff

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupDiffRepo creates a temp repo with a base branch and a feature branch
// that modifies one file and deletes another. Returns the repo dir.
func setupDiffRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	os.WriteFile(filepath.Join(dir, "a.py"), []byte("line1\nline2\nline3\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.py"), []byte("doomed\n"), 0o644)
	run("git", "add", "-A")
	run("git", "commit", "-m", "base")

	run("git", "checkout", "-b", "feature")
	os.WriteFile(filepath.Join(dir, "a.py"), []byte("line1\nline2 changed\nline3\n"), 0o644)
	os.Remove(filepath.Join(dir, "b.py"))
	run("git", "add", "-A")
	run("git", "commit", "-m", "change a, delete b")

	return dir
}

func TestExtract(t *testing.T) {
	dir := setupDiffRepo(t)

	cs, err := Extract(context.Background(), "main", "feature", Options{RepoDir: dir})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(cs.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(cs.Files))
	}
	if cs.MergeBase == "" {
		t.Error("MergeBase is empty")
	}

	byPath := map[string]FileChange{}
	for _, fc := range cs.Files {
		byPath[fc.Path] = fc
	}

	a, ok := byPath["a.py"]
	if !ok {
		t.Fatal("a.py missing from change set")
	}
	if a.Status != StatusModified || len(a.Hunks) != 1 {
		t.Errorf("a.py = %s with %d hunks, want modified with 1", a.Status, len(a.Hunks))
	}

	b, ok := byPath["b.py"]
	if !ok {
		t.Fatal("b.py missing from change set")
	}
	if b.Status != StatusDeleted {
		t.Errorf("b.py status = %s, want deleted", b.Status)
	}
}

func TestExtract_RefNotFound(t *testing.T) {
	dir := setupDiffRepo(t)

	_, err := Extract(context.Background(), "main", "no-such-branch", Options{RepoDir: dir})
	var refErr *RefNotFoundError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want RefNotFoundError", err)
	}
	if refErr.Ref != "no-such-branch" {
		t.Errorf("Ref = %q, want no-such-branch", refErr.Ref)
	}
}

func TestExtract_NoCommonAncestor(t *testing.T) {
	dir := setupDiffRepo(t)

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}

	// An orphan branch shares no history with main.
	run("git", "checkout", "--orphan", "disconnected")
	os.WriteFile(filepath.Join(dir, "solo.txt"), []byte("alone\n"), 0o644)
	run("git", "add", "-A")
	run("git", "commit", "-m", "orphan")

	_, err := Extract(context.Background(), "main", "disconnected", Options{RepoDir: dir})
	var ancestorErr *NoCommonAncestorError
	if !errors.As(err, &ancestorErr) {
		t.Fatalf("err = %v, want NoCommonAncestorError", err)
	}
}

func TestExtract_ContextLines(t *testing.T) {
	dir := setupDiffRepo(t)

	cs, err := Extract(context.Background(), "main", "feature", Options{RepoDir: dir, ContextLines: 1})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	for _, fc := range cs.Files {
		if fc.Path != "a.py" {
			continue
		}
		// -U1 keeps one context line either side of the changed line.
		if n := len(fc.Hunks[0].Lines); n != 4 {
			t.Errorf("a.py hunk has %d lines with -U1, want 4", n)
		}
	}
}
