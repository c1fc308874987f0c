package staging

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStager(t *testing.T) *Stager {
	t.Helper()
	base := t.TempDir()
	return NewStager(filepath.Join(base, "incoming"), filepath.Join(base, "archived"))
}

// TestStage verifies staged bytes are written verbatim and staging is
// idempotent per filename.
func TestStage(t *testing.T) {
	s := newTestStager(t)

	path, err := s.Stage([]byte("first"), "doc.pdf")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("staged content = %q, want %q", got, "first")
	}

	// Same filename overwrites
	path2, err := s.Stage([]byte("second"), "doc.pdf")
	if err != nil {
		t.Fatalf("Stage failed on overwrite: %v", err)
	}
	if path2 != path {
		t.Errorf("overwrite path = %q, want %q", path2, path)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("staged content after overwrite = %q, want %q", got, "second")
	}
}

// TestStageStripsDirectories verifies only the basename of an uploaded
// filename is used.
func TestStageStripsDirectories(t *testing.T) {
	s := newTestStager(t)

	path, err := s.Stage([]byte("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if filepath.Base(path) != "passwd" {
		t.Errorf("staged basename = %q, want passwd", filepath.Base(path))
	}
	if filepath.Dir(path) != s.IncomingDir() {
		t.Errorf("staged dir = %q, want %q", filepath.Dir(path), s.IncomingDir())
	}
}

// TestArchive verifies the staged file is moved, not copied.
func TestArchive(t *testing.T) {
	s := newTestStager(t)

	staged, err := s.Stage([]byte("content"), "doc.pdf")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	dest, err := s.Archive(staged)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if dest != s.ArchivePath("doc.pdf") {
		t.Errorf("dest = %q, want %q", dest, s.ArchivePath("doc.pdf"))
	}

	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file still present after archive: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read archived file: %v", err)
	}
	if string(got) != "content" {
		t.Errorf("archived content = %q, want %q", got, "content")
	}
}

// TestArchiveReplacesExisting verifies a same-named archived file is replaced,
// leaving exactly one file of that name.
func TestArchiveReplacesExisting(t *testing.T) {
	s := newTestStager(t)

	staged, _ := s.Stage([]byte("old version"), "doc.pdf")
	if _, err := s.Archive(staged); err != nil {
		t.Fatalf("first Archive failed: %v", err)
	}

	staged, _ = s.Stage([]byte("new version"), "doc.pdf")
	dest, err := s.Archive(staged)
	if err != nil {
		t.Fatalf("second Archive failed: %v", err)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "new version" {
		t.Errorf("archived content = %q, want the most recent version", got)
	}

	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatalf("failed to list archive dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("archive dir has %d entries, want exactly 1", len(entries))
	}
}

// TestArchiveMissingSource verifies archiving a nonexistent file fails and
// creates nothing in the archive.
func TestArchiveMissingSource(t *testing.T) {
	s := newTestStager(t)

	_, err := s.Archive(filepath.Join(s.IncomingDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("expected error archiving a missing file, got nil")
	}
	if _, statErr := os.Stat(s.ArchivePath("nope.pdf")); !os.IsNotExist(statErr) {
		t.Error("archive destination exists after failed archive")
	}
}
