// Package staging manages the local filesystem lifecycle of uploaded
// documents: incoming while pending, archived after successful extraction.
package staging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/timw/docuflow/internal/domain"
)

// Stager moves documents through the incoming -> archived lifecycle. The
// archive directory is a shared resource across concurrent runs, so archive
// operations are serialized.
type Stager struct {
	incomingDir string
	archiveDir  string

	mu sync.Mutex
}

// NewStager creates a stager for the given directories. Directories are
// created on demand, not up front.
func NewStager(incomingDir, archiveDir string) *Stager {
	return &Stager{
		incomingDir: incomingDir,
		archiveDir:  archiveDir,
	}
}

// IncomingDir returns the incoming directory path.
func (s *Stager) IncomingDir() string {
	return s.incomingDir
}

// ArchivePath returns the archive destination for a filename.
func (s *Stager) ArchivePath(filename string) string {
	return filepath.Join(s.archiveDir, filepath.Base(filename))
}

// Stage writes uploaded bytes verbatim into the incoming directory.
// Idempotent per filename: a same-named staged file is overwritten.
// Parameters:
//   - data: uploaded file content.
//   - filename: original filename; only its basename is used.
// Returns:
//   - string: path of the staged file.
//   - error: IOFault if the directory or file cannot be written.
func (s *Stager) Stage(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(s.incomingDir, 0755); err != nil {
		return "", &domain.IOFault{Op: "mkdir", Path: s.incomingDir, Err: err}
	}

	path := filepath.Join(s.incomingDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &domain.IOFault{Op: "stage", Path: path, Err: err}
	}
	return path, nil
}

// Archive moves a staged file into the archive directory. A same-named
// archived file is replaced so the archive always reflects the most recent
// processed version. On failure the caller must not consider the file
// archived; it stays wherever the last successful step left it.
// Parameters:
//   - stagedPath: path of the staged file to move.
// Returns:
//   - string: destination path inside the archive directory.
//   - error: IOFault if the move cannot complete.
func (s *Stager) Archive(stagedPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
		return "", &domain.IOFault{Op: "mkdir", Path: s.archiveDir, Err: err}
	}

	dest := filepath.Join(s.archiveDir, filepath.Base(stagedPath))
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return "", &domain.IOFault{Op: "replace", Path: dest, Err: err}
		}
	}

	if err := os.Rename(stagedPath, dest); err != nil {
		// Rename fails across filesystems; fall back to copy-and-remove.
		if err := moveByCopy(stagedPath, dest); err != nil {
			return "", &domain.IOFault{Op: "archive", Path: stagedPath, Err: err}
		}
	}
	return dest, nil
}

// moveByCopy copies src to dest and removes src. The source is only removed
// after the copy is fully flushed.
func moveByCopy(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}

	return os.Remove(src)
}
