package persistence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/subloc/subloc/pkg/file"
)

// Spool stores uploaded and translated documents on disk, one directory
// per run. Inputs are written as <fileID>.in and translated documents end
// up beside them as <fileID>.out.
type Spool struct {
	root string
}

func NewSpool(root string) (*Spool, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("spool root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &Spool{root: root}, nil
}

func (s *Spool) Root() string {
	return s.root
}

func (s *Spool) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// SaveUpload streams one uploaded document into the run's spool directory
// and returns the stored path.
func (s *Spool) SaveUpload(runID, fileID string, r io.Reader) (string, error) {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	path := filepath.Join(dir, fileID+".in")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close spool file: %w", err)
	}
	return path, nil
}

// TranslatedPath returns where the translated counterpart of a spooled
// input lives.
func (s *Spool) TranslatedPath(inputPath string) string {
	return file.ReplaceExt(inputPath, "out")
}

func (s *Spool) RemoveRun(runID string) error {
	if runID == "" {
		return nil
	}
	return os.RemoveAll(s.RunDir(runID))
}
