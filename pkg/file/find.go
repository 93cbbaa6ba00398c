package file

import (
	"os"
	"path/filepath"
	"time"
)

// FindStaleBefore walks dir and returns every regular file whose
// modification time is older than cutoff.
func FindStaleBefore(dir string, cutoff time.Time) ([]string, error) {
	var staleFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.ModTime().Before(cutoff) {
			staleFiles = append(staleFiles, path)
		}
		return nil
	})

	return staleFiles, err
}
