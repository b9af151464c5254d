package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoRoot is returned by FindRoot when no store marker exists above the start directory.
var ErrNoRoot = errors.New("store root not found")

// RootMarkers are the entries that mark a directory as a store root.
var RootMarkers = []string{".jdoc", "jdoc.db"}

// FindRoot walks upwards from startDir looking for a store marker and returns
// the absolute path of the first directory holding one.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range RootMarkers {
			if exists(filepath.Join(dir, marker)) {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRoot
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
