package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDownloader writes exported files into a directory.
type DirDownloader struct {
	dir string
}

// NewDirDownloader creates a downloader writing into dir (default: the working directory).
func NewDirDownloader(dir string) *DirDownloader {
	if dir == "" {
		dir = "."
	}
	return &DirDownloader{dir: dir}
}

// Dir returns the target directory.
func (d *DirDownloader) Dir() string { return d.dir }

// Save implements Downloader. Existing files are overwritten.
func (d *DirDownloader) Save(_ context.Context, filename, _ string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(d.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
