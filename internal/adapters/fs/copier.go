package fs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Copier copies auxiliary files and directory trees into stage
// snapshots. Transfers are plain copies: the source is never shared or
// mutated by the destination stage.
type Copier struct{}

// NewCopier creates a new Copier.
func NewCopier() *Copier {
	return &Copier{}
}

// CopyTree copies src (file or directory) to dst. Directories are
// copied recursively, preserving file modes; symlinks are not followed.
func (c *Copier) CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat copy source"), "path", src)
	}

	if !info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return zerr.Wrap(err, "failed to create destination directory")
		}
		return c.copyFile(src, dst, info.Mode())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return zerr.Wrap(err, "failed to relativize path")
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
		}
		return c.copyFile(path, target, info.Mode())
	})
}

func (c *Copier) copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // Paths come from the stage definition
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open copy source"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) //nolint:gosec // Paths come from the stage definition
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create copy destination"), "path", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to copy file content")
	}
	return out.Close()
}
