// Package fs provides file system adapters for walking, hashing, and
// copying build inputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides deterministic file walking over build inputs.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root in lexical order, skipping
// source-control metadata and any directories matching the ignore
// patterns. Build output directories are ignored by default so a
// stage's own snapshot never feeds back into its input hash.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skipAction := w.shouldSkip(d, ignores); skipAction != nil {
				return skipAction
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) error {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".forge", "__pycache__", ".venv":
			return filepath.SkipDir
		}
	}

	for _, ignore := range ignores {
		matched, _ := filepath.Match(ignore, name)
		if matched {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
	}

	return nil
}
