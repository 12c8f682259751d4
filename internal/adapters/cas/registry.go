package cas

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactRegistry = (*Registry)(nil)

// Registry implements ports.ArtifactRegistry with a content-addressed
// blob directory. Blobs persist across invocations; the logical
// name table is per run.
type Registry struct {
	root string

	mu        sync.RWMutex
	artifacts map[string]domain.Artifact
}

// NewRegistry creates a Registry rooted at the given directory.
func NewRegistry(root string) *Registry {
	return &Registry{
		root:      filepath.Clean(root),
		artifacts: make(map[string]domain.Artifact),
	}
}

func (r *Registry) blobPath(d digest.Digest) string {
	return filepath.Join(r.root, "blobs", d.Algorithm().String(), d.Encoded())
}

// Publish copies the file at path into the blob store, computes its
// digest, and registers it under the logical name. Publishing a name
// twice in one run is a stage-identity bug and fails.
func (r *Registry) Publish(ctx context.Context, producer domain.StageID, name, path string) (domain.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.artifacts[name]; ok {
		err := zerr.With(zerr.New("artifact already published"), "artifact", name)
		return domain.Artifact{}, zerr.With(err, "producer", existing.Producer.String())
	}

	f, err := os.Open(path) //nolint:gosec // Path resolved from the producing stage's output
	if err != nil {
		return domain.Artifact{}, zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	d, err := digest.Canonical.FromReader(f)
	if err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to digest artifact")
	}

	info, err := f.Stat()
	if err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to stat artifact")
	}

	blob := r.blobPath(d)
	if err := os.MkdirAll(filepath.Dir(blob), 0o750); err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to create blob directory")
	}
	if _, statErr := os.Stat(blob); statErr != nil {
		if err := copyFile(path, blob); err != nil {
			return domain.Artifact{}, err
		}
	}

	art := domain.Artifact{
		Producer: producer,
		Name:     name,
		FileName: filepath.Base(path),
		Digest:   d,
		Size:     info.Size(),
	}
	r.artifacts[name] = art
	return art, nil
}

// Restore re-registers an artifact recorded by a previous run. The blob
// must still be present; a missing blob forces the producer to re-run.
func (r *Registry) Restore(ctx context.Context, art domain.Artifact) error {
	if err := art.Digest.Validate(); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid artifact digest"), "artifact", art.Name)
	}
	if _, err := os.Stat(r.blobPath(art.Digest)); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrArtifactNotFound, "artifact content missing from blob store"), "artifact", art.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[art.Name] = art
	return nil
}

// Import copies the named artifact into targetDir and verifies the copy
// against the recorded digest. Each importer gets an independent copy.
func (r *Registry) Import(ctx context.Context, name, targetDir string) (domain.Artifact, error) {
	r.mu.RLock()
	art, ok := r.artifacts[name]
	r.mu.RUnlock()
	if !ok {
		return domain.Artifact{}, zerr.With(domain.ErrArtifactNotFound, "artifact", name)
	}

	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to create import directory")
	}

	dst := filepath.Join(targetDir, art.FileName)
	if err := copyFile(r.blobPath(art.Digest), dst); err != nil {
		return domain.Artifact{}, err
	}

	// Verify the copy. Divergence here indicates cache corruption, not
	// a degraded-but-usable state.
	f, err := os.Open(dst) //nolint:gosec // Path constructed above
	if err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to reopen imported artifact")
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	got, err := digest.Canonical.FromReader(f)
	if err != nil {
		return domain.Artifact{}, zerr.Wrap(err, "failed to digest imported artifact")
	}
	if got != art.Digest {
		err := zerr.With(domain.ErrArtifactDigestMismatch, "artifact", name)
		err = zerr.With(err, "want", art.Digest.String())
		return domain.Artifact{}, zerr.With(err, "got", got.String())
	}

	return art, nil
}

// Get returns the artifact registered under the logical name.
func (r *Registry) Get(name string) (domain.Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	art, ok := r.artifacts[name]
	return art, ok
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Paths are registry-internal
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open source"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // Paths are registry-internal
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create destination"), "path", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to copy artifact content")
	}
	return out.Close()
}
