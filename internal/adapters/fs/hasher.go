package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// fileHashCacheSize bounds the per-run file hash memoization. Large
// source trees are re-walked once per dependent stage, so memoizing by
// path+mtime avoids rereading unchanged files.
const fileHashCacheSize = 8192

type fileHashKey struct {
	path  string
	mtime int64
	size  int64
}

// Hasher computes stage and file hashes with xxhash.
type Hasher struct {
	walker *Walker
	cache  *lru.Cache[fileHashKey, uint64]
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) (*Hasher, error) {
	cache, err := lru.New[fileHashKey, uint64](fileHashCacheSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file hash cache")
	}
	return &Hasher{walker: walker, cache: cache}, nil
}

// ComputeFileHash computes the XXHash of a file's content, memoized by
// path, size, and modification time.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	key := fileHashKey{path: path, mtime: info.ModTime().UnixNano(), size: info.Size()}
	if sum, ok := h.cache.Get(key); ok {
		return sum, nil
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	sum := hasher.Sum64()
	h.cache.Add(key, sum)
	return sum, nil
}

// ComputeStageHash computes a single hash representing the stage
// definition, its environment and build arguments, its declared input
// files, and the hashes of the stages it depends on. Two invocations
// with identical inputs produce identical hashes, which is what makes
// cache-hit equivalence and artifact identity work.
func (h *Hasher) ComputeStageHash(stage *domain.Stage, ancestors []string) (string, error) {
	hasher := xxhash.New()

	h.hashStageDefinition(stage, hasher)
	h.hashStringMap(stage.BuildArgs, hasher)
	h.hashStringMap(stage.Env, hasher)

	for _, anc := range ancestors {
		_, _ = hasher.WriteString(anc)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	if err := h.hashInputs(stage, hasher); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashStageDefinition hashes the structural identity of the stage:
// id, base image, steps, imports, entrypoint.
func (h *Hasher) hashStageDefinition(stage *domain.Stage, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(stage.ID.String())
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(stage.BaseImage)
	_, _ = hasher.Write([]byte{0})

	for _, step := range stage.Steps {
		h.hashStep(&step, hasher)
	}
	_, _ = hasher.Write([]byte{0})

	for _, imp := range stage.Imports {
		_, _ = hasher.WriteString(imp.From.String())
		_, _ = hasher.Write([]byte{':'})
		_, _ = hasher.WriteString(imp.Name)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	for _, arg := range stage.Entrypoint {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashStep(step *domain.Step, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(step.Name)
	_, _ = hasher.Write([]byte{0})
	for _, arg := range step.Run {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	h.hashStringMap(step.Env, hasher)

	if step.Install != nil {
		_, _ = fmt.Fprintf(hasher, "install:%v:%s:%s:%s:%s", step.Install.Manifests,
			step.Install.Editable, step.Install.WheelDir,
			step.Install.Index.ExtraIndexURL, step.Install.Index.Strategy)
	}
	if step.CreateEnv != nil {
		_, _ = fmt.Fprintf(hasher, "createenv:%s", step.CreateEnv.PythonVersion)
	}
	if step.Rewrite != nil {
		_, _ = fmt.Fprintf(hasher, "rewrite:%s:%s:%v", step.Rewrite.Source, step.Rewrite.Output, step.Rewrite.Rules)
	}
	if step.Compile != nil {
		_, _ = fmt.Fprintf(hasher, "compile:%s:%s:%s:%s", step.Compile.Source, step.Compile.Output,
			step.Compile.Lock.Index.Strategy, step.Compile.Lock.TorchBackend)
	}
	if step.Copy != nil {
		_, _ = fmt.Fprintf(hasher, "copy:%s:%s", step.Copy.Source, step.Copy.Target)
	}
	_, _ = hasher.Write([]byte{0})
}

// hashStringMap hashes a map in sorted key order for determinism.
func (h *Hasher) hashStringMap(m map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(m[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

// hashInputs hashes the stage's declared input files and directories.
func (h *Hasher) hashInputs(stage *domain.Stage, hasher *xxhash.Digest) error {
	for _, input := range stage.Inputs {
		if err := h.hashPath(input, hasher); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hasher) hashPath(path string, mainHasher io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
	}

	if info.IsDir() {
		for filePath := range h.walker.WalkFiles(path, nil) {
			if err := h.hashFile(filePath, mainHasher); err != nil {
				return err
			}
		}
		return nil
	}
	return h.hashFile(path, mainHasher)
}

func (h *Hasher) hashFile(path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(path))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
