// Package pip wraps the uv package-installation toolchain.
//
// The toolchain is treated as an opaque service: forge constructs the
// invocation, and resolution failures are surfaced verbatim with no
// retry at this layer.
package pip

import (
	"context"
	"os/exec"
	"path/filepath"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageInstaller = (*Installer)(nil)

// runner executes the uv binary. Tests substitute a fake to assert on
// the constructed invocation.
type runner func(ctx context.Context, env []string, args ...string) ([]byte, error)

func execUV(ctx context.Context, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "uv", args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	return cmd.CombinedOutput()
}

// Installer implements ports.PackageInstaller on top of uv.
type Installer struct {
	run runner
}

// NewInstaller creates an Installer backed by the uv binary.
func NewInstaller() *Installer {
	return &Installer{run: execUV}
}

// CreateEnv materializes an isolated interpreter runtime at dir.
func (i *Installer) CreateEnv(ctx context.Context, dir, pythonVersion string) error {
	args := []string{"venv", dir}
	if pythonVersion != "" {
		args = append(args, "--python", pythonVersion)
	}

	out, err := i.run(ctx, nil, args...)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "failed to create runtime environment"), "dir", dir)
		return zerr.With(err, "output", string(out))
	}
	return nil
}

// Install installs the step's requirement manifests (or editable
// source, or wheel) into the runtime at venv. Manifests install in
// declared order so platform entries may override common ones.
func (i *Installer) Install(ctx context.Context, venv string, step *domain.InstallStep) error {
	args := []string{"pip", "install", "--python", pythonPath(venv)}
	args = appendIndexArgs(args, step.Index)
	if step.CacheDir != "" {
		args = append(args, "--cache-dir", step.CacheDir)
	}

	switch {
	case step.Editable != "":
		args = append(args, "-e", step.Editable)
	case step.WheelDir != "":
		wheel, err := findWheel(step.WheelDir)
		if err != nil {
			return err
		}
		args = append(args, wheel)
	default:
		for _, m := range step.Manifests {
			args = append(args, "-r", m)
		}
	}

	out, err := i.run(ctx, nil, args...)
	if err != nil {
		// The resolver's own message is the diagnostic; pass it through.
		err = zerr.With(zerr.Wrap(err, "dependency installation failed"), "venv", venv)
		return zerr.With(err, "output", string(out))
	}
	return nil
}

// CompileLock resolves the manifest at src into a fully pinned lock
// file at dst. The pass is deterministic given identical inputs.
func (i *Installer) CompileLock(ctx context.Context, src, dst string, opts domain.LockOptions, cacheDir string) error {
	args := []string{"pip", "compile", src, "-o", dst}
	args = appendIndexArgs(args, opts.Index)
	if opts.TorchBackend != "" {
		args = append(args, "--torch-backend", opts.TorchBackend)
	}
	if cacheDir != "" {
		args = append(args, "--cache-dir", cacheDir)
	}

	out, err := i.run(ctx, nil, args...)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "lock compilation failed"), "manifest", src)
		return zerr.With(err, "output", string(out))
	}
	return nil
}

func appendIndexArgs(args []string, idx domain.IndexOptions) []string {
	if idx.ExtraIndexURL != "" {
		args = append(args, "--extra-index-url", idx.ExtraIndexURL)
	}
	if idx.Strategy != "" {
		args = append(args, "--index-strategy", string(idx.Strategy))
	}
	return args
}

func pythonPath(venv string) string {
	return filepath.Join(venv, "bin", "python")
}

// findWheel locates the single wheel in dir. Zero or multiple matches
// indicate a broken artifact import.
func findWheel(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.whl"))
	if err != nil {
		return "", zerr.Wrap(err, "failed to glob wheel directory")
	}
	if len(matches) != 1 {
		err := zerr.With(zerr.New("expected exactly one wheel"), "dir", dir)
		return "", zerr.With(err, "found", len(matches))
	}
	return matches[0], nil
}
