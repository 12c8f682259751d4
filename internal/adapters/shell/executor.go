// Package shell provides the stage step executor.
package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/adapters/fs"
	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StageExecutor = (*Executor)(nil)

// Executor implements ports.StageExecutor. Command steps run via
// os/exec inside the stage directory; install, rewrite, compile, and
// copy steps are dispatched to the package installer, the manifest
// rewriter, and the tree copier.
type Executor struct {
	logger    ports.Logger
	installer ports.PackageInstaller
	copier    *fs.Copier
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, installer ports.PackageInstaller, copier *fs.Copier) *Executor {
	return &Executor{
		logger:    logger,
		installer: installer,
		copier:    copier,
	}
}

// Execute runs the stage's steps in order. A failing step aborts the
// stage; no partial output is registered downstream.
func (e *Executor) Execute(ctx context.Context, stage *domain.Stage, env []string) error {
	for i := range stage.Steps {
		step := &stage.Steps[i]
		if err := e.executeStep(ctx, stage, step, env); err != nil {
			err = zerr.With(zerr.Wrap(err, "step failed"), "stage", stage.ID.String())
			return zerr.With(err, "step", step.Name)
		}
	}
	return nil
}

func (e *Executor) executeStep(ctx context.Context, stage *domain.Stage, step *domain.Step, env []string) error {
	switch {
	case step.Install != nil:
		return e.installer.Install(ctx, step.Install.Venv, step.Install)
	case step.CreateEnv != nil:
		return e.installer.CreateEnv(ctx, step.CreateEnv.Dir, step.CreateEnv.PythonVersion)
	case step.Rewrite != nil:
		return e.rewriteManifest(step.Rewrite)
	case step.Compile != nil:
		return e.installer.CompileLock(ctx, step.Compile.Source, step.Compile.Output, step.Compile.Lock, step.Compile.CacheDir)
	case step.Copy != nil:
		return e.copier.CopyTree(step.Copy.Source, step.Copy.Target)
	case len(step.Run) > 0:
		return e.runCommand(ctx, stage, step, env)
	default:
		return nil
	}
}

// rewriteManifest applies the step's rule list to the source manifest
// and writes the derived manifest. The source is read-only: the
// transformed set is a new artifact.
func (e *Executor) rewriteManifest(step *domain.RewriteStep) error {
	data, err := os.ReadFile(step.Source) //nolint:gosec // Path comes from the stage definition
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", step.Source)
	}

	set, err := domain.ParseRequirements(filepath.Base(step.Source), data)
	if err != nil {
		return err
	}

	derived := domain.ApplyRules(set, step.Rules)

	if err := os.MkdirAll(filepath.Dir(step.Output), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create manifest output directory")
	}
	if err := os.WriteFile(step.Output, derived.Render(), 0o644); err != nil { //nolint:gosec // Manifest is world-readable by design
		return zerr.With(zerr.Wrap(err, "failed to write derived manifest"), "path", step.Output)
	}
	return nil
}

func (e *Executor) runCommand(ctx context.Context, stage *domain.Stage, step *domain.Step, env []string) error {
	name := step.Run[0]
	args := step.Run[1:]

	cmdEnv := resolveEnvironment(os.Environ(), env, step.Env)

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // Commands come from the composed pipeline
	cmd.Dir = stage.Dir
	cmd.Env = cmdEnv
	cmd.Stdout = &logWriter{logger: e.logger, level: "info"}
	cmd.Stderr = &logWriter{logger: e.logger, level: "error"}

	if err := cmd.Run(); err != nil {
		var exitCode int
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	return nil
}

type logWriter struct {
	logger ports.Logger
	level  string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	for _, line := range lines {
		if w.level == "info" {
			w.logger.Info(line)
		} else {
			w.logger.Error(zerr.New(line))
		}
	}
	return len(p), nil
}

// resolveEnvironment merges environment variables with the defined
// priority (low to high): process environment, stage environment,
// step overrides. PATH entries from the stage env are prepended to the
// process PATH rather than replacing it.
func resolveEnvironment(sysEnv, stageEnv []string, stepEnv map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for _, entry := range stageEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
			} else {
				envMap[k] = v
			}
		} else {
			envMap[k] = v
		}
	}

	for k, v := range stepEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}
