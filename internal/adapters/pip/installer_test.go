package pip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/forgebuild/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// recordingRunner captures every invocation instead of running uv.
type recordingRunner struct {
	calls [][]string
	err   error
	out   []byte
}

func (r *recordingRunner) run(_ context.Context, _ []string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	return r.out, r.err
}

func TestInstaller_CreateEnv(t *testing.T) {
	rec := &recordingRunner{}
	i := &Installer{run: rec.run}

	if err := i.CreateEnv(context.Background(), "/work/.venv", "3.12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"venv", "/work/.venv", "--python", "3.12"}
	if !slices.Equal(rec.calls[0], want) {
		t.Errorf("expected args %v, got %v", want, rec.calls[0])
	}
}

func TestInstaller_Install_Manifests(t *testing.T) {
	rec := &recordingRunner{}
	i := &Installer{run: rec.run}

	step := &domain.InstallStep{
		Venv:      "/work/.venv",
		Manifests: []string{"requirements/common.txt", "requirements/cpu.txt"},
		Index: domain.IndexOptions{
			ExtraIndexURL: "https://download.pytorch.org/whl/cpu",
		},
		CacheDir: "/cache/pkg-downloads",
	}
	if err := i.Install(context.Background(), step.Venv, step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"pip", "install", "--python", "/work/.venv/bin/python",
		"--extra-index-url", "https://download.pytorch.org/whl/cpu",
		"--cache-dir", "/cache/pkg-downloads",
		"-r", "requirements/common.txt",
		"-r", "requirements/cpu.txt",
	}
	if !slices.Equal(rec.calls[0], want) {
		t.Errorf("expected args %v, got %v", want, rec.calls[0])
	}
}

func TestInstaller_Install_Editable(t *testing.T) {
	rec := &recordingRunner{}
	i := &Installer{run: rec.run}

	step := &domain.InstallStep{Venv: "/work/.venv", Editable: "/src"}
	if err := i.Install(context.Background(), step.Venv, step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	args := rec.calls[0]
	if idx := slices.Index(args, "-e"); idx < 0 || args[idx+1] != "/src" {
		t.Errorf("expected editable install of /src, got %v", args)
	}
}

func TestInstaller_Install_Wheel(t *testing.T) {
	dir := t.TempDir()
	wheel := filepath.Join(dir, "pkg-1.0-py3-none-any.whl")
	if err := os.WriteFile(wheel, []byte("wheel"), 0o644); err != nil {
		t.Fatalf("failed to write wheel: %v", err)
	}

	rec := &recordingRunner{}
	i := &Installer{run: rec.run}

	step := &domain.InstallStep{Venv: "/work/.venv", WheelDir: dir}
	if err := i.Install(context.Background(), step.Venv, step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Contains(rec.calls[0], wheel) {
		t.Errorf("expected wheel path in args, got %v", rec.calls[0])
	}
}

func TestInstaller_Install_WheelAmbiguous(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a-1.0.whl", "b-1.0.whl"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("w"), 0o644); err != nil {
			t.Fatalf("failed to write wheel: %v", err)
		}
	}

	i := &Installer{run: (&recordingRunner{}).run}
	err := i.Install(context.Background(), "/work/.venv", &domain.InstallStep{WheelDir: dir})
	if err == nil {
		t.Fatal("expected error for ambiguous wheel directory, got nil")
	}
}

func TestInstaller_CompileLock(t *testing.T) {
	rec := &recordingRunner{}
	i := &Installer{run: rec.run}

	opts := domain.LockOptions{
		Index: domain.IndexOptions{
			ExtraIndexURL: "https://download.pytorch.org/whl/cpu",
			Strategy:      domain.IndexStrategyBestMatch,
		},
		TorchBackend: "cpu",
	}
	err := i.CompileLock(context.Background(), "cpu-test.in", "cpu-test.txt", opts, "/cache/pkg-downloads")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"pip", "compile", "cpu-test.in", "-o", "cpu-test.txt",
		"--extra-index-url", "https://download.pytorch.org/whl/cpu",
		"--index-strategy", "unsafe-best-match",
		"--torch-backend", "cpu",
		"--cache-dir", "/cache/pkg-downloads",
	}
	if !slices.Equal(rec.calls[0], want) {
		t.Errorf("expected args %v, got %v", want, rec.calls[0])
	}
}

func TestInstaller_Install_FailureSurfacesOutput(t *testing.T) {
	rec := &recordingRunner{
		err: errors.New("exit status 1"),
		out: []byte("No solution found when resolving dependencies"),
	}
	i := &Installer{run: rec.run}

	err := i.Install(context.Background(), "/work/.venv", &domain.InstallStep{Manifests: []string{"r.txt"}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var zErr *zerr.Error
	if !errors.As(err, &zErr) {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	out, ok := zErr.Metadata()["output"].(string)
	if !ok || out != "No solution found when resolving dependencies" {
		t.Errorf("expected resolver output passed through verbatim, got %v", zErr.Metadata()["output"])
	}
}
