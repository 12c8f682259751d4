package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/forgebuild/forge/internal/adapters/telemetry"
	"github.com/forgebuild/forge/internal/app"
	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports/mocks"
	"github.com/forgebuild/forge/internal/engine/composer"
	"github.com/forgebuild/forge/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type appFixture struct {
	loader   *mocks.MockConfigLoader
	hasher   *mocks.MockHasher
	store    *mocks.MockBuildInfoStore
	registry *mocks.MockArtifactRegistry
	app      *app.App
}

type discardLogger struct{}

func (discardLogger) Info(string) {}
func (discardLogger) Warn(string) {}
func (discardLogger) Error(error) {}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &appFixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
		store:    mocks.NewMockBuildInfoStore(ctrl),
		registry: mocks.NewMockArtifactRegistry(ctrl),
	}

	sched := scheduler.New(
		mocks.NewMockStageExecutor(ctrl),
		f.hasher,
		f.store,
		f.registry,
		mocks.NewMockWorkspace(ctrl),
		mocks.NewMockIntegrityChecker(ctrl),
		telemetry.NewNoOp(),
		discardLogger{},
	)
	f.app = app.New(f.loader, composer.New(), sched, telemetry.NewNoOp())
	return f
}

func pipelineConfig() *domain.PipelineConfig {
	return &domain.PipelineConfig{
		SourceDir:     "/src",
		Arch:          domain.ArchAMD64,
		PythonVersion: "3.12",
		Manifests: domain.ManifestPaths{
			Common:   "requirements/common.txt",
			Platform: "requirements/cpu.txt",
			Test:     "requirements/test.in",
		},
		Aux:          domain.AuxiliaryDirs{Tests: "tests"},
		ServeCommand: []string{"python", "-m", "inference.server"},
		WorkDir:      "/work",
		CacheDir:     "/cache",
	}
}

func TestApp_Run_AllCached(t *testing.T) {
	f := newAppFixture(t)

	f.loader.EXPECT().Load(".").Return(pipelineConfig(), nil)
	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).DoAndReturn(
		func(stage *domain.Stage, _ []string) (string, error) {
			return "hash-" + stage.ID.String(), nil
		}).AnyTimes()
	f.store.EXPECT().Get(gomock.Any()).DoAndReturn(
		func(stageID string) (*domain.StageBuildInfo, error) {
			return &domain.StageBuildInfo{StageID: stageID, InputHash: "hash-" + stageID}, nil
		}).AnyTimes()
	f.registry.EXPECT().Restore(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	err := f.app.Run(context.Background(), []string{composer.StageRelease}, app.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApp_Run_NoTargets(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Run(context.Background(), nil, app.RunOptions{})
	if !errors.Is(err, domain.ErrNoTargetsSpecified) {
		t.Errorf("expected ErrNoTargetsSpecified, got %v", err)
	}
}

func TestApp_Run_UnknownTarget(t *testing.T) {
	f := newAppFixture(t)
	f.loader.EXPECT().Load(".").Return(pipelineConfig(), nil)

	err := f.app.Run(context.Background(), []string{"nope"}, app.RunOptions{})
	if !errors.Is(err, domain.ErrStageNotFound) {
		t.Errorf("expected ErrStageNotFound, got %v", err)
	}
}

func TestApp_Run_UnsupportedArch(t *testing.T) {
	f := newAppFixture(t)
	cfg := pipelineConfig()
	cfg.Arch = "riscv64"
	f.loader.EXPECT().Load(".").Return(cfg, nil)

	err := f.app.Run(context.Background(), []string{composer.StageDev}, app.RunOptions{})
	if !errors.Is(err, domain.ErrUnsupportedArchitecture) {
		t.Errorf("expected ErrUnsupportedArchitecture, got %v", err)
	}
}

func TestApp_Run_OverridesReplaceConfig(t *testing.T) {
	f := newAppFixture(t)
	cfg := pipelineConfig()
	cfg.Arch = domain.ArchAMD64
	f.loader.EXPECT().Load(".").Return(cfg, nil)

	// An override to an unsupported architecture must win over the
	// valid configured value and fail resolution.
	err := f.app.Run(context.Background(), []string{composer.StageDev}, app.RunOptions{
		Overrides: app.ConfigOverrides{Arch: "riscv64"},
	})
	if !errors.Is(err, domain.ErrUnsupportedArchitecture) {
		t.Errorf("expected ErrUnsupportedArchitecture, got %v", err)
	}
}

func TestApp_Run_MalformedToggleOverride(t *testing.T) {
	f := newAppFixture(t)
	f.loader.EXPECT().Load(".").Return(pipelineConfig(), nil)

	err := f.app.Run(context.Background(), []string{composer.StageDev}, app.RunOptions{
		Overrides: app.ConfigOverrides{AVX512BF16: "maybe"},
	})
	if !errors.Is(err, domain.ErrInvalidToggle) {
		t.Errorf("expected ErrInvalidToggle, got %v", err)
	}
}

func TestApp_Plan(t *testing.T) {
	f := newAppFixture(t)
	f.loader.EXPECT().Load(".").Return(pipelineConfig(), nil)

	lines, err := f.app.Plan([]string{composer.StageRelease})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(lines, "\n")
	for _, id := range []string{composer.StageBase, composer.StageDeps, composer.StageWheel, composer.StageRelease} {
		if !strings.Contains(joined, id) {
			t.Errorf("expected %s in plan, got:\n%s", id, joined)
		}
	}
	if strings.Contains(joined, composer.StageDev) {
		t.Errorf("expected dev excluded from release plan, got:\n%s", joined)
	}
	if !strings.HasPrefix(lines[0], composer.StageBase) {
		t.Errorf("expected base first in execution order, got %q", lines[0])
	}
}
