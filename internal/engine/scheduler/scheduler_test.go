package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/forgebuild/forge/internal/adapters/telemetry"
	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports/mocks"
	"github.com/forgebuild/forge/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type nullLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *nullLogger) Info(string) {}
func (l *nullLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *nullLogger) Error(error) {}

type fixture struct {
	executor  *mocks.MockStageExecutor
	hasher    *mocks.MockHasher
	store     *mocks.MockBuildInfoStore
	registry  *mocks.MockArtifactRegistry
	workspace *mocks.MockWorkspace
	integrity *mocks.MockIntegrityChecker
	logger    *nullLogger
	sched     *scheduler.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		executor:  mocks.NewMockStageExecutor(ctrl),
		hasher:    mocks.NewMockHasher(ctrl),
		store:     mocks.NewMockBuildInfoStore(ctrl),
		registry:  mocks.NewMockArtifactRegistry(ctrl),
		workspace: mocks.NewMockWorkspace(ctrl),
		integrity: mocks.NewMockIntegrityChecker(ctrl),
		logger:    &nullLogger{},
	}
	f.sched = scheduler.New(
		f.executor,
		f.hasher,
		f.store,
		f.registry,
		f.workspace,
		f.integrity,
		telemetry.NewNoOp(),
		f.logger,
	)
	return f
}

func buildGraph(t *testing.T, stages ...*domain.Stage) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	for _, s := range stages {
		if err := g.AddStage(s); err != nil {
			t.Fatalf("failed to add stage %s: %v", s.ID, err)
		}
	}
	return g
}

func ids(names ...string) []domain.StageID {
	out := make([]domain.StageID, 0, len(names))
	for _, n := range names {
		out = append(out, domain.NewStageID(n))
	}
	return out
}

func TestScheduler_RunsStagesInOrder(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t,
		&domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"},
		&domain.Stage{ID: domain.NewStageID("deps"), Parent: domain.NewStageID("base"), Dir: "/w/deps"},
	)

	var mu sync.Mutex
	var executed []string

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).DoAndReturn(
		func(stage *domain.Stage, _ []string) (string, error) {
			return "hash-" + stage.ID.String(), nil
		}).Times(2)
	f.store.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(2)
	f.workspace.EXPECT().Prepare(gomock.Any(), "").Return(nil)
	f.workspace.EXPECT().Prepare(gomock.Any(), "/w/base").Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, stage *domain.Stage, _ []string) error {
			mu.Lock()
			defer mu.Unlock()
			executed = append(executed, stage.ID.String())
			return nil
		}).Times(2)
	f.store.EXPECT().Put(gomock.Any()).Return(nil).Times(2)

	err := f.sched.Run(context.Background(), g, ids("deps"), 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(executed) != 2 || executed[0] != "base" || executed[1] != "deps" {
		t.Errorf("expected base before deps, got %v", executed)
	}
	if f.sched.Status(domain.NewStageID("deps")) != scheduler.StatusCompleted {
		t.Errorf("expected deps completed, got %s", f.sched.Status(domain.NewStageID("deps")))
	}
}

func TestScheduler_CacheHitSkipsExecution(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t, &domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"})

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-base", nil)
	f.store.EXPECT().Get("base").Return(&domain.StageBuildInfo{
		StageID:   "base",
		InputHash: "hash-base",
	}, nil)
	// No workspace, executor, or store.Put calls expected.

	err := f.sched.Run(context.Background(), g, ids("base"), 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sched.Status(domain.NewStageID("base")) != scheduler.StatusCached {
		t.Errorf("expected cached status, got %s", f.sched.Status(domain.NewStageID("base")))
	}
}

func TestScheduler_ForceBypassesCache(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t, &domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"})

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-base", nil)
	// The store is never read under force.
	f.workspace.EXPECT().Prepare(gomock.Any(), "").Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.store.EXPECT().Put(gomock.Any()).Return(nil)

	if err := f.sched.Run(context.Background(), g, ids("base"), 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduler_IntegrityFailureAbortsBeforeExecution(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t, &domain.Stage{
		ID:             domain.NewStageID("wheel"),
		Dir:            "/w/wheel",
		IntegrityCheck: "/src",
	})

	f.integrity.EXPECT().Check(gomock.Any(), "/src").Return(domain.ErrDirtyRepository)
	// Neither hashing nor execution happens after the gate fails.

	err := f.sched.Run(context.Background(), g, ids("wheel"), 1, false)
	if err == nil {
		t.Fatal("expected error from integrity gate, got nil")
	}
	if !errors.Is(err, domain.ErrDirtyRepository) {
		t.Errorf("expected ErrDirtyRepository, got %v", err)
	}
	if !errors.Is(err, domain.ErrBuildExecutionFailed) {
		t.Errorf("expected ErrBuildExecutionFailed, got %v", err)
	}
	if f.sched.Status(domain.NewStageID("wheel")) != scheduler.StatusFailed {
		t.Errorf("expected failed status, got %s", f.sched.Status(domain.NewStageID("wheel")))
	}
}

func TestScheduler_FailureSkipsDependents(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t,
		&domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"},
		&domain.Stage{ID: domain.NewStageID("deps"), Parent: domain.NewStageID("base"), Dir: "/w/deps"},
	)

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-base", nil)
	f.store.EXPECT().Get("base").Return(nil, nil)
	f.workspace.EXPECT().Prepare(gomock.Any(), "").Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("step failed"))
	// deps never starts.

	err := f.sched.Run(context.Background(), g, ids("deps"), 1, false)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if f.sched.Status(domain.NewStageID("deps")) != scheduler.StatusPending {
		t.Errorf("expected deps still pending, got %s", f.sched.Status(domain.NewStageID("deps")))
	}
}

func TestScheduler_PublishesProducedArtifact(t *testing.T) {
	f := newFixture(t)

	dist := t.TempDir()
	wheelPath := filepath.Join(dist, "pkg-1.0-py3-none-any.whl")
	if err := os.WriteFile(wheelPath, []byte("wheel"), 0o644); err != nil {
		t.Fatalf("failed to write wheel: %v", err)
	}

	stage := &domain.Stage{
		ID:  domain.NewStageID("wheel"),
		Dir: "/w/wheel",
		Produces: &domain.ArtifactSpec{
			Name: "wheel",
			Glob: filepath.Join(dist, "*.whl"),
		},
	}
	g := buildGraph(t, stage)

	art := domain.Artifact{
		Producer: stage.ID,
		Name:     "wheel",
		FileName: "pkg-1.0-py3-none-any.whl",
		Digest:   "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Size:     5,
	}

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-wheel", nil)
	f.store.EXPECT().Get("wheel").Return(nil, nil)
	f.workspace.EXPECT().Prepare(gomock.Any(), "").Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.registry.EXPECT().Publish(gomock.Any(), stage.ID, "wheel", wheelPath).Return(art, nil)
	f.hasher.EXPECT().ComputeFileHash(wheelPath).Return(uint64(42), nil)
	f.store.EXPECT().Put(gomock.Any()).DoAndReturn(func(info domain.StageBuildInfo) error {
		if info.ArtifactName != "wheel" || info.ArtifactDigest != art.Digest.String() {
			t.Errorf("expected artifact metadata recorded, got %+v", info)
		}
		return nil
	})

	if err := f.sched.Run(context.Background(), g, ids("wheel"), 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduler_CachedProducerRestoresArtifact(t *testing.T) {
	f := newFixture(t)
	stage := &domain.Stage{
		ID:  domain.NewStageID("wheel"),
		Dir: "/w/wheel",
		Produces: &domain.ArtifactSpec{
			Name: "wheel",
			Glob: "/w/wheel/dist/*.whl",
		},
	}
	g := buildGraph(t, stage)

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-wheel", nil)
	f.store.EXPECT().Get("wheel").Return(&domain.StageBuildInfo{
		StageID:          "wheel",
		InputHash:        "hash-wheel",
		ArtifactName:     "wheel",
		ArtifactFileName: "pkg-1.0-py3-none-any.whl",
		ArtifactDigest:   "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ArtifactSize:     5,
	}, nil)
	f.registry.EXPECT().Restore(gomock.Any(), gomock.Any()).Return(nil)

	if err := f.sched.Run(context.Background(), g, ids("wheel"), 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sched.Status(stage.ID) != scheduler.StatusCached {
		t.Errorf("expected cached status, got %s", f.sched.Status(stage.ID))
	}
}

func TestScheduler_RestoreFailureForcesRebuild(t *testing.T) {
	f := newFixture(t)

	dist := t.TempDir()
	wheelPath := filepath.Join(dist, "pkg-1.0-py3-none-any.whl")
	if err := os.WriteFile(wheelPath, []byte("wheel"), 0o644); err != nil {
		t.Fatalf("failed to write wheel: %v", err)
	}

	stage := &domain.Stage{
		ID:  domain.NewStageID("wheel"),
		Dir: "/w/wheel",
		Produces: &domain.ArtifactSpec{
			Name: "wheel",
			Glob: filepath.Join(dist, "*.whl"),
		},
	}
	g := buildGraph(t, stage)

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("hash-wheel", nil)
	f.store.EXPECT().Get("wheel").Return(&domain.StageBuildInfo{
		StageID:   "wheel",
		InputHash: "hash-wheel",
	}, nil)
	f.registry.EXPECT().Restore(gomock.Any(), gomock.Any()).Return(domain.ErrArtifactNotFound)
	f.workspace.EXPECT().Prepare(gomock.Any(), "").Return(nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.registry.EXPECT().Publish(gomock.Any(), stage.ID, "wheel", wheelPath).Return(domain.Artifact{
		Producer: stage.ID,
		Name:     "wheel",
		FileName: "pkg-1.0-py3-none-any.whl",
		Digest:   "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}, nil)
	f.hasher.EXPECT().ComputeFileHash(wheelPath).Return(uint64(42), nil)
	f.store.EXPECT().Put(gomock.Any()).Return(nil)

	if err := f.sched.Run(context.Background(), g, ids("wheel"), 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.logger.warns) == 0 {
		t.Error("expected a warning about the unavailable cached artifact")
	}
}

func TestScheduler_ImportsArtifactsIntoConsumer(t *testing.T) {
	f := newFixture(t)

	producer := &domain.Stage{ID: domain.NewStageID("wheel"), Dir: "/w/wheel"}
	consumer := &domain.Stage{
		ID:     domain.NewStageID("release"),
		Parent: domain.NewStageID("wheel"),
		Dir:    "/w/release",
		Imports: []domain.ArtifactImport{
			{From: domain.NewStageID("wheel"), Name: "wheel", TargetDir: "/w/release/dist"},
		},
	}
	g := buildGraph(t, producer, consumer)

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("h", nil).Times(2)
	f.store.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(2)
	f.workspace.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.registry.EXPECT().Import(gomock.Any(), "wheel", "/w/release/dist").Return(domain.Artifact{}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.store.EXPECT().Put(gomock.Any()).Return(nil).Times(2)

	if err := f.sched.Run(context.Background(), g, ids("release"), 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduler_MissingImportFailsStage(t *testing.T) {
	f := newFixture(t)
	stage := &domain.Stage{
		ID:  domain.NewStageID("release"),
		Dir: "/w/release",
		Imports: []domain.ArtifactImport{
			{From: domain.NewStageID("release"), Name: "wheel", TargetDir: "/w/release/dist"},
		},
	}
	// Self-import is a cycle; build a legal graph instead.
	stage.Imports[0].From = domain.NewStageID("wheel")
	g := buildGraph(t,
		&domain.Stage{ID: domain.NewStageID("wheel"), Dir: "/w/wheel"},
		stage,
	)

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("h", nil).Times(2)
	f.store.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(2)
	f.workspace.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.store.EXPECT().Put(gomock.Any()).Return(nil)
	f.registry.EXPECT().Import(gomock.Any(), "wheel", gomock.Any()).
		Return(domain.Artifact{}, domain.ErrArtifactNotFound)

	err := f.sched.Run(context.Background(), g, ids("release"), 1, false)
	if err == nil {
		t.Fatal("expected error for missing artifact, got nil")
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestScheduler_NoTargets(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t, &domain.Stage{ID: domain.NewStageID("base")})

	err := f.sched.Run(context.Background(), g, nil, 1, false)
	if !errors.Is(err, domain.ErrNoTargetsSpecified) {
		t.Errorf("expected ErrNoTargetsSpecified, got %v", err)
	}
}

func TestScheduler_CancellationDrainsInFlightStage(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t,
		&domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"},
	)

	ctx, cancel := context.WithCancel(context.Background())

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("h", nil).AnyTimes()
	f.store.EXPECT().Get(gomock.Any()).Return(nil, nil).AnyTimes()
	f.workspace.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.Stage, _ []string) error {
			cancel()
			// Report strictly after the run loop has observed the
			// cancellation, so the loop must wait on the result
			// rather than return or spin.
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return ctx.Err()
		})

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.sched.Run(ctx, g, ids("base"), 1, false)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return with a stage in flight after cancellation")
	}

	if got := f.sched.Status(domain.NewStageID("base")); got != scheduler.StatusFailed {
		t.Errorf("expected in-flight stage marked failed, got %v", got)
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	f := newFixture(t)
	g := buildGraph(t,
		&domain.Stage{ID: domain.NewStageID("base"), Dir: "/w/base"},
		&domain.Stage{ID: domain.NewStageID("deps"), Parent: domain.NewStageID("base"), Dir: "/w/deps"},
	)

	ctx, cancel := context.WithCancel(context.Background())

	f.hasher.EXPECT().ComputeStageHash(gomock.Any(), gomock.Any()).Return("h", nil).AnyTimes()
	f.store.EXPECT().Get(gomock.Any()).Return(nil, nil).AnyTimes()
	f.workspace.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.store.EXPECT().Put(gomock.Any()).Return(nil).AnyTimes()
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.Stage, _ []string) error {
			cancel()
			return ctx.Err()
		}).AnyTimes()

	err := f.sched.Run(ctx, g, ids("deps"), 1, false)
	if err == nil {
		t.Fatal("expected error after cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
