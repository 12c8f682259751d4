// Package scheduler executes the stage graph.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// StageStatus represents the status of a stage.
type StageStatus string

const (
	// StatusPending indicates the stage is waiting to be executed.
	StatusPending StageStatus = "Pending"
	// StatusRunning indicates the stage is currently executing.
	StatusRunning StageStatus = "Running"
	// StatusCompleted indicates the stage has finished successfully.
	StatusCompleted StageStatus = "Completed"
	// StatusFailed indicates the stage execution failed.
	StatusFailed StageStatus = "Failed"
	// StatusCached indicates the stage was skipped because it was cached.
	StatusCached StageStatus = "Cached"
)

// Scheduler runs the stages of a build graph in dependency order, with
// chained input hashing for cache-hit checks and artifact promotion
// between producer and consumer stages.
type Scheduler struct {
	executor  ports.StageExecutor
	hasher    ports.Hasher
	store     ports.BuildInfoStore
	registry  ports.ArtifactRegistry
	workspace ports.Workspace
	integrity ports.IntegrityChecker
	telemetry ports.Telemetry
	logger    ports.Logger

	locks *lockTable

	mu          sync.RWMutex
	stageStatus map[domain.StageID]StageStatus
	stageHashes map[domain.StageID]string
}

// New creates a new Scheduler.
func New(
	executor ports.StageExecutor,
	hasher ports.Hasher,
	store ports.BuildInfoStore,
	registry ports.ArtifactRegistry,
	workspace ports.Workspace,
	integrity ports.IntegrityChecker,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:  executor,
		hasher:    hasher,
		store:     store,
		registry:  registry,
		workspace: workspace,
		integrity: integrity,
		telemetry: telemetry,
		logger:    logger,
		locks:     newLockTable(),
	}
}

// Status returns the current status of a stage.
func (s *Scheduler) Status(id domain.StageID) StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stageStatus[id]
}

func (s *Scheduler) updateStatus(id domain.StageID, status StageStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageStatus[id] = status
}

// recordHash stores a stage's input hash so dependents can chain it
// into their own.
func (s *Scheduler) recordHash(id domain.StageID, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageHashes[id] = hash
}

// ancestorHashes returns the input hashes of the stage's edge sources,
// in edge order. Every source has finished by the time the stage is
// scheduled, so a missing hash is a scheduling bug.
func (s *Scheduler) ancestorHashes(stage *domain.Stage) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	srcs := stage.EdgeSources()
	hashes := make([]string, 0, len(srcs))
	for _, src := range srcs {
		h, ok := s.stageHashes[src]
		if !ok {
			return nil, zerr.With(zerr.New("dependency hash not recorded"), "stage", src.String())
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// Run executes the stages required for the given targets with the
// specified parallelism. The whole invocation is one pass: each
// required stage runs at most once, and a stage failure fails its
// entire dependent subtree while independent branches keep running.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targets []domain.StageID, parallelism int, force bool) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	required, err := graph.Required(targets)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stageStatus = make(map[domain.StageID]StageStatus, len(required))
	s.stageHashes = make(map[domain.StageID]string, len(required))
	for id := range required {
		s.stageStatus[id] = StatusPending
	}
	s.mu.Unlock()

	state := s.newRunState(ctx, graph, required, parallelism, force)

	// Disabled after the first cancellation observation so the loop
	// blocks on in-flight results instead of spinning on a closed
	// channel.
	done := ctx.Done()

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			done = nil
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	if state.errs != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, state.errs)
	}
	return nil
}

type result struct {
	stage domain.StageID
	err   error
}

type runState struct {
	graph       *domain.Graph
	required    map[domain.StageID]bool
	inDegree    map[domain.StageID]int
	stages      map[domain.StageID]domain.Stage
	ready       []domain.StageID
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	force       bool
	s           *Scheduler
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, required map[domain.StageID]bool, parallelism int, force bool) *runState {
	inDegree := make(map[domain.StageID]int, len(required))
	stages := make(map[domain.StageID]domain.Stage, len(required))

	for stage := range graph.Walk() {
		if !required[stage.ID] {
			continue
		}
		stages[stage.ID] = stage
		// A parent that is also an artifact-import source is one edge
		// for scheduling purposes.
		inDegree[stage.ID] = len(uniqueSources(&stage))
	}

	var ready []domain.StageID
	for stage := range graph.Walk() {
		if required[stage.ID] && inDegree[stage.ID] == 0 {
			ready = append(ready, stage.ID)
		}
	}

	return &runState{
		graph:       graph,
		required:    required,
		inDegree:    inDegree,
		stages:      stages,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		force:       force,
		s:           s,
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		id := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(id, StatusRunning)

		go func(stage domain.Stage) {
			state.resultsCh <- result{stage: stage.ID, err: state.executeStage(state.ctx, &stage)}
		}(state.stages[id])
	}
}

// executeStage runs one stage end to end: integrity gate, input hash,
// cache check, snapshot preparation, artifact imports, steps, and
// artifact publication.
func (state *runState) executeStage(ctx context.Context, stage *domain.Stage) error {
	s := state.s

	// The integrity gate runs before anything else so a dirty source
	// tree fails fast, before any compilation work starts.
	if stage.IntegrityCheck != "" {
		if err := s.integrity.Check(ctx, stage.IntegrityCheck); err != nil {
			return err
		}
	}

	ancestors, err := s.ancestorHashes(stage)
	if err != nil {
		return err
	}

	inputHash, err := s.hasher.ComputeStageHash(stage, ancestors)
	if err != nil {
		return err
	}
	// Recorded unconditionally so dependents chain this hash whether
	// the stage is rebuilt or served from cache.
	s.recordHash(stage.ID, inputHash)

	ctx, vertex := s.telemetry.Record(ctx, stage.ID.String())

	if !state.force && state.checkCacheHit(ctx, stage, inputHash) {
		vertex.Cached()
		vertex.Complete(nil)
		return nil
	}

	err = state.buildStage(ctx, stage, inputHash)
	vertex.Complete(err)
	return err
}

// checkCacheHit reports whether the stage can be served from cache. A
// producing stage only counts as a hit if its recorded artifact can be
// restored into the registry; otherwise it must re-run to regenerate
// the content.
func (state *runState) checkCacheHit(ctx context.Context, stage *domain.Stage, inputHash string) bool {
	s := state.s

	info, err := s.store.Get(stage.ID.String())
	if err != nil || info == nil || info.InputHash != inputHash {
		return false
	}

	if stage.Produces != nil {
		art := domain.Artifact{
			Producer: stage.ID,
			Name:     info.ArtifactName,
			FileName: info.ArtifactFileName,
			Digest:   digestFromInfo(info),
			Size:     info.ArtifactSize,
		}
		if restoreErr := s.registry.Restore(ctx, art); restoreErr != nil {
			s.logger.Warn("cached artifact unavailable, rebuilding stage " + stage.ID.String())
			return false
		}
	}

	s.updateStatus(stage.ID, StatusCached)
	return true
}

// buildStage performs the cache-miss path.
func (state *runState) buildStage(ctx context.Context, stage *domain.Stage, inputHash string) error {
	s := state.s

	parentDir := ""
	if !stage.Parent.IsZero() {
		parent, err := state.graph.Stage(stage.Parent)
		if err != nil {
			return err
		}
		parentDir = parent.Dir
	}

	if err := s.workspace.Prepare(stage, parentDir); err != nil {
		return err
	}

	if err := state.importArtifacts(ctx, stage); err != nil {
		return err
	}

	if err := prepareCacheMounts(stage); err != nil {
		return err
	}

	release := s.locks.acquire(sharedScopes(stage))
	defer release()

	if err := s.executor.Execute(ctx, stage, stageEnviron(stage)); err != nil {
		return err
	}

	return state.publish(ctx, stage, inputHash)
}

// importArtifacts copies every declared artifact import into the stage
// snapshot. Imports are independent of one another and run
// concurrently; a missing or corrupt artifact fails the stage.
func (state *runState) importArtifacts(ctx context.Context, stage *domain.Stage) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, imp := range stage.Imports {
		g.Go(func() error {
			_, err := state.s.registry.Import(ctx, imp.Name, imp.TargetDir)
			if err != nil {
				return zerr.With(err, "stage", stage.ID.String())
			}
			return nil
		})
	}
	return g.Wait()
}

// publish registers the stage's produced artifact, if any, and records
// the build info for later cache-hit checks.
func (state *runState) publish(ctx context.Context, stage *domain.Stage, inputHash string) error {
	s := state.s

	info := domain.StageBuildInfo{
		StageID:   stage.ID.String(),
		InputHash: inputHash,
		Timestamp: time.Now(),
	}

	if stage.Produces != nil {
		path, err := resolveProducedFile(stage.Produces.Glob)
		if err != nil {
			return zerr.With(err, "stage", stage.ID.String())
		}

		art, err := s.registry.Publish(ctx, stage.ID, stage.Produces.Name, path)
		if err != nil {
			return err
		}

		outputHash, err := s.hasher.ComputeFileHash(path)
		if err != nil {
			return zerr.Wrap(err, "failed to hash produced artifact")
		}

		info.OutputHash = formatHash(outputHash)
		info.ArtifactName = art.Name
		info.ArtifactFileName = art.FileName
		info.ArtifactDigest = art.Digest.String()
		info.ArtifactSize = art.Size
	}

	if err := s.store.Put(info); err != nil {
		return zerr.Wrap(err, "failed to store build info")
	}
	return nil
}

func (state *runState) handleResult(res result) {
	state.active--
	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "stage execution failed"), "stage", res.stage.String())
		state.errs = errors.Join(state.errs, wrappedErr)
		state.s.updateStatus(res.stage, StatusFailed)
		return
	}

	if state.s.Status(res.stage) != StatusCached {
		state.s.updateStatus(res.stage, StatusCompleted)
	}
	for _, dep := range state.graph.Dependents(res.stage) {
		if !state.required[dep] {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// resolveProducedFile resolves an artifact glob to exactly one file.
func resolveProducedFile(glob string) (string, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "invalid artifact glob"), "glob", glob)
	}
	if len(matches) != 1 {
		err := zerr.With(zerr.New("artifact glob must match exactly one file"), "glob", glob)
		return "", zerr.With(err, "matches", len(matches))
	}
	return matches[0], nil
}

// prepareCacheMounts ensures every cache mount target exists so caches
// persist across invocations even before their first writer runs.
func prepareCacheMounts(stage *domain.Stage) error {
	for _, mount := range stage.CacheMounts {
		if err := os.MkdirAll(mount.Target, 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create cache mount"), "scope", mount.ScopeKey)
		}
	}
	return nil
}

// uniqueSources returns the stage's edge sources with duplicates
// collapsed.
func uniqueSources(stage *domain.Stage) []domain.StageID {
	seen := make(map[domain.StageID]bool)
	var srcs []domain.StageID
	for _, src := range stage.EdgeSources() {
		if !seen[src] {
			seen[src] = true
			srcs = append(srcs, src)
		}
	}
	return srcs
}

// sharedScopes returns the scope keys of the stage's shared-locked
// cache mounts.
func sharedScopes(stage *domain.Stage) []string {
	var scopes []string
	for _, mount := range stage.CacheMounts {
		if mount.Sharing == domain.SharingSharedLocked {
			scopes = append(scopes, mount.ScopeKey)
		}
	}
	return scopes
}

func digestFromInfo(info *domain.StageBuildInfo) digest.Digest {
	return digest.Digest(info.ArtifactDigest)
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// stageEnviron renders the stage environment as KEY=VALUE pairs in
// deterministic order.
func stageEnviron(stage *domain.Stage) []string {
	keys := make([]string, 0, len(stage.Env))
	for k := range stage.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+stage.Env[k])
	}
	return env
}
