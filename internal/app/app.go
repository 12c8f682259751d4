// Package app implements the application layer for forge.
package app

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/forgebuild/forge/internal/engine/composer"
	"github.com/forgebuild/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	composer     *composer.Composer
	scheduler    *scheduler.Scheduler
	telemetry    ports.Telemetry
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	comp *composer.Composer,
	sched *scheduler.Scheduler,
	telemetry ports.Telemetry,
) *App {
	return &App{
		configLoader: loader,
		composer:     comp,
		scheduler:    sched,
		telemetry:    telemetry,
	}
}

// RunOptions control one build invocation.
type RunOptions struct {
	// Force rebuilds every required stage regardless of cache state.
	Force bool
	// Parallelism caps concurrently running stages; zero means one per
	// CPU.
	Parallelism int
	// Overrides replace individual configuration values for this
	// invocation only.
	Overrides ConfigOverrides
}

// ConfigOverrides are per-invocation replacements for forge.yaml
// values. Empty fields leave the loaded configuration untouched.
type ConfigOverrides struct {
	Arch           string
	PythonVersion  string
	ExtraIndexURL  string
	DisableAVX512  string
	AVX512BF16     string
	AVX512VNNI     string
	IntegrityCheck *bool
}

func (o ConfigOverrides) apply(cfg *domain.PipelineConfig) error {
	if o.Arch != "" {
		cfg.Arch = domain.ArchTag(o.Arch)
	}
	if o.PythonVersion != "" {
		cfg.PythonVersion = o.PythonVersion
	}
	if o.ExtraIndexURL != "" {
		cfg.Index.ExtraIndexURL = o.ExtraIndexURL
	}
	for _, t := range []struct {
		value  string
		target *domain.Toggle
	}{
		{o.DisableAVX512, &cfg.Options.DisableAVX512},
		{o.AVX512BF16, &cfg.Options.AVX512BF16},
		{o.AVX512VNNI, &cfg.Options.AVX512VNNI},
	} {
		if t.value == "" {
			continue
		}
		toggle, err := domain.ParseToggle(t.value)
		if err != nil {
			return err
		}
		*t.target = toggle
	}
	if o.IntegrityCheck != nil {
		cfg.Options.IntegrityCheck = *o.IntegrityCheck
	}
	return nil
}

// Run builds the requested target stages and everything they require.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	graph, err := a.compose(opts.Overrides)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(graph, targetNames)
	if err != nil {
		return err
	}

	required, err := graph.Required(targets)
	if err != nil {
		return err
	}

	var planned []string
	for stage := range graph.Walk() {
		if required[stage.ID] {
			planned = append(planned, stage.ID.String())
		}
	}
	a.telemetry.EmitPlan(ctx, planned)
	defer func() {
		_ = a.telemetry.Close()
	}()

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	if err := a.scheduler.Run(ctx, graph, targets, parallelism, opts.Force); err != nil {
		return zerr.Wrap(err, "build execution failed")
	}
	return nil
}

// Plan returns a human-readable description of the stages required for
// the given targets, in execution order.
func (a *App) Plan(targetNames []string) ([]string, error) {
	if len(targetNames) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	graph, err := a.compose(ConfigOverrides{})
	if err != nil {
		return nil, err
	}

	targets, err := resolveTargets(graph, targetNames)
	if err != nil {
		return nil, err
	}

	required, err := graph.Required(targets)
	if err != nil {
		return nil, err
	}

	var lines []string
	for stage := range graph.Walk() {
		if !required[stage.ID] {
			continue
		}
		lines = append(lines, describeStage(&stage))
	}
	return lines, nil
}

func (a *App) compose(overrides ConfigOverrides) (*domain.Graph, error) {
	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if err := overrides.apply(cfg); err != nil {
		return nil, err
	}

	variant, err := domain.ResolveArchitecture(cfg.Arch)
	if err != nil {
		return nil, err
	}

	return a.composer.Compose(cfg, variant)
}

func resolveTargets(graph *domain.Graph, names []string) ([]domain.StageID, error) {
	targets := make([]domain.StageID, 0, len(names))
	for _, name := range names {
		id := domain.NewStageID(name)
		if _, err := graph.Stage(id); err != nil {
			return nil, err
		}
		targets = append(targets, id)
	}
	return targets, nil
}

func describeStage(stage *domain.Stage) string {
	var b strings.Builder
	b.WriteString(stage.ID.String())
	if !stage.Parent.IsZero() {
		fmt.Fprintf(&b, " <- %s", stage.Parent.String())
	}
	for _, imp := range stage.Imports {
		fmt.Fprintf(&b, " [imports %s from %s]", imp.Name, imp.From.String())
	}
	return b.String()
}
