// Package composer constructs the staged build graph for one pipeline
// invocation.
package composer

import (
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Stage ids of the composed pipeline.
const (
	StageBase     = "base"
	StageDeps     = "deps"
	StageWheel    = "wheel"
	StageTestDeps = "test-deps"
	StageDev      = "dev"
	StageTest     = "test"
	StageRelease  = "release"
)

// Logical artifact names.
const (
	// ArtifactWheel is the compiled package distribution.
	ArtifactWheel = "wheel"
	// ArtifactTestLock is the derived, fully pinned CPU test manifest.
	ArtifactTestLock = "test-lock"
)

// Cache mount scope keys.
const (
	scopeDownloads = "pkg-downloads"
	scopeCompiler  = "compiler-cache"
)

// TerminalStages are the stages built when no explicit targets are
// given.
func TerminalStages() []string {
	return []string{StageDev, StageTest, StageRelease}
}

// Composer builds the stage DAG from a pipeline configuration and a
// resolved architecture variant.
type Composer struct{}

// New creates a new Composer.
func New() *Composer {
	return &Composer{}
}

// Compose constructs and validates the pipeline graph:
//
//	base -> deps -> {wheel, test-deps} -> dev / test / release
//
// dev and test branch from the dependency lineage and import the wheel;
// release branches from bare base so it inherits no development or test
// tooling. The dev stage additionally imports the derived test lock so
// dev and test dependency sets stay consistent.
func (c *Composer) Compose(cfg *domain.PipelineConfig, variant domain.ArchVariant) (*domain.Graph, error) {
	if len(cfg.ServeCommand) == 0 {
		return nil, zerr.New("release stage requires a serve command")
	}

	p := &pipeline{cfg: cfg, variant: variant}
	g := domain.NewGraph()

	for _, stage := range []*domain.Stage{
		p.baseStage(),
		p.depsStage(),
		p.wheelStage(),
		p.testDepsStage(),
		p.devStage(),
		p.testStage(),
		p.releaseStage(),
	} {
		if err := g.AddStage(stage); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

type pipeline struct {
	cfg     *domain.PipelineConfig
	variant domain.ArchVariant
}

func (p *pipeline) stageDir(id string) string {
	return filepath.Join(p.cfg.WorkDir, "stages", id)
}

func (p *pipeline) venv(id string) string {
	return filepath.Join(p.stageDir(id), ".venv")
}

func (p *pipeline) venvPython(id string) string {
	return filepath.Join(p.venv(id), "bin", "python")
}

func (p *pipeline) manifest(rel string) string {
	return filepath.Join(p.cfg.SourceDir, rel)
}

func (p *pipeline) cacheMount(scope string) domain.CacheMount {
	return domain.CacheMount{
		ScopeKey: scope,
		Target:   filepath.Join(p.cfg.CacheDir, scope),
		Sharing:  domain.SharingSharedLocked,
	}
}

// stageEnv is the architecture variant's environment shared by every
// stage of the lineage, including the preload library overrides.
func (p *pipeline) stageEnv() map[string]string {
	env := make(map[string]string, len(p.variant.Env)+1)
	for k, v := range p.variant.Env {
		env[k] = v
	}
	if preload := p.variant.PreloadEnv(); preload != "" {
		env["LD_PRELOAD"] = preload
	}
	return env
}

// baseStage installs system tooling, a pinned compiler toolchain, the
// isolated runtime, and the common dependency set.
func (p *pipeline) baseStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	common := p.manifest(p.cfg.Manifests.Common)

	return &domain.Stage{
		ID:        domain.NewStageID(StageBase),
		Dir:       p.stageDir(StageBase),
		BaseImage: p.variant.BaseImage,
		BuildArgs: map[string]string{
			"BASE_IMAGE":     p.variant.BaseImage,
			"ARCH":           string(p.variant.Tag),
			"PYTHON_VERSION": p.cfg.PythonVersion,
		},
		Env:         p.stageEnv(),
		Inputs:      []string{common},
		CacheMounts: []domain.CacheMount{downloads},
		Steps: []domain.Step{
			{
				Name: "install system tooling",
				Run:  []string{"sh", "-c", "apt-get update -y && apt-get install -y --no-install-recommends ccache git curl ca-certificates gcc-12 g++-12 libtcmalloc-minimal4 libnuma-dev"},
			},
			{
				Name: "pin compiler toolchain",
				Run:  []string{"sh", "-c", "update-alternatives --install /usr/bin/gcc gcc /usr/bin/gcc-12 10 --slave /usr/bin/g++ g++ /usr/bin/g++-12"},
			},
			{
				Name: "create runtime environment",
				CreateEnv: &domain.CreateEnvStep{
					Dir:           p.venv(StageBase),
					PythonVersion: p.cfg.PythonVersion,
				},
			},
			{
				Name: "install common dependencies",
				Install: &domain.InstallStep{
					Venv:      p.venv(StageBase),
					Manifests: []string{common},
					Index:     p.cfg.Index,
					CacheDir:  downloads.Target,
				},
			},
		},
	}
}

// depsStage layers the architecture-resolved platform manifest over the
// common set; installing second lets platform entries override common
// ones.
func (p *pipeline) depsStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	platform := p.manifest(p.cfg.Manifests.Platform)

	return &domain.Stage{
		ID:          domain.NewStageID(StageDeps),
		Parent:      domain.NewStageID(StageBase),
		Dir:         p.stageDir(StageDeps),
		Env:         p.stageEnv(),
		Inputs:      []string{platform},
		CacheMounts: []domain.CacheMount{downloads},
		Steps: []domain.Step{
			{
				Name: "install platform dependencies",
				Install: &domain.InstallStep{
					Venv:      p.venv(StageDeps),
					Manifests: []string{platform},
					Index:     p.cfg.Index,
					CacheDir:  downloads.Target,
				},
			},
		},
	}
}

// wheelStage compiles the package source into the single distributable
// artifact. The toggle state enters both the compile environment and
// the stage's build arguments, so it is part of the artifact's cache
// identity. The stage only produces; installation happens downstream.
func (p *pipeline) wheelStage() *domain.Stage {
	compiler := p.cacheMount(scopeCompiler)
	distDir := filepath.Join(p.stageDir(StageWheel), "dist")

	env := p.stageEnv()
	for k, v := range p.cfg.Options.Env() {
		env[k] = v
	}
	env["CCACHE_DIR"] = compiler.Target

	stage := &domain.Stage{
		ID:     domain.NewStageID(StageWheel),
		Parent: domain.NewStageID(StageDeps),
		Dir:    p.stageDir(StageWheel),
		BuildArgs: map[string]string{
			"TOGGLES": p.cfg.Options.Fingerprint(),
		},
		Env:         env,
		Inputs:      []string{p.cfg.SourceDir},
		CacheMounts: []domain.CacheMount{compiler, p.cacheMount(scopeDownloads)},
		Steps: []domain.Step{
			{
				Name: "compile distribution",
				Run:  []string{p.venvPython(StageWheel), "-m", "build", "--wheel", "--outdir", distDir, p.cfg.SourceDir},
			},
		},
		Produces: &domain.ArtifactSpec{
			Name: ArtifactWheel,
			Glob: filepath.Join(distDir, "*.whl"),
		},
	}

	if p.cfg.Options.IntegrityCheck {
		stage.IntegrityCheck = p.cfg.SourceDir
	}
	return stage
}

// testDepsStage derives the pinned CPU test lock from the generic test
// manifest and installs it. The rewrite and the compile both emit new
// files; the source manifest is never modified.
func (p *pipeline) testDepsStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	dir := p.stageDir(StageTestDeps)
	derivedIn := filepath.Join(dir, "requirements", "cpu-test.in")
	lock := filepath.Join(dir, "requirements", "cpu-test.txt")

	return &domain.Stage{
		ID:          domain.NewStageID(StageTestDeps),
		Parent:      domain.NewStageID(StageDeps),
		Dir:         dir,
		Env:         p.stageEnv(),
		Inputs:      []string{p.manifest(p.cfg.Manifests.Test)},
		CacheMounts: []domain.CacheMount{downloads},
		Steps: []domain.Step{
			{
				Name: "derive cpu test manifest",
				Rewrite: &domain.RewriteStep{
					Source: p.manifest(p.cfg.Manifests.Test),
					Output: derivedIn,
					Rules:  domain.CPUTestRewriteRules(),
				},
			},
			{
				Name: "compile test lock",
				Compile: &domain.CompileStep{
					Source: derivedIn,
					Output: lock,
					Lock: domain.LockOptions{
						Index: domain.IndexOptions{
							ExtraIndexURL: p.cfg.Index.ExtraIndexURL,
							Strategy:      domain.IndexStrategyBestMatch,
						},
						TorchBackend: "cpu",
					},
					CacheDir: downloads.Target,
				},
			},
			{
				Name: "install test dependencies",
				Install: &domain.InstallStep{
					Venv:      p.venv(StageTestDeps),
					Manifests: []string{lock},
					Index: domain.IndexOptions{
						ExtraIndexURL: p.cfg.Index.ExtraIndexURL,
						Strategy:      domain.IndexStrategyBestMatch,
					},
					CacheDir: downloads.Target,
				},
			},
		},
		Produces: &domain.ArtifactSpec{
			Name: ArtifactTestLock,
			Glob: lock,
		},
	}
}

// devStage installs the package in editable mode so source edits are
// reflected without rebuilding, layers on interactive tooling and
// pre-flight hooks, and imports the derived test lock so the dev and
// test dependency sets stay consistent. The wheel import keeps the
// artifact available for inspection even though the editable install
// does not consume it.
func (p *pipeline) devStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	dir := p.stageDir(StageDev)
	lockDir := filepath.Join(dir, "requirements")

	return &domain.Stage{
		ID:          domain.NewStageID(StageDev),
		Parent:      domain.NewStageID(StageDeps),
		Dir:         dir,
		Env:         p.stageEnv(),
		CacheMounts: []domain.CacheMount{downloads},
		Imports: []domain.ArtifactImport{
			{From: domain.NewStageID(StageWheel), Name: ArtifactWheel, TargetDir: filepath.Join(dir, "dist")},
			{From: domain.NewStageID(StageTestDeps), Name: ArtifactTestLock, TargetDir: lockDir},
		},
		Steps: []domain.Step{
			{
				Name: "install package editable",
				Install: &domain.InstallStep{
					Venv:     p.venv(StageDev),
					Editable: p.cfg.SourceDir,
					Index:    p.cfg.Index,
					CacheDir: downloads.Target,
				},
			},
			{
				Name: "install test lock",
				Install: &domain.InstallStep{
					Venv:      p.venv(StageDev),
					Manifests: []string{filepath.Join(lockDir, "cpu-test.txt")},
					Index: domain.IndexOptions{
						ExtraIndexURL: p.cfg.Index.ExtraIndexURL,
						Strategy:      domain.IndexStrategyBestMatch,
					},
					CacheDir: downloads.Target,
				},
			},
			p.toolingStep(),
			{
				Name: "register pre-flight hooks",
				Run:  []string{"sh", "-c", "echo '. " + p.venv(StageDev) + "/bin/activate' >> .bashrc"},
			},
		},
		Entrypoint:  []string{"/bin/bash"},
		Interactive: true,
	}
}

func (p *pipeline) toolingStep() domain.Step {
	tools := p.cfg.Tooling
	if len(tools) == 0 {
		tools = []string{"vim", "less", "jq"}
	}
	return domain.Step{
		Name: "install interactive tooling",
		Run:  []string{"sh", "-c", "apt-get install -y --no-install-recommends " + strings.Join(tools, " ")},
	}
}

// testStage starts from the transformer lineage, seal-installs the
// wheel, and imports the auxiliary directories needed at test time
// only.
func (p *pipeline) testStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	dir := p.stageDir(StageTest)
	distDir := filepath.Join(dir, "dist")

	steps := []domain.Step{
		{
			Name: "install package",
			Install: &domain.InstallStep{
				Venv:     p.venv(StageTest),
				WheelDir: distDir,
				Index:    p.cfg.Index,
				CacheDir: downloads.Target,
			},
		},
	}
	steps = append(steps, p.auxCopySteps(dir)...)

	return &domain.Stage{
		ID:          domain.NewStageID(StageTest),
		Parent:      domain.NewStageID(StageTestDeps),
		Dir:         dir,
		Env:         p.stageEnv(),
		CacheMounts: []domain.CacheMount{downloads},
		Imports: []domain.ArtifactImport{
			{From: domain.NewStageID(StageWheel), Name: ArtifactWheel, TargetDir: distDir},
		},
		Steps:       steps,
		Entrypoint:  []string{"/bin/bash"},
		Interactive: true,
	}
}

func (p *pipeline) auxCopySteps(stageDir string) []domain.Step {
	var steps []domain.Step
	add := func(name, rel string) {
		if rel == "" {
			return
		}
		steps = append(steps, domain.Step{
			Name: "import " + name,
			Copy: &domain.CopyStep{
				Source: filepath.Join(p.cfg.SourceDir, rel),
				Target: filepath.Join(stageDir, rel),
			},
		})
	}
	add("tests", p.cfg.Aux.Tests)
	add("examples", p.cfg.Aux.Examples)
	add("benchmarks", p.cfg.Aux.Benchmarks)
	add("diagnostics entry point", p.cfg.Aux.Diagnostics)
	return steps
}

// releaseStage branches from the bare base so the release image
// inherits no development or test tooling, seal-installs the wheel, and
// sets the fixed serve entry point.
func (p *pipeline) releaseStage() *domain.Stage {
	downloads := p.cacheMount(scopeDownloads)
	dir := p.stageDir(StageRelease)
	distDir := filepath.Join(dir, "dist")

	return &domain.Stage{
		ID:          domain.NewStageID(StageRelease),
		Parent:      domain.NewStageID(StageBase),
		Dir:         dir,
		Env:         p.stageEnv(),
		CacheMounts: []domain.CacheMount{downloads},
		Imports: []domain.ArtifactImport{
			{From: domain.NewStageID(StageWheel), Name: ArtifactWheel, TargetDir: distDir},
		},
		Steps: []domain.Step{
			{
				Name: "install package",
				Install: &domain.InstallStep{
					Venv:     p.venv(StageRelease),
					WheelDir: distDir,
					Index:    p.cfg.Index,
					CacheDir: downloads.Target,
				},
			},
		},
		Entrypoint: p.cfg.ServeCommand,
	}
}
