package domain

// IndexStrategy selects how the installer resolves packages across
// multiple indices.
type IndexStrategy string

const (
	// IndexStrategyStrict pins resolution to the first index that
	// carries a package.
	IndexStrategyStrict IndexStrategy = "first-index"
	// IndexStrategyBestMatch allows cross-index best-version selection.
	IndexStrategyBestMatch IndexStrategy = "unsafe-best-match"
)

// IndexOptions configure the package-index surface of an install.
type IndexOptions struct {
	// ExtraIndexURL is an auxiliary index consulted for
	// platform-specific binary distributions.
	ExtraIndexURL string
	// Strategy selects the cross-index resolution policy.
	Strategy IndexStrategy
}

// LockOptions configure the deterministic resolution pass that compiles
// a manifest into a fully pinned lock file.
type LockOptions struct {
	Index IndexOptions
	// TorchBackend selects the numerical-compute backend the resolver
	// targets (for CPU images, "cpu").
	TorchBackend string
}

// ManifestPaths names the dependency manifests the pipeline consumes.
type ManifestPaths struct {
	// Common is the shared dependency manifest installed first.
	Common string
	// Platform is the architecture-resolved manifest installed second,
	// so its entries may override common ones.
	Platform string
	// Test is the generic, accelerator-oriented test manifest the
	// transformer derives the CPU test lock from.
	Test string
}

// AuxiliaryDirs are the directories the test stage imports at build
// time only.
type AuxiliaryDirs struct {
	Tests      string
	Examples   string
	Benchmarks string
	// Diagnostics is a single entry-point script for collecting
	// environment information inside the test image.
	Diagnostics string
}

// PipelineConfig is the resolved build-time configuration for one
// pipeline invocation.
type PipelineConfig struct {
	// SourceDir is the package source tree being built.
	SourceDir string

	// Arch selects the architecture variant.
	Arch ArchTag

	// PythonVersion is installed into every isolated runtime.
	PythonVersion string

	// Index is the package-index configuration for installs.
	Index IndexOptions

	// Manifests are the dependency manifest locations, relative to
	// SourceDir.
	Manifests ManifestPaths

	// Aux are the test-only directory imports, relative to SourceDir.
	Aux AuxiliaryDirs

	// Options are the artifact build toggles and the integrity gate.
	Options BuildOptions

	// Tooling is the interactive tool list installed into the dev
	// stage's image.
	Tooling []string

	// ServeCommand is the release stage's fixed process entry point.
	ServeCommand []string

	// WorkDir is where stage snapshots are materialized.
	WorkDir string

	// CacheDir is the root for persistent scope-keyed cache mounts.
	CacheDir string
}
