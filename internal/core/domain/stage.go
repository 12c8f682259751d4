package domain

// SharingMode controls how a cache mount may be accessed by concurrent
// stage builds.
type SharingMode string

const (
	// SharingExclusive makes the mount private to one build's instance
	// of a stage.
	SharingExclusive SharingMode = "exclusive"
	// SharingSharedLocked allows concurrent stages to use the mount
	// under a cooperative locking discipline on the scope key.
	SharingSharedLocked SharingMode = "shared-locked"
)

// CacheMount is a persistent, scope-keyed storage location reused
// across build invocations.
type CacheMount struct {
	// ScopeKey identifies the cache across invocations and stages.
	ScopeKey string
	// Target is the directory path the cache is materialized at.
	Target string
	// Sharing selects the concurrency discipline.
	Sharing SharingMode
}

// ArtifactImport declares that a stage consumes an artifact produced by
// another stage. The source need not be an ancestor; cross-subtree
// imports are explicit edges in the graph.
type ArtifactImport struct {
	// From is the producing stage.
	From StageID
	// Name is the artifact's logical name in the registry.
	Name string
	// TargetDir is the directory inside the importing stage the
	// artifact file is copied into.
	TargetDir string
}

// ArtifactSpec declares the single artifact a stage produces.
type ArtifactSpec struct {
	// Name is the logical name downstream imports refer to.
	Name string
	// Glob locates the produced file under the stage root after the
	// stage's steps have run. It must match exactly one file.
	Glob string
}

// InstallStep installs packages into a stage's isolated runtime.
// Exactly one of Manifests, Editable, or WheelDir is set.
type InstallStep struct {
	// Venv is the isolated runtime the install targets.
	Venv string
	// Manifests are requirement files installed in order, so later
	// (platform) entries may override earlier (common) ones.
	Manifests []string
	// Editable installs the given source directory in editable mode.
	Editable string
	// WheelDir installs the single wheel found in the directory as a
	// sealed package.
	WheelDir string
	// Index carries the package-index configuration.
	Index IndexOptions
	// CacheDir is the shared package-download cache, when mounted.
	CacheDir string
}

// CreateEnvStep materializes an isolated interpreter runtime.
type CreateEnvStep struct {
	// Dir is the runtime's location.
	Dir string
	// PythonVersion selects the interpreter version.
	PythonVersion string
}

// RewriteStep applies rewrite rules to a manifest, writing the derived
// manifest as a new file. The source is never modified.
type RewriteStep struct {
	Source string
	Output string
	Rules  []RewriteRule
}

// CompileStep resolves a manifest into a fully pinned lock file.
type CompileStep struct {
	Source string
	Output string
	Lock   LockOptions
	// CacheDir is the shared package-download cache, when mounted.
	CacheDir string
}

// CopyStep copies an auxiliary file or directory tree into the stage.
type CopyStep struct {
	Source string
	Target string
}

// Step is one unit of work within a stage. Exactly one of the kind
// fields is set.
type Step struct {
	// Name describes the step in logs and progress output.
	Name string

	// Run executes a command. Env is merged over the stage environment.
	Run []string
	Env map[string]string

	Install   *InstallStep
	CreateEnv *CreateEnvStep
	Rewrite   *RewriteStep
	Compile   *CompileStep
	Copy      *CopyStep
}

// Stage is a node of the build graph: it produces a filesystem snapshot
// under Dir plus at most one artifact. Stages form a DAG; every stage
// except the root has exactly one parent, and may additionally declare
// artifact-import edges from unrelated stages.
type Stage struct {
	ID     StageID
	Parent StageID

	// Dir is the stage's root directory in the build workspace.
	Dir string

	// BaseImage is set on the root stage only: the image reference the
	// lineage starts from.
	BaseImage string

	// BuildArgs are the named inputs that parameterize the stage. They
	// are part of the stage's cache identity.
	BuildArgs map[string]string

	// Env is the stage's environment, applied to every step.
	Env map[string]string

	// Inputs are files or directories outside the stage whose content
	// is part of the stage's cache identity (manifests, source trees).
	Inputs []string

	// Steps run in order; a failing step aborts the stage.
	Steps []Step

	CacheMounts []CacheMount
	Imports     []ArtifactImport
	Produces    *ArtifactSpec

	// IntegrityCheck, when set, names a repository directory that must
	// be in a clean source-control state before any step runs.
	IntegrityCheck string

	// Entrypoint is the process entry recorded for terminal stages.
	Entrypoint []string
	// Interactive marks stages whose entrypoint is a command shell.
	Interactive bool
}

// EdgeSources returns the ids of all stages this stage depends on:
// its parent plus every artifact-import source.
func (s *Stage) EdgeSources() []StageID {
	var srcs []StageID
	if !s.Parent.IsZero() {
		srcs = append(srcs, s.Parent)
	}
	for _, imp := range s.Imports {
		srcs = append(srcs, imp.From)
	}
	return srcs
}
