package domain

import "go.trai.ch/zerr"

var (
	// ErrStageAlreadyExists is returned when attempting to add a stage with an id that already exists.
	ErrStageAlreadyExists = zerr.New("stage already exists")

	// ErrMissingStage is returned when a stage references a parent or import source that doesn't exist in the graph.
	ErrMissingStage = zerr.New("missing stage")

	// ErrCycleDetected is returned when a cycle is detected in the stage graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrStageNotFound is returned when a requested stage is not found in the graph.
	ErrStageNotFound = zerr.New("stage not found")

	// ErrUnsupportedArchitecture is returned when no architecture variant matches the requested tag.
	ErrUnsupportedArchitecture = zerr.New("no matching base for architecture")

	// ErrInvalidToggle is returned when a build toggle value cannot be parsed.
	ErrInvalidToggle = zerr.New("invalid toggle value")

	// ErrMalformedRequirement is returned when a requirement manifest line cannot be parsed.
	ErrMalformedRequirement = zerr.New("malformed requirement")

	// ErrArtifactNotFound is returned when a stage imports an artifact that no upstream stage produced.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrArtifactDigestMismatch is returned when an imported artifact's content does not match its recorded digest.
	ErrArtifactDigestMismatch = zerr.New("artifact digest mismatch")

	// ErrDirtyRepository is returned by the integrity gate when the source tree has uncommitted state.
	ErrDirtyRepository = zerr.New("repository has uncommitted changes")

	// ErrNoTargetsSpecified is returned when a build is requested without any target stages.
	ErrNoTargetsSpecified = zerr.New("no target stages specified")

	// ErrBuildExecutionFailed is a marker error for build failures already reported to the user.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
