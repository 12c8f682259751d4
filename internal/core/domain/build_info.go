package domain

import "time"

// StageBuildInfo records the outcome of a stage run for cache-hit
// checks on later invocations.
type StageBuildInfo struct {
	StageID    string    `json:"stage_id,omitzero"`
	InputHash  string    `json:"input_hash,omitzero"`
	OutputHash string    `json:"output_hash,omitzero"`
	Timestamp  time.Time `json:"timestamp,omitzero"`

	// Artifact metadata when the stage produced one, so a cached
	// producer can re-register its artifact without re-running.
	ArtifactName     string `json:"artifact_name,omitzero"`
	ArtifactFileName string `json:"artifact_file_name,omitzero"`
	ArtifactDigest   string `json:"artifact_digest,omitzero"`
	ArtifactSize     int64  `json:"artifact_size,omitzero"`
}
