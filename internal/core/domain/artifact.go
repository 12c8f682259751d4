package domain

import "github.com/opencontainers/go-digest"

// Artifact is an opaque compiled output produced exactly once by its
// producer stage and imported read-only by downstream stages. Importers
// hold independent copies; the content is never regenerated downstream.
type Artifact struct {
	// Producer is the stage that built the artifact.
	Producer StageID `json:"producer"`

	// Name is the logical name downstream imports refer to.
	Name string `json:"name"`

	// FileName is the artifact's original file name, preserved on
	// import so tooling that inspects the name still works.
	FileName string `json:"file_name"`

	// Digest is the content digest. Every import is verified against
	// it: all consumers of one producer run observe bit-identical
	// content, and divergence is surfaced as a digest mismatch.
	Digest digest.Digest `json:"digest"`

	// Size is the content length in bytes.
	Size int64 `json:"size"`
}
