package domain

import "unique"

// StageID identifies a stage in the build graph.
// It wraps unique.Handle so that ids used as map keys and in edge lists
// compare by handle rather than by string content.
type StageID struct {
	h unique.Handle[string]
}

// NewStageID creates a StageID from a string.
func NewStageID(s string) StageID {
	return StageID{h: unique.Make(s)}
}

// String returns the underlying string value.
func (id StageID) String() string {
	var zero unique.Handle[string]
	if id.h == zero {
		return ""
	}
	return id.h.Value()
}

// IsZero reports whether the id is the zero value.
// The root stage of a graph has a zero Parent id.
func (id StageID) IsZero() bool {
	var zero unique.Handle[string]
	return id.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (id StageID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *StageID) UnmarshalText(text []byte) error {
	id.h = unique.Make(string(text))
	return nil
}
