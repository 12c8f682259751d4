package domain_test

import (
	"testing"

	"github.com/forgebuild/forge/internal/core/domain"
)

func TestStageID_Equality(t *testing.T) {
	a := domain.NewStageID("wheel")
	b := domain.NewStageID("wheel")
	c := domain.NewStageID("deps")

	if a != b {
		t.Error("expected ids with the same value to be equal")
	}
	if a == c {
		t.Error("expected ids with different values to differ")
	}
}

func TestStageID_Zero(t *testing.T) {
	var id domain.StageID
	if !id.IsZero() {
		t.Error("expected zero value to report IsZero")
	}
	if id.String() != "" {
		t.Errorf("expected empty string for zero id, got %q", id.String())
	}

	if domain.NewStageID("base").IsZero() {
		t.Error("expected non-zero id")
	}
}

func TestStageID_TextRoundTrip(t *testing.T) {
	id := domain.NewStageID("test-deps")

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded domain.StageID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != id {
		t.Errorf("expected round-tripped id to equal original, got %q", decoded.String())
	}
}
