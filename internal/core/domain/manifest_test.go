package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/forgebuild/forge/internal/core/domain"
)

const sampleManifest = `# test dependencies
-r common.txt

torch==2.6.0
Mamba_SSM>=1.2  # accelerator only
torchaudio
numpy<2; python_version < "3.13"
soundfile[mp3]>=0.12
`

func TestParseRequirements(t *testing.T) {
	set, err := domain.ParseRequirements("test.in", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	torch, ok := set.Get("torch")
	if !ok {
		t.Fatal("expected torch entry")
	}
	if torch.Constraint != "==2.6.0" {
		t.Errorf("expected constraint ==2.6.0, got %q", torch.Constraint)
	}

	// Name normalization and comment stripping.
	mamba, ok := set.Get("mamba-ssm")
	if !ok {
		t.Fatal("expected mamba-ssm entry (normalized from Mamba_SSM)")
	}
	if mamba.Constraint != ">=1.2" {
		t.Errorf("expected constraint >=1.2, got %q", mamba.Constraint)
	}

	// Environment markers are stripped for matching purposes.
	numpy, ok := set.Get("numpy")
	if !ok {
		t.Fatal("expected numpy entry")
	}
	if numpy.Constraint != "<2" {
		t.Errorf("expected constraint <2, got %q", numpy.Constraint)
	}

	// Extras fold into the name.
	if !set.Contains("soundfile") {
		t.Error("expected soundfile entry despite extras")
	}

	// Unconstrained entry.
	audio, ok := set.Get("torchaudio")
	if !ok {
		t.Fatal("expected torchaudio entry")
	}
	if audio.Constraint != "" {
		t.Errorf("expected empty constraint, got %q", audio.Constraint)
	}
}

func TestParseRequirements_PassthroughPreserved(t *testing.T) {
	set, err := domain.ParseRequirements("test.in", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered := string(set.Render())
	if !strings.Contains(rendered, "# test dependencies") {
		t.Error("expected comment line preserved in render")
	}
	if !strings.Contains(rendered, "-r common.txt") {
		t.Error("expected option line preserved in render")
	}
}

func TestParseRequirements_Malformed(t *testing.T) {
	_, err := domain.ParseRequirements("bad.in", []byte("==1.0\n"))
	if err == nil {
		t.Fatal("expected error for malformed requirement, got nil")
	}
	if !errors.Is(err, domain.ErrMalformedRequirement) {
		t.Errorf("expected ErrMalformedRequirement, got %v", err)
	}
}

func TestNormalizePackageName(t *testing.T) {
	cases := map[string]string{
		"Torch":       "torch",
		"mamba_ssm":   "mamba-ssm",
		"ruamel.yaml": "ruamel-yaml",
		" spaced ":    "spaced",
	}
	for in, want := range cases {
		if got := domain.NormalizePackageName(in); got != want {
			t.Errorf("NormalizePackageName(%q) = %q, want %q", in, got, want)
		}
	}
}
