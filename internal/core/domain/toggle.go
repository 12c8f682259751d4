package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Toggle is a tri-state build flag. The zero value leaves the decision
// to the compilation toolchain's own default.
type Toggle int

const (
	// ToggleDefault defers to the toolchain default.
	ToggleDefault Toggle = iota
	// ToggleOn forces the feature on.
	ToggleOn
	// ToggleOff forces the feature off.
	ToggleOff
)

// ParseToggle parses a configuration value into a Toggle.
// Empty input means ToggleDefault. Malformed values are a configuration
// error reported before any installation work begins.
func ParseToggle(s string) (Toggle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ToggleDefault, nil
	case "on", "true", "1", "yes":
		return ToggleOn, nil
	case "off", "false", "0", "no":
		return ToggleOff, nil
	default:
		return ToggleDefault, zerr.With(ErrInvalidToggle, "value", s)
	}
}

// EnvValue renders the toggle as the value forwarded into the compile
// environment. Default toggles are not exported at all.
func (t Toggle) EnvValue() (string, bool) {
	switch t {
	case ToggleOn:
		return "1", true
	case ToggleOff:
		return "0", true
	default:
		return "", false
	}
}

// String returns the canonical configuration spelling.
func (t Toggle) String() string {
	switch t {
	case ToggleOn:
		return "on"
	case ToggleOff:
		return "off"
	default:
		return "default"
	}
}

// Environment variable names the compiled package's build script reads.
const (
	EnvDisableAVX512 = "CPU_DISABLE_AVX512"
	EnvAVX512BF16    = "CPU_AVX512BF16"
	EnvAVX512VNNI    = "CPU_AVX512VNNI"
)

// BuildOptions are the build-time knobs that change the compiled
// artifact's capability footprint. They are part of the artifact's
// effective identity: two builds differing only in toggle values are
// different artifacts.
type BuildOptions struct {
	// DisableAVX512 excludes the wide vector extension from the build.
	DisableAVX512 Toggle
	// AVX512BF16 enables the bfloat16 vector sub-extension.
	AVX512BF16 Toggle
	// AVX512VNNI enables the neural-network vector sub-extension.
	AVX512VNNI Toggle

	// IntegrityCheck gates the fail-fast source-control check before
	// compilation.
	IntegrityCheck bool
}

// Env returns the environment variables forwarded into the compile step.
func (o BuildOptions) Env() map[string]string {
	env := make(map[string]string)
	if v, ok := o.DisableAVX512.EnvValue(); ok {
		env[EnvDisableAVX512] = v
	}
	if v, ok := o.AVX512BF16.EnvValue(); ok {
		env[EnvAVX512BF16] = v
	}
	if v, ok := o.AVX512VNNI.EnvValue(); ok {
		env[EnvAVX512VNNI] = v
	}
	return env
}

// Fingerprint returns a stable string capturing the toggle state for
// cache-key computation.
func (o BuildOptions) Fingerprint() string {
	var b strings.Builder
	b.WriteString("avx512=")
	b.WriteString(o.DisableAVX512.String())
	b.WriteString(";bf16=")
	b.WriteString(o.AVX512BF16.String())
	b.WriteString(";vnni=")
	b.WriteString(o.AVX512VNNI.String())
	return b.String()
}
