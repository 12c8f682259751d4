package domain

import (
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/zerr"
)

// ArchTag names a supported target processor architecture.
// The enum is closed: adding a platform means adding a variant here
// explicitly, never falling through to a default branch.
type ArchTag string

const (
	// ArchAMD64 targets x86-64 hosts.
	ArchAMD64 ArchTag = "amd64"
	// ArchARM64 targets 64-bit ARM hosts.
	ArchARM64 ArchTag = "arm64"
)

// ArchVariant bundles the architecture-specific build configuration:
// the base image to branch from, the allocator/threading libraries to
// preload at runtime, and environment overrides for the serving process.
// A variant is immutable once resolved.
type ArchVariant struct {
	Tag      ArchTag
	Platform ocispec.Platform

	// BaseImage is the image reference the base stage starts from.
	BaseImage string

	// PreloadLibs are the shared libraries injected via LD_PRELOAD.
	// They are architecture-specific memory-allocator and OpenMP paths.
	PreloadLibs []string

	// Env holds additional environment overrides baked into every stage
	// of this variant's lineage.
	Env map[string]string
}

// PreloadEnv renders the preload library list as an LD_PRELOAD value.
func (v ArchVariant) PreloadEnv() string {
	return strings.Join(v.PreloadLibs, ":")
}

var archVariants = map[ArchTag]ArchVariant{
	ArchAMD64: {
		Tag:       ArchAMD64,
		Platform:  ocispec.Platform{OS: "linux", Architecture: "amd64"},
		BaseImage: "ubuntu:22.04",
		PreloadLibs: []string{
			"/usr/lib/x86_64-linux-gnu/libtcmalloc_minimal.so.4",
			"/usr/local/lib/libiomp5.so",
		},
		Env: map[string]string{
			"TARGET_DEVICE": "cpu",
		},
	},
	ArchARM64: {
		Tag:       ArchARM64,
		Platform:  ocispec.Platform{OS: "linux", Architecture: "arm64"},
		BaseImage: "ubuntu:22.04",
		PreloadLibs: []string{
			"/usr/lib/aarch64-linux-gnu/libtcmalloc_minimal.so.4",
		},
		Env: map[string]string{
			"TARGET_DEVICE": "cpu",
		},
	},
}

// ResolveArchitecture returns the variant for the given tag.
// It is a pure lookup: an unknown tag is a configuration error,
// there is no silent fallback.
func ResolveArchitecture(tag ArchTag) (ArchVariant, error) {
	v, ok := archVariants[tag]
	if !ok {
		return ArchVariant{}, zerr.With(ErrUnsupportedArchitecture, "arch", string(tag))
	}
	return v, nil
}

// SupportedArchitectures lists the tags with a registered variant.
func SupportedArchitectures() []ArchTag {
	return []ArchTag{ArchAMD64, ArchARM64}
}
