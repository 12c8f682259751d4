// Package config provides the configuration loader for forge.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
}

// NewLoader creates a loader for the default forge.yaml file name.
func NewLoader() *FileConfigLoader {
	return &FileConfigLoader{Filename: "forge.yaml"}
}

// Load reads the configuration from the given working directory.
func (l *FileConfigLoader) Load(cwd string) (*domain.PipelineConfig, error) {
	return Load(filepath.Join(cwd, l.Filename))
}

// Load reads a configuration file and maps it into the domain model.
// Toggle values are parsed here so malformed configuration fails before
// any installation work begins.
func Load(path string) (*domain.PipelineConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Forgefile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	return mapConfig(&file)
}

func mapConfig(file *Forgefile) (*domain.PipelineConfig, error) {
	opts, err := parseToggles(file.Toggles)
	if err != nil {
		return nil, err
	}
	opts.IntegrityCheck = file.Integrity

	cfg := &domain.PipelineConfig{
		SourceDir:     defaultString(file.Source, "."),
		Arch:          domain.ArchTag(file.Arch),
		PythonVersion: defaultString(file.Python, "3.12"),
		Index: domain.IndexOptions{
			ExtraIndexURL: file.Index.ExtraURL,
			Strategy:      domain.IndexStrategy(file.Index.Strategy),
		},
		Manifests: domain.ManifestPaths{
			Common:   defaultString(file.Manifests.Common, filepath.Join("requirements", "common.txt")),
			Platform: defaultString(file.Manifests.Platform, filepath.Join("requirements", "cpu.txt")),
			Test:     defaultString(file.Manifests.Test, filepath.Join("requirements", "test.in")),
		},
		Aux: domain.AuxiliaryDirs{
			Tests:       defaultString(file.Aux.Tests, "tests"),
			Examples:    defaultString(file.Aux.Examples, "examples"),
			Benchmarks:  defaultString(file.Aux.Benchmarks, "benchmarks"),
			Diagnostics: file.Aux.Diagnostics,
		},
		Options:      opts,
		Tooling:      file.Tooling,
		ServeCommand: file.Serve,
		WorkDir:      defaultString(file.WorkDir, ".forge"),
		CacheDir:     file.CacheDir,
	}

	if cfg.Arch == "" {
		cfg.Arch = domain.ArchTag("amd64")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, "forge", "mounts")
	}

	return cfg, nil
}

// Recognized toggle keys in forge.yaml.
const (
	toggleDisableAVX512 = "disableAVX512"
	toggleAVX512BF16    = "avx512bf16"
	toggleAVX512VNNI    = "avx512vnni"
)

func parseToggles(toggles map[string]string) (domain.BuildOptions, error) {
	var opts domain.BuildOptions

	for key, value := range toggles {
		parsed, err := domain.ParseToggle(value)
		if err != nil {
			return domain.BuildOptions{}, zerr.With(err, "toggle", key)
		}

		switch key {
		case toggleDisableAVX512:
			opts.DisableAVX512 = parsed
		case toggleAVX512BF16:
			opts.AVX512BF16 = parsed
		case toggleAVX512VNNI:
			opts.AVX512VNNI = parsed
		default:
			return domain.BuildOptions{}, zerr.With(zerr.New("unknown toggle"), "toggle", key)
		}
	}

	return opts, nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
