package config

// Forgefile represents the structure of the forge.yaml configuration file.
type Forgefile struct {
	Version   string            `yaml:"version"`
	Source    string            `yaml:"source"`
	Arch      string            `yaml:"arch"`
	Python    string            `yaml:"python"`
	Index     IndexDTO          `yaml:"index"`
	Manifests ManifestsDTO      `yaml:"manifests"`
	Aux       AuxDTO            `yaml:"aux"`
	Toggles   map[string]string `yaml:"toggles"`
	Integrity bool              `yaml:"integrityCheck"`
	Tooling   []string          `yaml:"tooling"`
	Serve     []string          `yaml:"serve"`
	WorkDir   string            `yaml:"workdir"`
	CacheDir  string            `yaml:"cacheDir"`
}

// IndexDTO configures the package-index surface.
type IndexDTO struct {
	ExtraURL string `yaml:"extraURL"`
	Strategy string `yaml:"strategy"`
}

// ManifestsDTO names the dependency manifests, relative to source.
type ManifestsDTO struct {
	Common   string `yaml:"common"`
	Platform string `yaml:"platform"`
	Test     string `yaml:"test"`
}

// AuxDTO names the test-only directory imports, relative to source.
type AuxDTO struct {
	Tests       string `yaml:"tests"`
	Examples    string `yaml:"examples"`
	Benchmarks  string `yaml:"benchmarks"`
	Diagnostics string `yaml:"diagnostics"`
}
