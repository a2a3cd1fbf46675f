package api

// Manifest is the top-level schema of the .chart-render.yaml file stored
// in the root directory. It declares every environment and the releases
// deployed into it.
type Manifest struct {
	Environments []ManifestEnvironment `yaml:"environments"`
}

// ManifestEnvironment groups the releases of one named environment.
type ManifestEnvironment struct {
	Name     string            `yaml:"name"`
	Releases []ManifestRelease `yaml:"releases"`
}

// ManifestRelease declares one release. A chart reference with the file://
// scheme points at a local chart directory and must not carry a version;
// any other reference is remote and must. Value files are applied in
// declared order (Helm applies them left-to-right).
type ManifestRelease struct {
	Name       string         `yaml:"name"`
	Namespace  string         `yaml:"namespace"`
	Chart      string         `yaml:"chart"`
	Version    string         `yaml:"version,omitempty"`
	Values     map[string]any `yaml:"values,omitempty"`
	ValueFiles []string       `yaml:"valueFiles,omitempty"`
}
