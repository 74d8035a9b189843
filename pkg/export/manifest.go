package export

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest records what a run read and wrote.
type Manifest struct {
	Batch    string          `yaml:"batch"`
	RunID    string          `yaml:"run_id"`
	Started  time.Time       `yaml:"started"`
	Finished time.Time       `yaml:"finished"`
	Inputs   []ManifestInput `yaml:"inputs"`
	Sessions []ManifestRun   `yaml:"sessions"`
	Outputs  []string        `yaml:"outputs"`
}

// ManifestInput is one loaded table.
type ManifestInput struct {
	Template string    `yaml:"template"`
	Path     string    `yaml:"path"`
	Modified time.Time `yaml:"modified"`
	Rows     int       `yaml:"rows"`
}

// ManifestRun is one session outcome.
type ManifestRun struct {
	Policy string `yaml:"policy"`
	Name   string `yaml:"name"`
	Folder string `yaml:"folder"`
	Failed bool   `yaml:"failed"`
	Error  string `yaml:"error,omitempty"`
}

// WriteManifest writes <Dir>/<stamp>_manifest.yaml.
func (w Writer) WriteManifest(m Manifest) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, w.Banner.Stamp+"_manifest.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	return m, yaml.Unmarshal(data, &m)
}
