package addon

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// semverPattern accepts plain semantic versions with an optional
// pre-release tag, e.g. "1.0.0" or "2.1.0-rc1".
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.\-]+)?$`)

// validEngines are the database engines grammar add-ons may target.
var validEngines = map[string]bool{
	"PostgreSQL": true,
	"MySQL":      true,
}

// validCapabilities are the features an add-on may declare.
var validCapabilities = map[string]bool{
	"grammar":              true,
	"functions":            true,
	"schema_introspection": true,
}

// Manifest is the parsed manifest.yaml of one add-on directory.
type Manifest struct {
	Name              string     `yaml:"name"`
	Version           string     `yaml:"version"`
	Engine            string     `yaml:"engine"`
	SupportedVersions []string   `yaml:"supported_versions"`
	Wasm              WasmConfig `yaml:"wasm"`
	Capabilities      []string   `yaml:"capabilities"`
	Author            string     `yaml:"author"`
	License           string     `yaml:"license"`

	dir string
}

// WasmConfig names the add-on's Wasm module.
type WasmConfig struct {
	File string `yaml:"file"`
	Size int    `yaml:"size"` // KB
}

// ParseManifest reads, parses and validates manifest.yaml from a
// directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{Path: manifestPath, Err: err}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"name", m.Name},
		{"version", m.Version},
		{"engine", m.Engine},
	}
	for _, r := range required {
		if r.value == "" {
			return m.invalid(r.field, r.field+" is required")
		}
	}

	if !semverPattern.MatchString(m.Version) {
		return m.invalid("version", fmt.Sprintf("version '%s' is not a semantic version", m.Version))
	}

	if !validEngines[m.Engine] {
		return m.invalid("engine", fmt.Sprintf("unsupported engine: %s (must be one of: PostgreSQL, MySQL)", m.Engine))
	}

	if len(m.SupportedVersions) == 0 {
		return m.invalid("supported_versions", "at least one supported version is required")
	}

	if m.Wasm.File == "" {
		return m.invalid("wasm.file", "wasm.file is required")
	}

	if len(m.Capabilities) == 0 {
		return m.invalid("capabilities", "at least one capability is required")
	}
	for _, cap := range m.Capabilities {
		if !validCapabilities[cap] {
			return m.invalid("capabilities", fmt.Sprintf("unknown capability: %s (must be one of: grammar, functions, schema_introspection)", cap))
		}
	}

	if _, err := os.Stat(m.WasmPath()); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}

	return nil
}

func (m *Manifest) invalid(field, message string) error {
	return &ManifestValidationError{Path: m.Path(), Field: field, Message: message}
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, "manifest.yaml")
}

// WasmPath returns the absolute path to the Wasm file.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
