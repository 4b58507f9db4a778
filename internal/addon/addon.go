package addon

import (
	"time"

	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
)

// Addon pairs a parsed manifest with its compiled grammar module.
type Addon struct {
	Manifest *Manifest
	Compiled *wasm.CompiledModule
	LoadedAt time.Time
}

// Name returns the add-on name.
func (a *Addon) Name() string {
	return a.Manifest.Name
}

// Engine returns the database engine this add-on serves.
func (a *Addon) Engine() string {
	return a.Manifest.Engine
}

// Version returns the add-on version.
func (a *Addon) Version() string {
	return a.Manifest.Version
}

// Capabilities returns the declared capability list.
func (a *Addon) Capabilities() []string {
	return a.Manifest.Capabilities
}

// HasCapability reports whether the add-on declares a capability.
func (a *Addon) HasCapability(name string) bool {
	for _, c := range a.Manifest.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// SupportsVersion reports whether the add-on lists a database version.
func (a *Addon) SupportsVersion(version string) bool {
	for _, v := range a.Manifest.SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}
