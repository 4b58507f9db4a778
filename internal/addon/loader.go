package addon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
	"go.uber.org/zap"
)

// Loader reads add-on directories and compiles their grammar modules.
type Loader struct {
	runtime      *wasm.Runtime
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new add-on loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		runtime:      runtime,
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "addon-loader")),
	}
}

// LoadAddon loads one add-on from a directory holding a manifest.yaml
// and its Wasm file.
func (l *Loader) LoadAddon(ctx context.Context, dir string) (*Addon, error) {
	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading add-on",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.String("engine", manifest.Engine),
	)

	// The compiled module is cached under the manifest name; that is
	// the key the instance manager resolves at instantiation time.
	data, err := os.ReadFile(manifest.WasmPath())
	if err != nil {
		return nil, &AddonLoadError{AddonName: manifest.Name, Err: err}
	}
	compiled, err := l.moduleLoader.LoadModuleFromMemory(ctx, manifest.Name, data)
	if err != nil {
		return nil, &AddonLoadError{AddonName: manifest.Name, Err: err}
	}

	addon := &Addon{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}

	l.logger.Info("Add-on loaded successfully",
		zap.String("name", manifest.Name),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return addon, nil
}

// DiscoverAddons scans each path for add-on subdirectories and loads
// whatever it finds. Individual load failures are logged and skipped;
// finding nothing at all is a NoAddonsFoundError.
func (l *Loader) DiscoverAddons(ctx context.Context, paths []string) ([]*Addon, error) {
	var addons []*Addon
	var failed int

	for _, basePath := range paths {
		l.logger.Debug("Scanning add-on directory", zap.String("path", basePath))

		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Add-on path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			addonDir := filepath.Join(basePath, entry.Name())
			addon, err := l.LoadAddon(ctx, addonDir)
			if err != nil {
				l.logger.Error("Failed to load add-on",
					zap.String("dir", addonDir),
					zap.Error(err),
				)
				failed++
				continue
			}
			addons = append(addons, addon)
		}
	}

	if len(addons) > 0 && failed > 0 {
		l.logger.Warn("Some add-ons failed to load",
			zap.Int("loaded", len(addons)),
			zap.Int("failed", failed),
		)
	}

	if len(addons) == 0 {
		return nil, &NoAddonsFoundError{Paths: paths}
	}

	return addons, nil
}
