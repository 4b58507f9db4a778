package addon

import (
	"context"
	"fmt"
	"sync"

	"github.com/woxQAQ/unified-sql-lsp/internal/config"
	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
	"go.uber.org/zap"
)

// Manager owns the add-on lifecycle: discovery, registration and
// instantiation of grammar modules.
type Manager struct {
	cfg         *config.ServerConfig
	runtime     *wasm.Runtime
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	logger      *zap.Logger

	mu     sync.RWMutex
	loaded bool
}

// NewManager creates a new add-on manager.
func NewManager(
	cfg *config.ServerConfig,
	runtime *wasm.Runtime,
	hostFuncs *wasm.HostFunctionsImpl,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		cfg:         cfg,
		runtime:     runtime,
		loader:      NewLoader(runtime, logger),
		registry:    NewRegistry(logger),
		instanceMgr: wasm.NewInstanceManager(runtime, hostFuncs, logger),
		logger:      logger.With(zap.String("component", "addon-manager")),
	}
}

// LoadAll discovers and registers add-ons from the configured paths.
// Empty paths are not an error; the server then runs without grammar
// support and every document parses to a nil tree.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("add-ons already loaded")
	}

	m.logger.Info("Loading add-ons",
		zap.Strings("paths", m.cfg.AddonPaths),
	)

	addons, err := m.loader.DiscoverAddons(ctx, m.cfg.AddonPaths)
	if err != nil {
		if _, ok := err.(*NoAddonsFoundError); ok {
			m.logger.Warn("No add-ons found in configured paths",
				zap.Strings("paths", m.cfg.AddonPaths),
			)
			m.loaded = true
			return nil
		}
		return err
	}

	for _, addon := range addons {
		if err := m.registry.Register(addon); err != nil {
			m.logger.Error("Failed to register add-on",
				zap.String("name", addon.Manifest.Name),
				zap.Error(err),
			)
			continue
		}
	}

	m.loaded = true

	m.logger.Info("Add-ons loaded successfully",
		zap.Int("count", len(addons)),
	)

	return nil
}

// GetAddon retrieves an add-on by name.
func (m *Manager) GetAddon(name string) (*Addon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addon, ok := m.registry.Get(name)
	if !ok {
		return nil, &AddonNotFoundError{AddonName: name}
	}

	return addon, nil
}

// FindAddonForEngine returns the add-on serving a database engine.
// When several are registered the newest version wins.
func (m *Manager) FindAddonForEngine(engine string) (*Addon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addons := m.registry.LookupByEngine(engine)
	if len(addons) == 0 {
		return nil, fmt.Errorf("no add-on found for engine '%s'", engine)
	}

	return addons[0], nil
}

// Instantiate creates a new guest instance of a loaded add-on.
func (m *Manager) Instantiate(ctx context.Context, addonName string) (*wasm.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addon, ok := m.registry.Get(addonName)
	if !ok {
		return nil, &AddonNotFoundError{AddonName: addonName}
	}

	return m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName: addon.Manifest.Name,
	})
}

// Shutdown closes the wasm runtime, which tears down every guest
// instance and compiled module.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down add-on manager")

	if err := m.runtime.Close(ctx); err != nil {
		m.logger.Error("Failed to shutdown runtime", zap.Error(err))
		return err
	}

	m.logger.Info("Add-on manager shutdown complete")
	return nil
}

// Registry exposes the add-on registry for inspection.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded reports whether LoadAll has run.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
