package addon

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry indexes loaded add-ons by name and by engine. The engine
// index keeps add-ons ordered newest version first, so lookup callers
// can take the head as the preferred grammar for a dialect.
type Registry struct {
	sync.RWMutex
	addons   map[string]*Addon
	byEngine map[string][]*Addon
	logger   *zap.Logger
}

// NewRegistry creates a new add-on registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		addons:   make(map[string]*Addon),
		byEngine: make(map[string][]*Addon),
		logger:   logger.With(zap.String("component", "addon-registry")),
	}
}

// Register adds an add-on. Names are unique; a second add-on with the
// same name is rejected.
func (r *Registry) Register(addon *Addon) error {
	r.Lock()
	defer r.Unlock()

	name := addon.Manifest.Name
	if _, exists := r.addons[name]; exists {
		return &AddonAlreadyRegisteredError{AddonName: name}
	}

	r.addons[name] = addon

	engine := addon.Manifest.Engine
	r.byEngine[engine] = append(r.byEngine[engine], addon)
	sort.SliceStable(r.byEngine[engine], func(i, j int) bool {
		return compareVersions(r.byEngine[engine][i].Version(), r.byEngine[engine][j].Version()) > 0
	})

	r.logger.Info("Add-on registered",
		zap.String("name", name),
		zap.String("engine", engine),
		zap.String("version", addon.Version()),
	)

	return nil
}

// Get retrieves an add-on by name.
func (r *Registry) Get(name string) (*Addon, bool) {
	r.RLock()
	defer r.RUnlock()

	addon, ok := r.addons[name]
	return addon, ok
}

// LookupByEngine returns the add-ons serving a database engine, newest
// version first. The slice is a copy.
func (r *Registry) LookupByEngine(engine string) []*Addon {
	r.RLock()
	defer r.RUnlock()

	addons := r.byEngine[engine]
	result := make([]*Addon, len(addons))
	copy(result, addons)
	return result
}

// List returns all registered add-ons.
func (r *Registry) List() []*Addon {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Addon, 0, len(r.addons))
	for _, addon := range r.addons {
		result = append(result, addon)
	}
	return result
}

// Unregister removes an add-on by name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	addon, ok := r.addons[name]
	if !ok {
		return
	}

	engine := addon.Manifest.Engine
	addons := r.byEngine[engine]
	for i, a := range addons {
		if a.Manifest.Name == name {
			r.byEngine[engine] = append(addons[:i], addons[i+1:]...)
			break
		}
	}
	delete(r.addons, name)

	r.logger.Info("Add-on unregistered", zap.String("name", name))
}

// Count returns the number of registered add-ons.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.addons)
}

// compareVersions orders semantic versions numerically per component.
// A version with a pre-release tag sorts below the same version
// without one. Returns >0 when a is newer than b.
func compareVersions(a, b string) int {
	aCore, aPre, _ := strings.Cut(a, "-")
	bCore, bPre, _ := strings.Cut(b, "-")

	aParts := strings.Split(aCore, ".")
	bParts := strings.Split(bCore, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		an, _ := strconv.Atoi(aParts[i])
		bn, _ := strconv.Atoi(bParts[i])
		if an != bn {
			return an - bn
		}
	}
	if len(aParts) != len(bParts) {
		return len(aParts) - len(bParts)
	}

	switch {
	case aPre == bPre:
		return 0
	case aPre == "":
		return 1
	case bPre == "":
		return -1
	default:
		return strings.Compare(aPre, bPre)
	}
}
