// Package registry holds the built-in SQL function tables per dialect
// and merges in functions contributed by grammar add-ons. Lookup is
// case-insensitive; the registry is immutable once the server finishes
// startup.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Registry maps dialects to their function tables.
type Registry struct {
	mu    sync.RWMutex
	funcs map[metadata.Dialect]map[string]metadata.FunctionMetadata
}

// NewRegistry creates a registry pre-populated with the built-in
// functions for every supported dialect.
func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[metadata.Dialect]map[string]metadata.FunctionMetadata),
	}
	r.load(metadata.DialectMySQL, mysqlBuiltins())
	r.load(metadata.DialectPostgreSQL, postgresBuiltins())
	return r
}

func (r *Registry) load(dialect metadata.Dialect, funcs []metadata.FunctionMetadata) {
	table := make(map[string]metadata.FunctionMetadata, len(funcs))
	for _, f := range funcs {
		table[strings.ToUpper(f.Name)] = f
	}
	r.funcs[dialect] = table
}

// Lookup finds a function by name for a dialect, case-insensitively.
func (r *Registry) Lookup(dialect metadata.Dialect, name string) (metadata.FunctionMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.funcs[dialect.Family()]
	if !ok {
		return metadata.FunctionMetadata{}, false
	}
	f, ok := table[strings.ToUpper(name)]
	return f, ok
}

// List returns all functions for a dialect in stable name order.
func (r *Registry) List(dialect metadata.Dialect) []metadata.FunctionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.funcs[dialect.Family()]
	if !ok {
		return nil
	}
	out := make([]metadata.FunctionMetadata, 0, len(table))
	for _, f := range table {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge adds add-on-contributed functions for a dialect. Built-ins win
// name collisions so an add-on cannot shadow core documentation.
func (r *Registry) Merge(dialect metadata.Dialect, funcs []metadata.FunctionMetadata) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	family := dialect.Family()
	table, ok := r.funcs[family]
	if !ok {
		table = make(map[string]metadata.FunctionMetadata)
		r.funcs[family] = table
	}

	added := 0
	for _, f := range funcs {
		key := strings.ToUpper(f.Name)
		if existing, exists := table[key]; exists && existing.IsBuiltin {
			continue
		}
		f.IsBuiltin = false
		table[key] = f
		added++
	}
	return added
}
