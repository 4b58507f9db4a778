package catalog

import "path"

// SchemaFilter restricts which schemas a live catalog exposes.
// Patterns use shell-style matching ("app_*"). An empty Allow list
// allows everything; Exclude wins over Allow.
type SchemaFilter struct {
	Allow   []string
	Exclude []string
}

// Match reports whether a schema passes the filter.
func (f SchemaFilter) Match(schema string) bool {
	for _, pat := range f.Exclude {
		if ok, err := path.Match(pat, schema); err == nil && ok {
			return false
		}
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, pat := range f.Allow {
		if ok, err := path.Match(pat, schema); err == nil && ok {
			return true
		}
	}
	return false
}
