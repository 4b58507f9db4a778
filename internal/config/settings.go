package config

import (
	"encoding/json"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// SettingsSection is the key clients use to scope our settings inside
// workspace/didChangeConfiguration payloads.
const SettingsSection = "unifiedSqlLsp"

const (
	DefaultPoolSize         = 10
	DefaultQueryTimeoutSecs = 5
)

// Settings carries the per-workspace options a client can push at
// runtime. Zero values fall back to defaults via Normalize.
type Settings struct {
	// Dialect overrides language-id based dialect detection for every
	// open document when non-empty.
	Dialect string `json:"dialect"`
	// ConnectionString switches the catalog from the static fixture to
	// a live database when non-empty.
	ConnectionString string `json:"connectionString"`
	PoolSize         int    `json:"poolSize"`
	QueryTimeoutSecs int    `json:"queryTimeoutSecs"`
	SchemaFilter     Filter `json:"schemaFilter"`
}

// Filter mirrors the allow/exclude schema patterns clients configure.
type Filter struct {
	Allow   []string `json:"allow"`
	Exclude []string `json:"exclude"`
}

// DefaultSettings returns the settings used before a client pushes any
// configuration.
func DefaultSettings() Settings {
	return Settings{
		PoolSize:         DefaultPoolSize,
		QueryTimeoutSecs: DefaultQueryTimeoutSecs,
	}
}

// DecodeSettings extracts Settings from the untyped payload of a
// workspace/didChangeConfiguration notification. Both a bare settings
// object and one nested under the "unifiedSqlLsp" section are
// accepted. A nil payload yields the defaults.
func DecodeSettings(raw any) (Settings, error) {
	settings := DefaultSettings()
	if raw == nil {
		return settings, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return settings, &SettingsDecodeError{Err: err}
	}

	// Unwrap the section key if the client sent the full settings tree.
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err == nil {
		if nested, ok := sections[SettingsSection]; ok {
			data = nested
		}
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), &SettingsDecodeError{Err: err}
	}

	settings.Normalize()
	return settings, nil
}

// Normalize clamps out-of-range values back to defaults and validates
// the dialect override.
func (s *Settings) Normalize() {
	if s.PoolSize < 1 {
		s.PoolSize = DefaultPoolSize
	}
	if s.QueryTimeoutSecs < 1 {
		s.QueryTimeoutSecs = DefaultQueryTimeoutSecs
	}
	if s.Dialect != "" {
		if _, ok := metadata.ParseDialect(s.Dialect); !ok {
			s.Dialect = ""
		}
	}
}

// DialectOverride returns the configured dialect, or "" when detection
// should fall back to the document language id.
func (s Settings) DialectOverride() metadata.Dialect {
	if s.Dialect == "" {
		return ""
	}
	d, _ := metadata.ParseDialect(s.Dialect)
	return d
}
