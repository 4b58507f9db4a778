package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

func TestDecodeSettingsNilPayload(t *testing.T) {
	settings, err := DecodeSettings(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), settings)
	assert.Equal(t, DefaultPoolSize, settings.PoolSize)
	assert.Equal(t, DefaultQueryTimeoutSecs, settings.QueryTimeoutSecs)
}

func TestDecodeSettingsSectioned(t *testing.T) {
	payload := map[string]any{
		"unifiedSqlLsp": map[string]any{
			"dialect":          "postgresql",
			"connectionString": "postgres://localhost/app",
			"poolSize":         4,
			"queryTimeoutSecs": 2,
			"schemaFilter": map[string]any{
				"allow":   []string{"public", "app_*"},
				"exclude": []string{"pg_*"},
			},
		},
	}

	settings, err := DecodeSettings(payload)
	require.NoError(t, err)

	assert.Equal(t, "postgresql", settings.Dialect)
	assert.Equal(t, "postgres://localhost/app", settings.ConnectionString)
	assert.Equal(t, 4, settings.PoolSize)
	assert.Equal(t, 2, settings.QueryTimeoutSecs)
	assert.Equal(t, []string{"public", "app_*"}, settings.SchemaFilter.Allow)
	assert.Equal(t, []string{"pg_*"}, settings.SchemaFilter.Exclude)
}

func TestDecodeSettingsBareObject(t *testing.T) {
	settings, err := DecodeSettings(map[string]any{"dialect": "mysql"})
	require.NoError(t, err)

	assert.Equal(t, "mysql", settings.Dialect)
	assert.Equal(t, metadata.DialectMySQL, settings.DialectOverride())
}

func TestDecodeSettingsClampsInvalidValues(t *testing.T) {
	payload := map[string]any{
		"poolSize":         0,
		"queryTimeoutSecs": -3,
		"dialect":          "oracle",
	}

	settings, err := DecodeSettings(payload)
	require.NoError(t, err)

	assert.Equal(t, DefaultPoolSize, settings.PoolSize)
	assert.Equal(t, DefaultQueryTimeoutSecs, settings.QueryTimeoutSecs)
	assert.Empty(t, settings.Dialect, "unknown dialect overrides are dropped")
	assert.Equal(t, metadata.Dialect(""), settings.DialectOverride())
}

func TestDecodeSettingsMalformed(t *testing.T) {
	_, err := DecodeSettings(map[string]any{"poolSize": "many"})

	var decodeErr *SettingsDecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDialectOverrideAliases(t *testing.T) {
	s := Settings{Dialect: "postgres"}
	s.Normalize()

	assert.Equal(t, metadata.DialectPostgreSQL, s.DialectOverride())
}
