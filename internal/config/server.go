package config

import (
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig is the process-level configuration read at startup.
// Client-pushed options live in Settings instead.
type ServerConfig struct {
	AddonPaths []string   `mapstructure:"addon_paths"`
	LogLevel   string     `mapstructure:"log_level"`
	Wasm       WasmConfig `mapstructure:"wasm"`
}

// WasmConfig bounds the grammar runtime.
type WasmConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug info in guest stack traces.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Maximum concurrent instances.
	MaxInstances int `mapstructure:"max_instances"`
}

// LoadServerConfig reads configuration from an optional YAML file,
// with UNIFIED_SQL_LSP_* environment variables overriding file values.
func LoadServerConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	v.SetDefault("addon_paths", []string{"./addons"})
	v.SetDefault("log_level", "info")

	v.SetDefault("wasm.memory_pages", 256) // 16MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "./build/wasm-cache")
	v.SetDefault("wasm.max_instances", 100)

	v.SetEnvPrefix("UNIFIED_SQL_LSP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
