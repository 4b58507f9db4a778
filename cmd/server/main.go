// Command server runs the SQL language server over stdio, TCP or
// websocket. Grammars load from wasm add-ons; schema metadata comes
// from a live database connection pushed through client settings, or
// from an empty static catalog until one is configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/woxQAQ/unified-sql-lsp/internal/addon"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog/mysql"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog/postgres"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog/static"
	"github.com/woxQAQ/unified-sql-lsp/internal/config"
	"github.com/woxQAQ/unified-sql-lsp/internal/grammar"
	"github.com/woxQAQ/unified-sql-lsp/internal/lsp"
	"github.com/woxQAQ/unified-sql-lsp/internal/parser"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); defaults to the configured level")
	port := flag.Int("port", 0, "TCP port for LSP connections (0 for stdio)")
	wsListen := flag.String("ws-listen", "", "Websocket listen address (e.g. :8080)")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := *logLevel
	if level == "" {
		level = cfg.LogLevel
	}

	// Stdout carries the protocol on the stdio transport; all logging
	// goes to stderr.
	logger := buildLogger(level)
	defer logger.Sync()

	logger.Info("Starting unified-sql-lsp",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runtime, err := wasm.NewRuntime(ctx, logger, &wasm.RuntimeConfig{
		MemoryPages:  cfg.Wasm.MemoryPages,
		DebugEnabled: cfg.Wasm.Debug,
		CacheDir:     cfg.Wasm.CacheDir,
		MaxInstances: cfg.Wasm.MaxInstances,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Wasm runtime", zap.Error(err))
	}

	// The session starts on an empty static catalog; a connection
	// string pushed through didChangeConfiguration switches to a live
	// one. Grammar guests introspect schemas through the exporter.
	cat := static.New()
	hostFuncs := wasm.NewHostFunctions(catalog.NewExporter(cat), logger)

	manager := addon.NewManager(cfg, runtime, hostFuncs, logger)
	if err := manager.LoadAll(ctx); err != nil {
		logger.Fatal("Failed to load add-ons", zap.Error(err))
	}
	defer manager.Shutdown(context.Background())

	binding := grammar.NewBinding(manager, logger)
	reg := registry.NewRegistry()
	mergeAddonFunctions(ctx, binding, reg, logger)

	opts := lsp.Options{
		Logger:         logger,
		Parser:         parser.New(binding, logger),
		Registry:       reg,
		Catalog:        cat,
		CatalogFactory: catalogFactory(logger),
		Version:        version,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	switch {
	case *wsListen != "":
		err = lsp.ServeWebSocket(ctx, *wsListen, opts)
	case *port > 0:
		err = lsp.ServeTCP(ctx, fmt.Sprintf(":%d", *port), opts)
	default:
		err = lsp.ServeStdio(ctx, opts)
	}
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}

func buildLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// mergeAddonFunctions pulls function metadata out of each loaded
// grammar and merges it into the registry. A dialect without a loaded
// grammar is skipped; its features degrade at request time instead.
func mergeAddonFunctions(ctx context.Context, binding *grammar.Binding, reg *registry.Registry, logger *zap.Logger) {
	for _, dialect := range []metadata.Dialect{metadata.DialectMySQL, metadata.DialectPostgreSQL} {
		funcs, err := binding.Functions(ctx, dialect)
		if err != nil {
			logger.Warn("No function metadata from grammar",
				zap.String("dialect", dialect.String()), zap.Error(err))
			continue
		}
		if len(funcs) == 0 {
			continue
		}
		added := reg.Merge(dialect, funcs)
		logger.Info("Add-on functions merged",
			zap.String("dialect", dialect.String()),
			zap.Int("added", added),
		)
	}
}

// catalogFactory builds the per-settings catalog: empty static without
// a connection string, otherwise a live postgres or mysql catalog.
func catalogFactory(logger *zap.Logger) lsp.CatalogFactory {
	return func(ctx context.Context, settings config.Settings) (catalog.Catalog, error) {
		if settings.ConnectionString == "" {
			return static.New(), nil
		}

		filter := catalog.SchemaFilter{
			Allow:   settings.SchemaFilter.Allow,
			Exclude: settings.SchemaFilter.Exclude,
		}
		timeout := time.Duration(settings.QueryTimeoutSecs) * time.Second

		if isPostgres(settings) {
			return postgres.New(ctx, postgres.Options{
				ConnString:   settings.ConnectionString,
				PoolSize:     settings.PoolSize,
				QueryTimeout: timeout,
				SchemaFilter: filter,
			}, logger)
		}
		return mysql.New(ctx, mysql.Options{
			DSN:          settings.ConnectionString,
			PoolSize:     settings.PoolSize,
			QueryTimeout: timeout,
			SchemaFilter: filter,
		}, logger)
	}
}

func isPostgres(settings config.Settings) bool {
	if d := settings.DialectOverride(); d != "" {
		return d.Family() == metadata.DialectPostgreSQL
	}
	cs := settings.ConnectionString
	return strings.HasPrefix(cs, "postgres://") || strings.HasPrefix(cs, "postgresql://")
}
