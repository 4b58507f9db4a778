package wasm

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// ModuleLoader compiles grammar Wasm binaries and caches the result in
// the runtime under the caller's chosen name.
type ModuleLoader struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewModuleLoader creates a new module loader.
func NewModuleLoader(runtime *Runtime, logger *zap.Logger) *ModuleLoader {
	return &ModuleLoader{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-loader")),
	}
}

// LoadModuleFromMemory compiles a Wasm binary and caches it under name.
// The name is what the instance manager later resolves, so add-on
// loading keys it by manifest name. Repeat calls with the same name hit
// the cache without recompiling.
func (l *ModuleLoader) LoadModuleFromMemory(ctx context.Context, name string, data []byte) (*CompiledModule, error) {
	return l.compile(ctx, name, name, data)
}

// LoadModuleFromFile reads and compiles a Wasm file, cached under its
// path.
func (l *ModuleLoader) LoadModuleFromFile(ctx context.Context, path string) (*CompiledModule, error) {
	if cached, ok := l.runtime.GetCompiledModule(path); ok {
		return cached, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompilationError{ModuleName: path, Err: err}
	}
	return l.compile(ctx, path, path, data)
}

func (l *ModuleLoader) compile(ctx context.Context, name, source string, data []byte) (*CompiledModule, error) {
	if cached, ok := l.runtime.GetCompiledModule(name); ok {
		l.logger.Debug("Module cache hit", zap.String("module", name))
		return cached, nil
	}

	l.logger.Info("Compiling Wasm module",
		zap.String("module", name),
		zap.Int("size_bytes", len(data)),
	)

	start := time.Now()
	compiled, err := l.runtime.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, &CompilationError{ModuleName: name, Err: err}
	}

	module := &CompiledModule{
		Module:     compiled,
		Name:       name,
		Source:     source,
		SizeBytes:  int64(len(data)),
		CompiledAt: time.Now().Unix(),
	}
	l.runtime.StoreCompiledModule(module)

	l.logger.Info("Module compiled successfully",
		zap.String("module", name),
		zap.Duration("duration", time.Since(start)),
	)

	return module, nil
}
