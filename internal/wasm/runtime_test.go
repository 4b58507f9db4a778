package wasm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestRuntime(t *testing.T, config *RuntimeConfig) *Runtime {
	t.Helper()
	runtime, err := NewRuntime(context.Background(), zaptest.NewLogger(t), config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { runtime.Close(context.Background()) })
	return runtime
}

func TestNewRuntime(t *testing.T) {
	runtime := newTestRuntime(t, nil)

	if runtime.IsClosed() {
		t.Error("Runtime should not be closed initially")
	}
}

func TestRuntimeCloseIdempotent(t *testing.T) {
	runtime := newTestRuntime(t, nil)
	ctx := context.Background()

	if err := runtime.Close(ctx); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := runtime.Close(ctx); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
	if !runtime.IsClosed() {
		t.Error("Runtime should report closed after Close()")
	}
}

func TestDefaultRuntimeConfig(t *testing.T) {
	config := DefaultRuntimeConfig()

	if config.MemoryPages != 256 {
		t.Errorf("Default memory pages = %d, want 256", config.MemoryPages)
	}
	if config.DebugEnabled {
		t.Error("Debug should be disabled by default")
	}
	if config.MaxInstances != 100 {
		t.Errorf("Default max instances = %d, want 100", config.MaxInstances)
	}
	if config.CacheDir != "" {
		t.Errorf("Default cache dir = %q, want empty", config.CacheDir)
	}
}

func TestRuntimeConfiguration(t *testing.T) {
	runtime := newTestRuntime(t, &RuntimeConfig{
		MemoryPages:  128,
		DebugEnabled: true,
		MaxInstances: 50,
	})

	if runtime.config.MemoryPages != 128 {
		t.Error("Memory pages not set correctly")
	}
}

func TestRuntimeCompilationCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wasm-cache")

	runtime := newTestRuntime(t, &RuntimeConfig{CacheDir: dir})
	if runtime.cache == nil {
		t.Fatal("Compilation cache should be configured")
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Cache directory was not created: %v", err)
	}
}

func TestRuntimeModuleCache(t *testing.T) {
	runtime := newTestRuntime(t, nil)

	module := &CompiledModule{
		Name:       "test-module",
		Source:     "test",
		SizeBytes:  1024,
		CompiledAt: time.Now().Unix(),
	}
	runtime.StoreCompiledModule(module)

	retrieved, ok := runtime.GetCompiledModule("test-module")
	if !ok {
		t.Fatal("Failed to retrieve module from cache")
	}
	if retrieved.Name != "test-module" {
		t.Errorf("Retrieved wrong module: %s", retrieved.Name)
	}

	if _, ok := runtime.GetCompiledModule("absent"); ok {
		t.Error("Unknown module name should miss the cache")
	}
}

func TestRuntimeInstanceTracking(t *testing.T) {
	runtime := newTestRuntime(t, nil)

	runtime.StoreInstance("test-instance", "test-data")

	retrieved, ok := runtime.GetInstance("test-instance")
	if !ok {
		t.Fatal("Failed to retrieve instance from tracking")
	}
	if retrieved != "test-data" {
		t.Error("Retrieved wrong instance data")
	}

	runtime.DeleteInstance("test-instance")
	if _, ok := runtime.GetInstance("test-instance"); ok {
		t.Error("Instance should have been deleted")
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{
			&CompilationError{ModuleName: "test", Err: &testError{}},
			"failed to compile Wasm module 'test': test error",
		},
		{
			&InstantiationError{ModuleName: "test", InstanceID: "inst-1", Err: &testError{}},
			"failed to instantiate module 'test' (instance: inst-1): test error",
		},
		{
			&ModuleNotFoundError{ModuleName: "test"},
			"module 'test' not found in cache",
		},
		{
			&FunctionNotFoundError{ModuleName: "test", FunctionName: "parse"},
			"function 'parse' not found in module 'test'",
		},
	}

	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error message = %s, want %s", got, tc.want)
		}
	}
}

// testError is a simple error for testing.
type testError struct{}

func (e *testError) Error() string {
	return "test error"
}
