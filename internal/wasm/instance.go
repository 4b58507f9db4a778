package wasm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Guest functions the grammar ABI expects.
//
//	allocate(size) -> ptr
//	deallocate(ptr, size)
//	parse(ptr, len) -> packed ptr/len of the serialized tree
//	metadata() -> packed ptr/len of a FunctionMetadata JSON list
var guestExports = []string{"allocate", "deallocate", "parse", "metadata"}

// InstanceManager creates and manages module instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctionsImpl

	// The host module is registered once per runtime; every guest
	// instance imports from it.
	hostOnce sync.Once
	hostErr  error
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctionsImpl, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string
}

// Instance represents an instantiated grammar module.
type Instance struct {
	// wazero module instance.
	module api.Module

	// Instance metadata.
	ID        string
	Name      string
	CreatedAt int64

	// Exported functions (cached for performance).
	exports map[string]api.Function
}

// Instantiate creates a new instance from a compiled module.
// Host functions are exported to the Wasm module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// Register the host module with exported functions.
	m.hostOnce.Do(func() {
		hostBuilder := m.runtime.runtime.NewHostModuleBuilder("host")
		m.exportHostFunctions(hostBuilder)
		_, m.hostErr = hostBuilder.Instantiate(ctx)
	})
	if m.hostErr != nil {
		return nil, fmt.Errorf("failed to instantiate host module: %w", m.hostErr)
	}

	// Instantiate the guest module in its sandbox.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions()

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	exports := cacheExportedFunctions(module)

	instance := &Instance{
		module:    module,
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		exports:   exports,
	}

	m.runtime.StoreInstance(instanceID, module)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(exports)),
	)

	return instance, nil
}

// Close closes the instance and releases resources.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

// Call invokes an exported guest function with an optional byte
// payload. The payload is copied into guest memory through the guest
// allocator; the result is read back from the packed ptr/len return
// value and both regions are released before returning.
func (i *Instance) Call(ctx context.Context, name string, payload []byte) ([]byte, error) {
	fn, ok := i.exports[name]
	if !ok {
		return nil, &FunctionNotFoundError{ModuleName: i.Name, FunctionName: name}
	}

	mem := NewMemory(i.module)

	var args []uint64
	if len(payload) > 0 {
		ptr, length, err := mem.WriteBytes(ctx, payload)
		if err != nil {
			return nil, err
		}
		defer mem.Free(ctx, ptr, length)
		args = []uint64{uint64(ptr), uint64(length)}
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, &HostFunctionError{FunctionName: name, Err: err}
	}
	if len(results) == 0 {
		return nil, nil
	}

	outPtr, outLen := unpackPtrLen(results[0])
	if outLen == 0 {
		return nil, nil
	}
	out, err := mem.ReadBytes(outPtr, outLen)
	if err != nil {
		return nil, err
	}
	if freeErr := mem.Free(ctx, outPtr, outLen); freeErr != nil {
		return nil, freeErr
	}
	return out, nil
}

// Parse runs the guest parse export over the payload and returns the
// serialized tree bytes.
func (i *Instance) Parse(ctx context.Context, payload []byte) ([]byte, error) {
	return i.Call(ctx, "parse", payload)
}

// Metadata runs the guest metadata export and returns its JSON bytes.
func (i *Instance) Metadata(ctx context.Context) ([]byte, error) {
	return i.Call(ctx, "metadata", nil)
}

// packPtrLen packs a guest pointer and length into one u64, pointer in
// the high half. unpackPtrLen is its inverse.
func packPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

func unpackPtrLen(v uint64) (uint32, uint32) {
	return uint32(v >> 32), uint32(v)
}

// cacheExportedFunctions caches references to the guest ABI exports.
func cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)
	for _, name := range guestExports {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}
	return exports
}

// exportHostFunctions registers Go functions for import by Wasm modules.
func (m *InstanceManager) exportHostFunctions(builder wazero.HostModuleBuilder) {
	impl := m.hostFuncs

	builder.NewFunctionBuilder().
		WithFunc(impl.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export("log_message")

	builder.NewFunctionBuilder().
		WithFunc(impl.getSchema).
		WithParameterNames("schema_ptr", "schema_len").
		Export("get_schema")
}

func generateInstanceID() string {
	return fmt.Sprintf("inst-%d", time.Now().UnixNano())
}
