package wasm

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// SchemaProvider serves serialized schema metadata to guest modules
// that declare the schema_introspection capability.
type SchemaProvider interface {
	// Schema returns the JSON description of the named schema; an
	// empty name means every visible schema.
	Schema(ctx context.Context, name string) ([]byte, error)
}

// HostFunctionsImpl implements host functions for Wasm modules.
type HostFunctionsImpl struct {
	schemas SchemaProvider
	logger  *zap.Logger
}

// NewHostFunctions creates a new host functions implementation.
// schemas may be nil; get_schema then answers every request empty.
func NewHostFunctions(schemas SchemaProvider, logger *zap.Logger) *HostFunctionsImpl {
	return &HostFunctionsImpl{
		schemas: schemas,
		logger:  logger.With(zap.String("component", "wasm-host")),
	}
}

// logMessage is called by Wasm modules to log messages.
// Signature: log_message(level, ptr, length)
// level: 0 = debug, 1 = info, 2 = warn, 3 = error
func (h *HostFunctionsImpl) logMessage(ctx context.Context, mod api.Module, level uint32, ptr uint32, length uint32) {
	msg, ok := mod.Memory().Read(ptr, length)
	if !ok {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	switch level {
	case 0:
		h.logger.Debug(string(msg))
	case 1:
		h.logger.Info(string(msg))
	case 2:
		h.logger.Warn(string(msg))
	case 3:
		h.logger.Error(string(msg))
	default:
		h.logger.Info(string(msg))
	}
}

// getSchema is called by Wasm modules to query schema metadata.
// Signature: get_schema(schema_ptr, schema_len) -> packed ptr/len of a
// JSON payload written into guest memory; 0 on failure or when no
// provider is configured.
func (h *HostFunctionsImpl) getSchema(ctx context.Context, mod api.Module, schemaPtr uint32, schemaLen uint32) uint64 {
	if h.schemas == nil {
		return 0
	}

	mem := NewMemory(mod)

	name := ""
	if schemaLen > 0 {
		read, err := mem.ReadBytes(schemaPtr, schemaLen)
		if err != nil {
			h.logger.Error("Failed to read schema name from Wasm memory", zap.Error(err))
			return 0
		}
		name = string(read)
	}

	payload, err := h.schemas.Schema(ctx, name)
	if err != nil {
		h.logger.Warn("Schema lookup for guest failed",
			zap.String("schema", name),
			zap.Error(err),
		)
		return 0
	}

	ptr, length, err := mem.WriteBytes(ctx, payload)
	if err != nil {
		h.logger.Error("Failed to write schema payload into Wasm memory", zap.Error(err))
		return 0
	}
	return packPtrLen(ptr, length)
}
