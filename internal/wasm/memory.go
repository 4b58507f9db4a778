package wasm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Memory wraps a guest module's linear memory together with its
// exported allocator. Guest modules export `allocate(size) -> ptr` and
// `deallocate(ptr, size)`; every host write goes through them so the
// guest's own allocator stays consistent.
type Memory struct {
	mem   api.Memory
	alloc api.Function
	free  api.Function
}

// NewMemory creates a memory helper for a module instance.
func NewMemory(module api.Module) *Memory {
	return &Memory{
		mem:   module.Memory(),
		alloc: module.ExportedFunction("allocate"),
		free:  module.ExportedFunction("deallocate"),
	}
}

// ReadBytes reads raw bytes from guest memory. The returned slice is a
// copy; guest memory may move on the next allocation.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, error) {
	buf, ok := m.mem.Read(ptr, length)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Length: length}
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// ReadString reads a null-terminated string from guest memory, capped
// at maxLen bytes.
func (m *Memory) ReadString(ptr uint32, maxLen uint32) (string, error) {
	buf, ok := m.mem.Read(ptr, maxLen)
	if !ok {
		return "", &MemoryAccessError{Operation: "read", Address: ptr, Length: maxLen}
	}
	end := len(buf)
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}
	return string(buf[:end]), nil
}

// WriteBytes allocates guest memory and copies data into it. The
// caller owns the region and must release it with Free.
func (m *Memory) WriteBytes(ctx context.Context, data []byte) (uint32, uint32, error) {
	if m.alloc == nil {
		return 0, 0, &AllocatorMissingError{Export: "allocate"}
	}
	length := uint32(len(data))
	results, err := m.alloc.Call(ctx, uint64(length))
	if err != nil {
		return 0, 0, &MemoryAccessError{Operation: "allocate", Length: length, Err: err}
	}
	if len(results) == 0 {
		return 0, 0, &MemoryAccessError{Operation: "allocate", Length: length,
			Err: fmt.Errorf("allocate returned no result")}
	}
	ptr := uint32(results[0])
	if !m.mem.Write(ptr, data) {
		return 0, 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: length}
	}
	return ptr, length, nil
}

// WriteString allocates guest memory and copies s into it.
func (m *Memory) WriteString(ctx context.Context, s string) (uint32, uint32, error) {
	return m.WriteBytes(ctx, []byte(s))
}

// Free releases a region previously handed out by WriteBytes.
func (m *Memory) Free(ctx context.Context, ptr, length uint32) error {
	if m.free == nil {
		return &AllocatorMissingError{Export: "deallocate"}
	}
	if _, err := m.free.Call(ctx, uint64(ptr), uint64(length)); err != nil {
		return &MemoryAccessError{Operation: "deallocate", Address: ptr, Length: length, Err: err}
	}
	return nil
}
