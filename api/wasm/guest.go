//go:build wasm

package wasm

import "unsafe"

// held pins buffers handed to the host so the garbage collector keeps
// them alive until the host releases them through deallocate.
var held = map[uint32][]byte{}

// Allocate reserves a guest buffer for the host to write into. Wire it
// to the allocate export.
func Allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	held[ptr] = buf
	return ptr
}

// Deallocate releases a buffer previously returned by Allocate. Wire
// it to the deallocate export.
func Deallocate(ptr, _ uint32) {
	delete(held, ptr)
}

// Input reads the host-written payload at ptr.
func Input(ptr, length uint32) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

// Output copies data into a pinned buffer and returns the packed
// pointer/length for a parse or metadata result.
func Output(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	ptr := Allocate(uint32(len(data)))
	copy(held[ptr], data)
	return PackResult(ptr, uint32(len(data)))
}
