//go:build wasm

package wasm

// Host imports available to grammar add-ons.

//go:wasmimport host log_message
func hostLogMessage(level, ptr, length uint32)

//go:wasmimport host get_schema
func hostGetSchema(ptr, length uint32) uint64

// LogLevel mirrors the host logger levels.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Log sends a message to the host logger.
func Log(level LogLevel, msg string) {
	if msg == "" {
		return
	}
	data := []byte(msg)
	ptr := Allocate(uint32(len(data)))
	copy(held[ptr], data)
	hostLogMessage(uint32(level), ptr, uint32(len(data)))
	Deallocate(ptr, uint32(len(data)))
}

// Schema asks the host for schema metadata by name. An empty name
// returns every visible table. The result is the host's JSON schema
// export; nil means no catalog is configured or the schema is unknown.
func Schema(name string) []byte {
	data := []byte(name)
	var ptr uint32
	if len(data) > 0 {
		ptr = Allocate(uint32(len(data)))
		copy(held[ptr], data)
		defer Deallocate(ptr, uint32(len(data)))
	}

	packed := hostGetSchema(ptr, uint32(len(data)))
	if packed == 0 {
		return nil
	}
	outPtr := uint32(packed >> 32)
	outLen := uint32(packed)
	out := make([]byte, outLen)
	copy(out, Input(outPtr, outLen))
	Deallocate(outPtr, outLen)
	return out
}
