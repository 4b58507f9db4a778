// Package wasm is the guest-side SDK for grammar add-ons. Add-ons are
// compiled to WebAssembly (TinyGo) and must export four functions:
//
//	//go:wasmexport allocate
//	func allocate(size uint32) uint32
//
//	//go:wasmexport deallocate
//	func deallocate(ptr, size uint32)
//
//	//go:wasmexport parse
//	func parse(ptr, length uint32) uint64
//
//	//go:wasmexport metadata
//	func metadata() uint64
//
// parse receives a JSON ParseRequest and returns a packed pointer and
// length (pointer in the high 32 bits) of the serialized tree.
// metadata returns a packed JSON list of function metadata. Pointers
// and lengths are uint32 because Wasm uses a 32-bit linear memory
// model.
package wasm

// ParseRequest is the JSON payload the host passes to parse.
type ParseRequest struct {
	// Source is the full buffer text after the edit.
	Source string `json:"source"`
	// Edit describes the change since the previous parse; nil forces a
	// full parse.
	Edit *Edit `json:"edit,omitempty"`
}

// Point is a zero-based row/column position.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Edit carries the byte and point coordinates of one buffer change,
// in tree-sitter InputEdit form.
type Edit struct {
	StartByte   int   `json:"start_byte"`
	OldEndByte  int   `json:"old_end_byte"`
	NewEndByte  int   `json:"new_end_byte"`
	StartPoint  Point `json:"start_point"`
	OldEndPoint Point `json:"old_end_point"`
	NewEndPoint Point `json:"new_end_point"`
}

// Node is one serialized tree node. The root node of the parse result
// is encoded as JSON and returned to the host.
type Node struct {
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	Named     bool   `json:"named,omitempty"`
	Missing   bool   `json:"missing,omitempty"`
	Children  []Node `json:"children,omitempty"`
}

// PackResult packs a guest pointer and length into the u64 return
// value the host expects.
func PackResult(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}
