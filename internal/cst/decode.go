package cst

import (
	"encoding/json"
	"fmt"
)

// WireNode is the serialized node form produced by the grammar
// modules' `parse` export. The tree arrives as nested JSON; byte
// offsets index the parsed text.
type WireNode struct {
	Kind      string     `json:"kind"`
	Field     string     `json:"field,omitempty"`
	StartByte int        `json:"start_byte"`
	EndByte   int        `json:"end_byte"`
	Named     bool       `json:"named"`
	Missing   bool       `json:"missing,omitempty"`
	Children  []WireNode `json:"children,omitempty"`
}

// DecodeError reports a malformed serialized tree.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cst decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cst decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a serialized tree into an immutable Tree. The input is
// the raw JSON payload read back from the grammar module's memory.
func Decode(data []byte) (*Tree, error) {
	if len(data) == 0 {
		return NewTree(nil), nil
	}

	var wire WireNode
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON", Err: err}
	}

	root, err := buildNode(wire, nil, 0)
	if err != nil {
		return nil, err
	}
	return NewTree(root), nil
}

func buildNode(w WireNode, parent *Node, depth int) (*Node, error) {
	if depth > MaxWalkDepth {
		return nil, &DecodeError{Reason: fmt.Sprintf("tree deeper than %d", MaxWalkDepth)}
	}
	if w.Kind == "" {
		return nil, &DecodeError{Reason: "node with empty kind"}
	}
	if w.EndByte < w.StartByte {
		return nil, &DecodeError{Reason: fmt.Sprintf("node %q has negative span", w.Kind)}
	}

	n := &Node{
		kind:    w.Kind,
		field:   w.Field,
		start:   w.StartByte,
		end:     w.EndByte,
		named:   w.Named,
		missing: w.Missing,
		parent:  parent,
	}
	for _, wc := range w.Children {
		child, err := buildNode(wc, n, depth+1)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}
