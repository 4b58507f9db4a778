// Package csttest builds syntax trees by hand for unit tests, so the
// analysis packages can be exercised without a grammar module.
package csttest

import (
	"encoding/json"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// NodeBuilder assembles one node of a test tree.
type NodeBuilder struct {
	wire cst.WireNode
}

// NewNode starts a named node of the given kind spanning [start, end).
func NewNode(kind string, start, end int) *NodeBuilder {
	return &NodeBuilder{wire: cst.WireNode{
		Kind:      kind,
		StartByte: start,
		EndByte:   end,
		Named:     true,
	}}
}

// Token starts an anonymous token node (keywords, punctuation).
func Token(kind string, start, end int) *NodeBuilder {
	return &NodeBuilder{wire: cst.WireNode{
		Kind:      kind,
		StartByte: start,
		EndByte:   end,
	}}
}

// Error starts an ERROR node spanning [start, end).
func Error(start, end int) *NodeBuilder {
	return NewNode(cst.KindError, start, end)
}

// Missing marks the node as an expected-but-absent zero-width token.
func (b *NodeBuilder) Missing() *NodeBuilder {
	b.wire.Missing = true
	b.wire.EndByte = b.wire.StartByte
	return b
}

// Field sets the field label the node carries in its parent.
func (b *NodeBuilder) Field(name string) *NodeBuilder {
	b.wire.Field = name
	return b
}

// Add appends child nodes in document order.
func (b *NodeBuilder) Add(children ...*NodeBuilder) *NodeBuilder {
	for _, c := range children {
		b.wire.Children = append(b.wire.Children, c.wire)
	}
	return b
}

// Build produces the immutable tree rooted at this node.
func (b *NodeBuilder) Build() *cst.Tree {
	raw, err := json.Marshal(b.wire)
	if err == nil {
		var tree *cst.Tree
		tree, err = cst.Decode(raw)
		if err == nil {
			return tree
		}
	}
	// Builder trees are authored by tests; malformed input is a test bug.
	panic(err)
}
