// Package cst defines the concrete syntax tree produced by the dialect
// grammar modules, plus position math and tree traversal used by every
// analysis component.
//
// Trees are immutable once built. An incremental re-parse produces a
// whole new tree; the document store swaps trees atomically so readers
// always observe a consistent (text, tree, revision) triple.
package cst

// Node kinds shared by the MySQL and PostgreSQL grammars.
const (
	KindSelectStatement = "select_statement"
	KindProjection      = "projection"
	KindFromClause      = "from_clause"
	KindWhereClause     = "where_clause"
	KindJoinClause      = "join_clause"
	KindGroupByClause   = "group_by_clause"
	KindHavingClause    = "having_clause"
	KindOrderByClause   = "order_by_clause"
	KindLimitClause     = "limit_clause"
	KindUsingClause     = "using_clause"
	KindTableReference  = "table_reference"
	KindTableName       = "table_name"
	KindColumnName      = "column_name"
	KindIdentifier      = "identifier"
	KindAlias           = "alias"
	KindSubquery        = "subquery"
	KindCTE             = "cte"
	KindWithClause      = "with_clause"
	KindFunctionCall    = "function_call"
	KindError           = "ERROR"
)

// Node is one node of a concrete syntax tree. Byte offsets index into
// the source text the tree was parsed from; line/column positions are
// derived from the text on demand (see PositionToByte/ByteToPosition).
type Node struct {
	kind     string
	field    string
	start    int
	end      int
	named    bool
	missing  bool
	parent   *Node
	children []*Node
}

// Kind returns the grammar rule name, or "ERROR" for error nodes.
func (n *Node) Kind() string { return n.kind }

// Field returns the field label this node carries in its parent, or "".
func (n *Node) Field() string { return n.field }

// StartByte returns the byte offset of the node's first byte.
func (n *Node) StartByte() int { return n.start }

// EndByte returns the byte offset one past the node's last byte.
func (n *Node) EndByte() int { return n.end }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// IsNamed reports whether the node is a named grammar rule rather than
// an anonymous token.
func (n *Node) IsNamed() bool { return n.named }

// IsError reports whether this is an ERROR node.
func (n *Node) IsError() bool { return n.kind == KindError }

// IsMissing reports whether the node marks an expected-but-absent
// token. Missing nodes are zero width.
func (n *Node) IsMissing() bool { return n.missing }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns the child list. Callers must not mutate it.
func (n *Node) Children() []*Node { return n.children }

// ChildByField returns the first child carrying the given field label.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.children {
		if c.field == field {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the children whose kind equals kind.
func (n *Node) ChildrenNamed(kind string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child of the given kind.
func (n *Node) FirstChildOfKind(kind string) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// Text extracts the node's source text. Out-of-range offsets clamp to
// the text bounds so a stale node never panics.
func (n *Node) Text(source string) string {
	start, end := n.start, n.end
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start >= end {
		return ""
	}
	return source[start:end]
}

// ContainsByte reports whether the byte offset falls inside the node.
// The end offset is exclusive, except that a cursor sitting exactly at
// the end of the node still counts (completion fires there).
func (n *Node) ContainsByte(offset int) bool {
	return offset >= n.start && offset <= n.end
}

// Tree is a parsed syntax tree together with error bookkeeping.
type Tree struct {
	root      *Node
	hasErrors bool
}

// NewTree wraps a root node. Parent links must already be set; use a
// decoder or the csttest builder to construct nodes.
func NewTree(root *Node) *Tree {
	t := &Tree{root: root}
	if root != nil {
		t.hasErrors = subtreeHasErrors(root)
	}
	return t
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil {
		return nil
	}
	return t.root
}

// HasErrors reports whether any ERROR or missing node exists in the
// tree.
func (t *Tree) HasErrors() bool {
	if t == nil {
		return false
	}
	return t.hasErrors
}

func subtreeHasErrors(n *Node) bool {
	if n.IsError() || n.IsMissing() {
		return true
	}
	for _, c := range n.children {
		if subtreeHasErrors(c) {
			return true
		}
	}
	return false
}
