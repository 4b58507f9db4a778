package cst

// MaxWalkDepth bounds all recursive tree walks. Pathological trees
// (deeply nested ERROR recovery) stop at this depth instead of blowing
// the stack.
const MaxWalkDepth = 100

// NodeAtPosition returns the smallest named node whose byte range
// contains the position, or nil on an empty tree. When the position
// sits on whitespace between tokens the node ending at the position
// (the token to the left) wins over the one starting there.
func NodeAtPosition(tree *Tree, text string, pos Position) *Node {
	root := tree.Root()
	if root == nil {
		return nil
	}
	offset := PositionToByte(text, pos)
	return namedDescendantForByte(root, offset, 0)
}

// NamedDescendantForByte returns the smallest named node containing the
// byte offset.
func NamedDescendantForByte(root *Node, offset int) *Node {
	if root == nil {
		return nil
	}
	return namedDescendantForByte(root, offset, 0)
}

func namedDescendantForByte(n *Node, offset int, depth int) *Node {
	if depth >= MaxWalkDepth {
		return n
	}

	// At a token boundary the child ending at the offset (the token to
	// the left) wins over the one starting there.
	var best *Node
	for _, c := range n.children {
		if !c.ContainsByte(offset) {
			continue
		}
		best = c
		if c.end == offset && c.end > c.start {
			break
		}
	}
	if best == nil {
		if n.named {
			return n
		}
		return nil
	}

	inner := namedDescendantForByte(best, offset, depth+1)
	if inner != nil {
		return inner
	}
	if n.named {
		return n
	}
	return nil
}

// AncestorWhere walks parents (starting from the node itself) until
// pred succeeds, returning nil when the root is passed without a match.
func AncestorWhere(n *Node, pred func(*Node) bool) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

// AncestorOfKind walks parents until a node of the given kind is found.
func AncestorOfKind(n *Node, kind string) *Node {
	return AncestorWhere(n, func(c *Node) bool { return c.kind == kind })
}

// DescendantsOfKind collects all descendants (including n itself) of
// the given kind, in document order, bounded by MaxWalkDepth.
func DescendantsOfKind(n *Node, kind string) []*Node {
	var out []*Node
	collectKind(n, kind, 0, &out)
	return out
}

func collectKind(n *Node, kind string, depth int, out *[]*Node) {
	if n == nil || depth >= MaxWalkDepth {
		return
	}
	if n.kind == kind {
		*out = append(*out, n)
	}
	for _, c := range n.children {
		collectKind(c, kind, depth+1, out)
	}
}

// Walk visits every node depth-first in document order, bounded by
// MaxWalkDepth. Returning false from visit prunes the subtree.
func Walk(n *Node, visit func(*Node) bool) {
	walk(n, 0, visit)
}

func walk(n *Node, depth int, visit func(*Node) bool) {
	if n == nil || depth >= MaxWalkDepth {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		walk(c, depth+1, visit)
	}
}

// ErrorNodes collects all ERROR nodes in the tree in document order.
func ErrorNodes(root *Node) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.IsError() {
			out = append(out, n)
		}
		return true
	})
	return out
}
