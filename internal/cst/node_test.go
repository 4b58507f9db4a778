package cst

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, wire WireNode) *Tree {
	t.Helper()
	raw, err := json.Marshal(wire)
	require.NoError(t, err)
	tree, err := Decode(raw)
	require.NoError(t, err)
	return tree
}

func TestDecodeSimpleTree(t *testing.T) {
	text := "SELECT id FROM users"
	tree := mustDecode(t, WireNode{
		Kind: KindSelectStatement, StartByte: 0, EndByte: len(text), Named: true,
		Children: []WireNode{
			{Kind: KindProjection, StartByte: 7, EndByte: 9, Named: true, Children: []WireNode{
				{Kind: KindIdentifier, StartByte: 7, EndByte: 9, Named: true},
			}},
			{Kind: KindFromClause, StartByte: 10, EndByte: 20, Named: true, Children: []WireNode{
				{Kind: KindTableReference, StartByte: 15, EndByte: 20, Named: true, Children: []WireNode{
					{Kind: KindTableName, StartByte: 15, EndByte: 20, Named: true},
				}},
			}},
		},
	})

	root := tree.Root()
	require.NotNil(t, root)
	assert.Equal(t, KindSelectStatement, root.Kind())
	assert.Equal(t, 2, root.ChildCount())
	assert.False(t, tree.HasErrors())

	from := root.FirstChildOfKind(KindFromClause)
	require.NotNil(t, from)
	assert.Equal(t, "users", from.Child(0).Text(text))
	assert.Same(t, root, from.Parent())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"","start_byte":0,"end_byte":1}`))
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)

	_, err = Decode([]byte(`{"kind":"x","start_byte":5,"end_byte":1}`))
	require.ErrorAs(t, err, &decErr)

	_, err = Decode([]byte(`not json`))
	require.ErrorAs(t, err, &decErr)
}

func TestDecodeEmptyPayload(t *testing.T) {
	tree, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, tree.Root())
	assert.False(t, tree.HasErrors())
}

func TestTreeHasErrors(t *testing.T) {
	tree := mustDecode(t, WireNode{
		Kind: KindSelectStatement, StartByte: 0, EndByte: 10, Named: true,
		Children: []WireNode{
			{Kind: KindError, StartByte: 3, EndByte: 7, Named: true},
		},
	})
	assert.True(t, tree.HasErrors())
}

func TestMissingNodeCountsAsError(t *testing.T) {
	tree := mustDecode(t, WireNode{
		Kind: KindSelectStatement, StartByte: 0, EndByte: 6, Named: true,
		Children: []WireNode{
			{Kind: KindIdentifier, StartByte: 6, EndByte: 6, Named: true, Missing: true},
		},
	})
	assert.True(t, tree.HasErrors())
	assert.True(t, tree.Root().Child(0).IsMissing())
}

func TestNodeTextClamps(t *testing.T) {
	tree := mustDecode(t, WireNode{
		Kind: KindIdentifier, StartByte: 2, EndByte: 50, Named: true,
	})
	assert.Equal(t, "cdef", tree.Root().Text("abcdef"))
	assert.Equal(t, "", tree.Root().Text("a"))
}

func TestChildByField(t *testing.T) {
	tree := mustDecode(t, WireNode{
		Kind: KindTableReference, StartByte: 0, EndByte: 10, Named: true,
		Children: []WireNode{
			{Kind: KindTableName, StartByte: 0, EndByte: 5, Named: true},
			{Kind: KindAlias, Field: "alias", StartByte: 6, EndByte: 10, Named: true},
		},
	})

	alias := tree.Root().ChildByField("alias")
	require.NotNil(t, alias)
	assert.Equal(t, KindAlias, alias.Kind())
	assert.Nil(t, tree.Root().ChildByField("nope"))
}
