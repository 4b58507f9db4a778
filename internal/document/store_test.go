package document

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst/csttest"
)

func TestStoreOpenGetClose(t *testing.T) {
	s := NewStore(zap.NewNop())
	u := uri.URI("file:///query.sql")

	source := "SELECT * FROM users"
	tree := csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: "users"}),
	).Build()

	s.Open(u, "mysql", source, 1, tree)

	snap, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, source, snap.Text)
	assert.Equal(t, "mysql", snap.LanguageID)
	assert.Equal(t, int32(1), snap.Revision)
	assert.Same(t, tree, snap.Tree)

	assert.True(t, s.Close(u))
	_, ok = s.Get(u)
	assert.False(t, ok)
	assert.False(t, s.Close(u), "second close is a no-op")
}

func TestStoreUpdateCommitsNewRevision(t *testing.T) {
	s := NewStore(zap.NewNop())
	u := uri.URI("file:///query.sql")
	s.Open(u, "postgresql", "SELECT 1", 1, nil)

	snap, err := s.Update(u, func(prev Snapshot) (Snapshot, error) {
		require.Equal(t, "SELECT 1", prev.Text)
		prev.Text = "SELECT 2"
		prev.Revision = 2
		return prev, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", snap.Text)
	assert.Equal(t, int32(2), snap.Revision)
	assert.Equal(t, "postgresql", snap.LanguageID)

	committed, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, snap, committed)
}

func TestStoreUpdateErrorLeavesSnapshotUntouched(t *testing.T) {
	s := NewStore(zap.NewNop())
	u := uri.URI("file:///query.sql")
	s.Open(u, "mysql", "SELECT 1", 1, nil)

	_, err := s.Update(u, func(prev Snapshot) (Snapshot, error) {
		return Snapshot{}, fmt.Errorf("parse blew up")
	})
	require.Error(t, err)

	snap, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", snap.Text)
	assert.Equal(t, int32(1), snap.Revision)
}

func TestStoreUpdateUnknownURI(t *testing.T) {
	s := NewStore(zap.NewNop())

	_, err := s.Update(uri.URI("file:///ghost.sql"), func(prev Snapshot) (Snapshot, error) {
		return prev, nil
	})

	var notOpen *NotOpenError
	require.ErrorAs(t, err, &notOpen)
}

func TestStoreUpdatesToOneURIAreSerialized(t *testing.T) {
	s := NewStore(zap.NewNop())
	u := uri.URI("file:///query.sql")
	s.Open(u, "mysql", "", 0, nil)

	const writers = 8
	const rounds = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, err := s.Update(u, func(prev Snapshot) (Snapshot, error) {
					prev.Text += "x"
					prev.Revision++
					return prev, nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	snap, ok := s.Get(u)
	require.True(t, ok)
	assert.Len(t, snap.Text, writers*rounds, "every update must be applied exactly once")
	assert.Equal(t, int32(writers*rounds), snap.Revision)
}

func TestStoreLen(t *testing.T) {
	s := NewStore(zap.NewNop())
	assert.Equal(t, 0, s.Len())

	s.Open(uri.URI("file:///a.sql"), "mysql", "", 1, nil)
	s.Open(uri.URI("file:///b.sql"), "mysql", "", 1, nil)
	assert.Equal(t, 2, s.Len())

	s.Close(uri.URI("file:///a.sql"))
	assert.Equal(t, 1, s.Len())
}
