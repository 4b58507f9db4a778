// Package document owns the open-buffer state: one consistent (text,
// tree, revision) triple per URI. Mutations to a buffer are serialized
// per URI; buffers mutate independently of each other.
package document

import (
	"sync"

	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// Snapshot is an immutable view of one committed buffer revision.
type Snapshot struct {
	URI        uri.URI
	LanguageID string
	Text       string
	Tree       *cst.Tree
	Revision   int32
}

// Store is the concurrent buffer map. The outer lock only guards the
// map; each buffer carries its own mutex, so edits to different URIs
// proceed in parallel while edits to one URI are linearized.
type Store struct {
	logger *zap.Logger

	mu   sync.Mutex
	docs map[uri.URI]*document
}

type document struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewStore creates an empty document store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logger.With(zap.String("component", "document-store")),
		docs:   make(map[uri.URI]*document),
	}
}

// Open registers a buffer and commits its first revision. Reopening a
// URI replaces the previous buffer.
func (s *Store) Open(u uri.URI, languageID, text string, revision int32, tree *cst.Tree) Snapshot {
	snap := Snapshot{
		URI:        u,
		LanguageID: languageID,
		Text:       text,
		Tree:       tree,
		Revision:   revision,
	}

	s.mu.Lock()
	s.docs[u] = &document{snap: snap}
	s.mu.Unlock()

	s.logger.Debug("Buffer opened",
		zap.String("uri", string(u)),
		zap.String("language_id", languageID),
		zap.Int32("revision", revision),
	)
	return snap
}

// Update applies fn to the current snapshot under the buffer's lock
// and commits its result. fn receives the previous triple so the
// caller can reparse incrementally; it must not block on I/O.
func (s *Store) Update(u uri.URI, fn func(prev Snapshot) (Snapshot, error)) (Snapshot, error) {
	s.mu.Lock()
	doc, ok := s.docs[u]
	s.mu.Unlock()
	if !ok {
		return Snapshot{}, &NotOpenError{URI: u}
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	next, err := fn(doc.snap)
	if err != nil {
		return Snapshot{}, err
	}
	next.URI = doc.snap.URI
	if next.LanguageID == "" {
		next.LanguageID = doc.snap.LanguageID
	}
	doc.snap = next
	return next, nil
}

// Get returns the latest committed snapshot for the URI.
func (s *Store) Get(u uri.URI) (Snapshot, bool) {
	s.mu.Lock()
	doc, ok := s.docs[u]
	s.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.snap, true
}

// Close drops the buffer. Closing an unknown URI is a no-op.
func (s *Store) Close(u uri.URI) bool {
	s.mu.Lock()
	_, ok := s.docs[u]
	delete(s.docs, u)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("Buffer closed", zap.String("uri", string(u)))
	}
	return ok
}

// Len returns the number of open buffers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
