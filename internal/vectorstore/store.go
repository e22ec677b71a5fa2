// Package vectorstore provides indexer.VectorStore backends: Store, an
// in-process chromem-go (dense) + bleve (sparse) combination, and
// SQLiteStore, a sqlite-vec-backed persisted alternative. Both are
// generalized from the teacher's internal/mcp chromemSearcher and
// exactSearcher, which served a single fixed "cortex" collection built
// once at startup, into named, per-codebase collections that support
// incremental insert/delete over their lifetime.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/philippgille/chromem-go"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

type collectionState struct {
	mu        sync.RWMutex
	dimension int
	mode      indexer.CollectionMode
	dense     *chromem.Collection
	sparse    bleve.Index // nil unless mode == indexer.ModeHybrid
	docs      map[string]indexer.VectorDocument
}

// Store is an in-process VectorStore: dense similarity search via
// chromem-go, and for hybrid collections a sparse/lexical leg via an
// in-memory bleve index, fused through indexer.Fuse.
type Store struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collections map[string]*collectionState
}

// NewStore constructs an empty, in-process Store.
func NewStore() *Store {
	return &Store{db: chromem.NewDB(), collections: map[string]*collectionState{}}
}

var _ indexer.VectorStore = (*Store)(nil)

func (s *Store) CreateCollection(ctx context.Context, name string, dimension int, mode indexer.CollectionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dense, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: create dense collection %q: %w", name, err)
	}

	cs := &collectionState{
		dimension: dimension,
		mode:      mode,
		dense:     dense,
		docs:      map[string]indexer.VectorDocument{},
	}
	if mode == indexer.ModeHybrid {
		idx, err := newSparseIndex()
		if err != nil {
			return fmt.Errorf("vectorstore: create sparse index %q: %w", name, err)
		}
		cs.sparse = idx
	}
	s.collections[name] = cs
	return nil
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.collections[name]; ok && cs.sparse != nil {
		cs.sparse.Close()
	}
	delete(s.collections, name)
	return nil
}

func (s *Store) HasCollection(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}

func (s *Store) collection(name string) (*collectionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("vectorstore: unknown collection %q", name)
	}
	return cs, nil
}

func (s *Store) Insert(ctx context.Context, name string, docs []indexer.VectorDocument) error {
	cs, err := s.collection(name)
	if err != nil {
		return err
	}
	return s.insert(ctx, cs, docs, false)
}

func (s *Store) InsertHybrid(ctx context.Context, name string, docs []indexer.VectorDocument) error {
	cs, err := s.collection(name)
	if err != nil {
		return err
	}
	return s.insert(ctx, cs, docs, true)
}

func (s *Store) insert(ctx context.Context, cs *collectionState, docs []indexer.VectorDocument, hybrid bool) error {
	if hybrid && cs.sparse == nil {
		return fmt.Errorf("vectorstore: collection is not a hybrid collection")
	}
	if err := insertDense(ctx, cs.dense, docs); err != nil {
		return err
	}

	cs.mu.Lock()
	for _, d := range docs {
		cs.docs[d.ID] = d
	}
	cs.mu.Unlock()

	if hybrid {
		if err := insertSparse(ctx, cs.sparse, docs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, queryVector []float32, opts indexer.SearchOptions) ([]indexer.SearchHit, error) {
	cs, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	return searchDense(ctx, cs.dense, queryVector, opts)
}

func (s *Store) HybridSearch(ctx context.Context, name string, legs []indexer.SearchLeg, opts indexer.HybridOptions) ([]indexer.SearchHit, error) {
	cs, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	fetch := opts.TopK
	if fetch <= 0 {
		fetch = 50
	}
	fetch *= denseOverfetchMultiplier

	legHits := make([]indexer.LegHits, 0, len(legs))
	for _, leg := range legs {
		var hits []indexer.SearchHit
		var err error
		switch {
		case leg.IsSparse:
			if cs.sparse == nil {
				continue
			}
			hits, err = searchSparse(cs.sparse, cs.lookup, leg.Text, fetch, opts.Filter)
		default:
			hits, err = searchDense(ctx, cs.dense, leg.Vector, indexer.SearchOptions{TopK: fetch, Filter: opts.Filter})
		}
		if err != nil {
			return nil, fmt.Errorf("vectorstore: leg %q: %w", leg.Name, err)
		}
		legHits = append(legHits, indexer.LegHits{Name: leg.Name, Weight: opts.Weights[leg.Name], Hits: hits})
	}

	return indexer.Fuse(legHits, opts.Strategy, opts.RRFK, opts.TopK), nil
}

func (cs *collectionState) lookup(id string) (indexer.VectorDocument, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	d, ok := cs.docs[id]
	return d, ok
}

func (s *Store) Query(ctx context.Context, name string, filter indexer.Filter, outputFields []string, limit int) ([]indexer.VectorDocument, error) {
	cs, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]indexer.VectorDocument, 0, len(cs.docs))
	for _, d := range cs.docs {
		if !matchesFilter(d, filter) {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string, ids []string) error {
	cs, err := s.collection(name)
	if err != nil {
		return err
	}

	if err := cs.dense.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("vectorstore: delete dense documents: %w", err)
	}
	if cs.sparse != nil {
		if err := deleteSparse(cs.sparse, ids); err != nil {
			return err
		}
	}

	cs.mu.Lock()
	for _, id := range ids {
		delete(cs.docs, id)
	}
	cs.mu.Unlock()
	return nil
}

func (s *Store) ExtensionFilter(extensions []string) indexer.Filter {
	return indexer.NewExtensionFilter(extensions)
}

func (s *Store) PathFilter(relativePath string) indexer.Filter {
	return indexer.NewPathFilter(relativePath)
}
