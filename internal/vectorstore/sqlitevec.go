package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/blevesearch/bleve/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteStore is a persisted VectorStore: dense similarity search via
// sqlite-vec's vec0 virtual table, and for hybrid collections a sparse
// leg via an in-memory bleve index rebuilt from the chunks table whenever
// the collection is created or the store is reopened. Grounded on the
// teacher's internal/storage/schema.go and internal/storage/vector_index.go,
// split into one table pair per named collection instead of one fixed
// schema.
type SQLiteStore struct {
	mu          sync.RWMutex
	db          *sql.DB
	collections map[string]*sqliteCollection
}

type sqliteCollection struct {
	dimension int
	mode      indexer.CollectionMode
	sparse    bleve.Index
}

// collectionsMetaTable records one row per named collection so a fresh
// process can rediscover what CreateCollection previously built; the
// chunks_*/chunks_vec_* tables alone don't say which mode a collection
// was created with. Grounded on the teacher's cache_metadata key/value
// bootstrap table in internal/storage/schema.go.
const collectionsMetaTable = "collections_meta"

// NewSQLiteStore opens (creating if absent) the sqlite database at path
// and rehydrates its in-memory collection bookkeeping (and, for hybrid
// collections, the sparse bleve index) from collectionsMetaTable and the
// persisted chunks tables.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			mode TEXT NOT NULL
		)`, collectionsMetaTable)); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create collections metadata table: %w", err)
	}

	s := &SQLiteStore{db: db, collections: map[string]*sqliteCollection{}}
	if err := s.loadCollections(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// loadCollections rebuilds s.collections from collectionsMetaTable,
// reconstructing each hybrid collection's sparse index from its chunks
// table since bleve's in-memory index isn't itself persisted.
func (s *SQLiteStore) loadCollections(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT name, dimension, mode FROM %s", collectionsMetaTable))
	if err != nil {
		return fmt.Errorf("vectorstore: load collections metadata: %w", err)
	}
	defer rows.Close()

	type row struct {
		name      string
		dimension int
		mode      indexer.CollectionMode
	}
	var loaded []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.name, &r.dimension, &r.mode); err != nil {
			return fmt.Errorf("vectorstore: scan collection metadata: %w", err)
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range loaded {
		cc := &sqliteCollection{dimension: r.dimension, mode: r.mode}
		if r.mode == indexer.ModeHybrid {
			idx, err := newSparseIndex()
			if err != nil {
				return fmt.Errorf("vectorstore: rebuild sparse index for %q: %w", r.name, err)
			}
			if err := s.rebuildSparse(ctx, idx, r.name); err != nil {
				return err
			}
			cc.sparse = idx
		}
		s.collections[r.name] = cc
	}
	return nil
}

// rebuildSparse repopulates idx from every row currently in the named
// collection's chunks table.
func (s *SQLiteStore) rebuildSparse(ctx context.Context, idx bleve.Index, name string) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, content, relative_path, file_extension, language, start_line, end_line FROM %s",
		chunksTable(name)))
	if err != nil {
		return fmt.Errorf("vectorstore: read chunks for sparse rebuild: %w", err)
	}
	defer rows.Close()

	var docs []indexer.VectorDocument
	for rows.Next() {
		var d indexer.VectorDocument
		if err := rows.Scan(&d.ID, &d.Content, &d.RelativePath, &d.FileExtension, &d.Language, &d.StartLine, &d.EndLine); err != nil {
			return fmt.Errorf("vectorstore: scan chunk for sparse rebuild: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return insertSparse(ctx, idx, docs)
}

var _ indexer.VectorStore = (*SQLiteStore)(nil)

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func chunksTable(name string) string { return "chunks_" + sanitizeIdent(name) }
func vecTable(name string) string    { return "chunks_vec_" + sanitizeIdent(name) }

// sanitizeIdent keeps only characters safe to interpolate into a SQLite
// identifier; collection names are operator-supplied codebase names, not
// untrusted query input, but table names can't be bound parameters.
func sanitizeIdent(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b = append(b, c)
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dimension int, mode indexer.CollectionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			relative_path TEXT NOT NULL,
			file_extension TEXT NOT NULL,
			language TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		)`, chunksTable(name))
	if _, err := s.db.ExecContext(ctx, createChunks); err != nil {
		return fmt.Errorf("vectorstore: create chunks table: %w", err)
	}

	createVec := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			id TEXT PRIMARY KEY,
			embedding float[%d]
		)`, vecTable(name), dimension)
	if _, err := s.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("vectorstore: create vector index: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, dimension, mode) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET dimension=excluded.dimension, mode=excluded.mode
	`, collectionsMetaTable), name, dimension, string(mode)); err != nil {
		return fmt.Errorf("vectorstore: record collection metadata: %w", err)
	}

	cc := &sqliteCollection{dimension: dimension, mode: mode}
	if mode == indexer.ModeHybrid {
		idx, err := newSparseIndex()
		if err != nil {
			return fmt.Errorf("vectorstore: create sparse index: %w", err)
		}
		cc.sparse = idx
	}
	s.collections[name] = cc
	return nil
}

func (s *SQLiteStore) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cc, ok := s.collections[name]; ok && cc.sparse != nil {
		cc.sparse.Close()
	}
	delete(s.collections, name)

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", vecTable(name))); err != nil {
		return fmt.Errorf("vectorstore: drop vector index: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", chunksTable(name))); err != nil {
		return fmt.Errorf("vectorstore: drop chunks table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = ?", collectionsMetaTable), name); err != nil {
		return fmt.Errorf("vectorstore: delete collection metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasCollection(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}

func (s *SQLiteStore) collection(name string) (*sqliteCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cc, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("vectorstore: unknown collection %q", name)
	}
	return cc, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, name string, docs []indexer.VectorDocument) error {
	return s.insert(ctx, name, docs, false)
}

func (s *SQLiteStore) InsertHybrid(ctx context.Context, name string, docs []indexer.VectorDocument) error {
	return s.insert(ctx, name, docs, true)
}

// insert upserts docs into the chunks table and the vec0 index in one
// transaction, matching the teacher's UpdateVectorIndex delete-then-insert
// upsert pattern (vec0 virtual tables don't support INSERT OR REPLACE).
func (s *SQLiteStore) insert(ctx context.Context, name string, docs []indexer.VectorDocument, hybrid bool) error {
	cc, err := s.collection(name)
	if err != nil {
		return err
	}
	if hybrid && cc.sparse == nil {
		return fmt.Errorf("vectorstore: collection %q is not a hybrid collection", name)
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, content, relative_path, file_extension, language, start_line, end_line, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, relative_path=excluded.relative_path,
			file_extension=excluded.file_extension, language=excluded.language,
			start_line=excluded.start_line, end_line=excluded.end_line,
			metadata=excluded.metadata
	`, chunksTable(name))
	chunkStmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("vectorstore: prepare chunk upsert: %w", err)
	}
	defer chunkStmt.Close()

	deleteStmt, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", vecTable(name)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare vector delete: %w", err)
	}
	defer deleteStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (id, embedding) VALUES (?, ?)", vecTable(name)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare vector insert: %w", err)
	}
	defer insertStmt.Close()

	for _, d := range docs {
		metaJSON, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("vectorstore: encode metadata %s: %w", d.ID, err)
		}
		if _, err := chunkStmt.ExecContext(ctx, d.ID, d.Content, d.RelativePath, d.FileExtension, d.Language, d.StartLine, d.EndLine, string(metaJSON)); err != nil {
			return fmt.Errorf("vectorstore: upsert chunk %s: %w", d.ID, err)
		}
		if _, err := deleteStmt.ExecContext(ctx, d.ID); err != nil {
			return fmt.Errorf("vectorstore: delete stale vector %s: %w", d.ID, err)
		}
		embedding, err := sqlite_vec.SerializeFloat32(d.Vector)
		if err != nil {
			return fmt.Errorf("vectorstore: serialize vector %s: %w", d.ID, err)
		}
		if _, err := insertStmt.ExecContext(ctx, d.ID, embedding); err != nil {
			return fmt.Errorf("vectorstore: insert vector %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: commit insert: %w", err)
	}

	if hybrid {
		return insertSparse(ctx, cc.sparse, docs)
	}
	return nil
}

func (s *SQLiteStore) rowByID(ctx context.Context, name, id string) (indexer.VectorDocument, bool) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT id, content, relative_path, file_extension, language, start_line, end_line, metadata FROM %s WHERE id = ?",
		chunksTable(name)), id)

	var d indexer.VectorDocument
	var metaJSON string
	if err := row.Scan(&d.ID, &d.Content, &d.RelativePath, &d.FileExtension, &d.Language, &d.StartLine, &d.EndLine, &metaJSON); err != nil {
		return indexer.VectorDocument{}, false
	}
	_ = json.Unmarshal([]byte(metaJSON), &d.Metadata)
	return d, true
}

func (s *SQLiteStore) Search(ctx context.Context, name string, queryVector []float32, opts indexer.SearchOptions) ([]indexer.SearchHit, error) {
	if _, err := s.collection(name); err != nil {
		return nil, err
	}
	return s.searchVec(ctx, name, queryVector, opts)
}

// searchVec runs a KNN cosine-distance query via vec_distance_cosine,
// grounded on the teacher's QueryVectorSimilarity, then joins back to the
// chunks table for full document content.
func (s *SQLiteStore) searchVec(ctx context.Context, name string, queryVector []float32, opts indexer.SearchOptions) ([]indexer.SearchHit, error) {
	limit := opts.TopK
	if limit <= 0 {
		limit = 10
	}
	fetch := limit * denseOverfetchMultiplier

	embedding, err := sqlite_vec.SerializeFloat32(queryVector)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: serialize query vector: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT v.id, v.distance, c.content, c.relative_path, c.file_extension, c.language, c.start_line, c.end_line, c.metadata
		FROM (
			SELECT id, vec_distance_cosine(embedding, ?) AS distance
			FROM %s
			ORDER BY distance
			LIMIT ?
		) v
		JOIN %s c ON c.id = v.id
	`, vecTable(name), chunksTable(name))

	rows, err := s.db.QueryContext(ctx, q, embedding, fetch)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: vector search: %w", err)
	}
	defer rows.Close()

	hits := make([]indexer.SearchHit, 0, limit)
	for rows.Next() {
		var d indexer.VectorDocument
		var distance float64
		var metaJSON string
		if err := rows.Scan(&d.ID, &distance, &d.Content, &d.RelativePath, &d.FileExtension, &d.Language, &d.StartLine, &d.EndLine, &metaJSON); err != nil {
			return nil, fmt.Errorf("vectorstore: scan vector result: %w", err)
		}
		_ = json.Unmarshal([]byte(metaJSON), &d.Metadata)
		if !matchesFilter(d, opts.Filter) {
			continue
		}
		// vec_distance_cosine is 0 (identical) to 2 (opposite); convert to
		// a similarity score on the same 1-is-best scale chromem returns.
		score := 1 - distance/2
		if opts.Threshold > 0 && score < opts.Threshold {
			continue
		}
		hits = append(hits, indexer.SearchHit{Doc: d, Score: score})
		if len(hits) >= limit {
			break
		}
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) HybridSearch(ctx context.Context, name string, legs []indexer.SearchLeg, opts indexer.HybridOptions) ([]indexer.SearchHit, error) {
	cc, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	fetch := opts.TopK
	if fetch <= 0 {
		fetch = 50
	}
	fetch *= denseOverfetchMultiplier

	lookup := func(id string) (indexer.VectorDocument, bool) { return s.rowByID(ctx, name, id) }

	legHits := make([]indexer.LegHits, 0, len(legs))
	for _, leg := range legs {
		var hits []indexer.SearchHit
		var err error
		switch {
		case leg.IsSparse:
			if cc.sparse == nil {
				continue
			}
			hits, err = searchSparse(cc.sparse, lookup, leg.Text, fetch, opts.Filter)
		default:
			hits, err = s.searchVec(ctx, name, leg.Vector, indexer.SearchOptions{TopK: fetch, Filter: opts.Filter})
		}
		if err != nil {
			return nil, fmt.Errorf("vectorstore: leg %q: %w", leg.Name, err)
		}
		legHits = append(legHits, indexer.LegHits{Name: leg.Name, Weight: opts.Weights[leg.Name], Hits: hits})
	}

	return indexer.Fuse(legHits, opts.Strategy, opts.RRFK, opts.TopK), nil
}

func (s *SQLiteStore) Query(ctx context.Context, name string, filter indexer.Filter, outputFields []string, limit int) ([]indexer.VectorDocument, error) {
	if _, err := s.collection(name); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT id, content, relative_path, file_extension, language, start_line, end_line, metadata FROM %s", chunksTable(name))
	args := []any{}
	if path, ok := indexer.AsPathFilter(filter); ok {
		q += " WHERE relative_path = ?"
		args = append(args, path)
	}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}
	defer rows.Close()

	var out []indexer.VectorDocument
	for rows.Next() {
		var d indexer.VectorDocument
		var metaJSON string
		if err := rows.Scan(&d.ID, &d.Content, &d.RelativePath, &d.FileExtension, &d.Language, &d.StartLine, &d.EndLine, &metaJSON); err != nil {
			return nil, fmt.Errorf("vectorstore: scan query row: %w", err)
		}
		_ = json.Unmarshal([]byte(metaJSON), &d.Metadata)
		if !matchesFilter(d, filter) {
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, name string, ids []string) error {
	cc, err := s.collection(name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	deleteChunk, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", chunksTable(name)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare chunk delete: %w", err)
	}
	defer deleteChunk.Close()

	deleteVec, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", vecTable(name)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare vector delete: %w", err)
	}
	defer deleteVec.Close()

	for _, id := range ids {
		if _, err := deleteChunk.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("vectorstore: delete chunk %s: %w", id, err)
		}
		if _, err := deleteVec.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("vectorstore: delete vector %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: commit delete: %w", err)
	}

	if cc.sparse != nil {
		return deleteSparse(cc.sparse, ids)
	}
	return nil
}

func (s *SQLiteStore) ExtensionFilter(extensions []string) indexer.Filter {
	return indexer.NewExtensionFilter(extensions)
}

func (s *SQLiteStore) PathFilter(relativePath string) indexer.Filter {
	return indexer.NewPathFilter(relativePath)
}
