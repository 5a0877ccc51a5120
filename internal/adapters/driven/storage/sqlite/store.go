package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rag4u/ingest/internal/adapters/driven/storage"
	"github.com/rag4u/ingest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// DatabaseFile is the file name created inside the data directory.
const DatabaseFile = "rag4u.db"

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	created map[string]bool
}

// NewStore opens (or creates) the database in dataDir.
// If dataDir is empty, defaults to ~/.rag4u/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rag4u", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", domain.ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:      db,
		path:    dbPath,
		created: make(map[string]bool),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_collections.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func ftsTable(collection string) string {
	return collection + "_fts"
}

// reserved names belong to the catalog and migration tables.
var reserved = map[string]bool{
	"collections":       true,
	"schema_migrations": true,
}

// validateCollection rejects names that would collide with the catalog,
// SQLite's internal tables or another collection's FTS table.
func validateCollection(name string) error {
	if err := storage.ValidateCollection(name); err != nil {
		return err
	}
	lower := strings.ToLower(name)
	if reserved[lower] || strings.HasPrefix(lower, "sqlite_") || strings.HasSuffix(lower, "_fts") {
		return fmt.Errorf("%w: collection name %q is reserved", domain.ErrInvalidInput, name)
	}
	return nil
}

// ensureCollection creates the collection table on first use.
func (s *Store) ensureCollection(ctx context.Context, name, keyField string) error {
	if err := validateCollection(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[name] {
		return nil
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rid      INTEGER PRIMARY KEY,
			id       TEXT NOT NULL UNIQUE,
			doc_key  TEXT NOT NULL UNIQUE,
			content  TEXT NOT NULL,
			metadata TEXT NOT NULL
		)
	`, quote(name)))
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (name, key_field) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			key_field = CASE WHEN collections.key_field = '' THEN excluded.key_field ELSE collections.key_field END
	`, name, keyField)
	if err != nil {
		return fmt.Errorf("registering collection %s: %w", name, err)
	}

	s.created[name] = true
	return nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return n > 0, nil
}

// Upsert replaces the record stored under keyValue, or inserts it.
func (s *Store) Upsert(ctx context.Context, collection, keyField, keyValue string, rec domain.Record) error {
	if err := s.ensureCollection(ctx, collection, keyField); err != nil {
		return err
	}

	if keyValue == "" {
		keyValue = storage.NewKey()
	}
	rec = storage.Clone(rec)
	if err := storage.SetField(&rec, keyField, keyValue); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = storage.NewID()
	}

	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshalling metadata: %v", domain.ErrInvalidRecord, err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, doc_key, content, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata
	`, quote(collection)), rec.ID, keyValue, rec.Content, string(metadataJSON))
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", keyValue, err)
	}
	return nil
}

// Query returns records matching every equality condition in filter,
// in insertion order.
func (s *Store) Query(ctx context.Context, collection string, filter map[string]any, limit int) ([]domain.Record, error) {
	if err := s.ensureCollection(ctx, collection, ""); err != nil {
		return nil, err
	}

	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, content, metadata FROM %s%s ORDER BY rid LIMIT ?", quote(collection), where), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", collection, err)
	}
	return records, nil
}

// whereClause translates an equality filter. Keys are sorted so the
// generated SQL is stable.
func whereClause(filter map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		v, err := sqlValue(filter[k])
		if err != nil {
			return "", nil, err
		}
		switch {
		case k == storage.FieldID:
			conds = append(conds, "id = ?")
			args = append(args, v)
		case k == storage.FieldContent:
			conds = append(conds, "content = ?")
			args = append(args, v)
		case strings.HasPrefix(k, storage.MetadataPrefix):
			key := strings.TrimPrefix(k, storage.MetadataPrefix)
			if key == "" || strings.ContainsAny(key, `"\`) {
				return "", nil, fmt.Errorf("%w: invalid filter key %q", domain.ErrInvalidInput, k)
			}
			conds = append(conds, "json_extract(metadata, ?) = ?")
			args = append(args, `$."`+key+`"`, v)
		default:
			return "", nil, fmt.Errorf("%w: unsupported filter key %q", domain.ErrInvalidInput, k)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// sqlValue maps a filter value onto what json_extract returns.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, float32, float64:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: filter value: %v", domain.ErrInvalidInput, err)
	}
	return string(b), nil
}

// EnsureTextIndex creates the FTS5 table and its sync triggers, then
// indexes existing rows. Only the content field can be indexed.
func (s *Store) EnsureTextIndex(ctx context.Context, collection, field string) error {
	if field != storage.FieldContent {
		return fmt.Errorf("%w: text index on %q is not supported", domain.ErrInvalidInput, field)
	}
	if err := s.ensureCollection(ctx, collection, ""); err != nil {
		return err
	}

	fts := ftsTable(collection)
	exists, err := s.tableExists(ctx, fts)
	if err != nil || exists {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	t, f := quote(collection), quote(fts)
	stmts := []string{
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(content, content='%s', content_rowid='rid')`,
			f, collection),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER INSERT ON %s BEGIN
			INSERT INTO %s(rowid, content) VALUES (new.rid, new.content);
		END`, quote(collection+"_ai"), t, f),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER DELETE ON %s BEGIN
			INSERT INTO %s(%s, rowid, content) VALUES ('delete', old.rid, old.content);
		END`, quote(collection+"_ad"), t, f, f),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER UPDATE ON %s BEGIN
			INSERT INTO %s(%s, rowid, content) VALUES ('delete', old.rid, old.content);
			INSERT INTO %s(rowid, content) VALUES (new.rid, new.content);
		END`, quote(collection+"_au"), t, f, f, f),
		fmt.Sprintf(`INSERT INTO %s(%s) VALUES ('rebuild')`, f, f),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating text index on %s: %w", collection, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET text_field = ? WHERE name = ?", field, collection); err != nil {
		return fmt.Errorf("registering text index on %s: %w", collection, err)
	}
	return tx.Commit()
}

// FullTextSearch ranks records by bm25. Any query word may match.
func (s *Store) FullTextSearch(ctx context.Context, collection, query string, limit int) ([]domain.ScoredRecord, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	fts := ftsTable(collection)
	exists, err := s.tableExists(ctx, fts)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: no text index on %s", domain.ErrNotFound, collection)
	}

	match := matchExpr(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	f := quote(fts)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT t.id, t.content, t.metadata, -bm25(%s) AS score
		FROM %s JOIN %s t ON t.rid = %s.rowid
		WHERE %s MATCH ?
		ORDER BY score DESC
		LIMIT ?
	`, f, f, quote(collection), f, f), match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", collection, err)
	}
	defer rows.Close()

	var results []domain.ScoredRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			r            domain.ScoredRecord
			metadataJSON string
		)
		if err := rows.Scan(&r.Record.ID, &r.Record.Content, &metadataJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if r.Record.Metadata, err = decodeMetadata(metadataJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}

// matchExpr turns free text into an FTS5 expression: each word quoted,
// joined with OR.
func matchExpr(query string) string {
	terms := storage.Terms(query)
	for i, t := range terms {
		terms[i] = `"` + t + `"`
	}
	return strings.Join(terms, " OR ")
}

// Drop removes a collection, its text index and its catalog entry.
func (s *Store) Drop(ctx context.Context, collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS " + quote(ftsTable(collection)),
		"DROP TABLE IF EXISTS " + quote(collection),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping %s: %w", collection, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("dropping %s: %w", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dropping %s: %w", collection, err)
	}
	delete(s.created, collection)
	return nil
}

// Collections lists the registered collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ==================== Helper Functions ====================

func scanRecord(rows *sql.Rows) (domain.Record, error) {
	var (
		rec          domain.Record
		metadataJSON string
	)
	if err := rows.Scan(&rec.ID, &rec.Content, &metadataJSON); err != nil {
		return rec, fmt.Errorf("scanning record: %w", err)
	}
	md, err := decodeMetadata(metadataJSON)
	if err != nil {
		return rec, err
	}
	rec.Metadata = md
	return rec, nil
}

// decodeMetadata restores whole numbers as int64 rather than float64.
func decodeMetadata(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var md map[string]any
	if err := dec.Decode(&md); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	for k, v := range md {
		md[k] = number(v)
	}
	return md, nil
}

func number(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = number(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = number(t[k])
		}
	}
	return v
}
