// Package sqlite implements the document store gateway on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Each collection is a table holding one row per record:
//
//   - id: 24-hex record identifier
//   - doc_key: the upsert key, unique within the collection
//   - content: chunk text
//   - metadata: JSON object
//
// EnsureTextIndex adds an external-content FTS5 table kept in step by
// triggers; FullTextSearch ranks with bm25.
//
// # Schema
//
// The catalog schema is managed through versioned migrations stored in the
// migrations/ directory. Collection tables are created on first use.
//
// # Data Location
//
// By default, the database is stored at ~/.rag4u/data/rag4u.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised through a single
// connection; SQLite runs in WAL mode.
package sqlite
