// Package index persists validated symbols in SQLite and answers exact FQN
// and approximate trigram name lookups.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding one package's symbol index.
type Store struct {
	db   *sql.DB
	q    Querier // active querier: db or tx
	path string
}

// Open opens or creates the index database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	s := &Store{db: db, path: path}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory index (for testing). The connection pool is
// pinned to one connection so every statement sees the same database.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open memory index: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTransaction executes fn within a single SQLite transaction. The
// callback receives a transaction-scoped Store; the receiver's q field is
// never mutated, so concurrent read-only callers are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, path: s.path}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fqn TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

	CREATE TABLE IF NOT EXISTS grams (
		gram TEXT NOT NULL,
		id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_grams_gram ON grams(gram);
	CREATE INDEX IF NOT EXISTS idx_grams_id ON grams(id);

	CREATE TABLE IF NOT EXISTS files (
		rel_path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		symbol_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SetMeta stores one provenance entry (package, version, commit, ...).
func (s *Store) SetMeta(key, value string) error {
	_, err := s.q.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta returns one provenance entry, or "" when absent.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.q.QueryRow("SELECT value FROM meta WHERE key=?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// UpsertFile records a source file's content hash and symbol count.
func (s *Store) UpsertFile(relPath, hash string, symbolCount int) error {
	_, err := s.q.Exec(`
		INSERT INTO files (rel_path, hash, symbol_count) VALUES (?, ?, ?)
		ON CONFLICT(rel_path) DO UPDATE SET
			hash=excluded.hash, symbol_count=excluded.symbol_count`,
		relPath, hash, symbolCount)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", relPath, err)
	}
	return nil
}

// Stats summarizes the index contents.
type Stats struct {
	Symbols int               `json:"symbols"`
	Files   int               `json:"files"`
	Kinds   map[string]int    `json:"kinds"`
	Meta    map[string]string `json:"meta"`
}

// ReadStats counts symbols and files and collects provenance metadata.
func (s *Store) ReadStats() (*Stats, error) {
	st := &Stats{Kinds: map[string]int{}, Meta: map[string]string{}}

	if err := s.q.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&st.Symbols); err != nil {
		return nil, fmt.Errorf("count symbols: %w", err)
	}
	if err := s.q.QueryRow("SELECT COUNT(*) FROM files").Scan(&st.Files); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	rows, err := s.q.Query("SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		st.Kinds[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metaRows, err := s.q.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var k, v string
		if err := metaRows.Scan(&k, &v); err != nil {
			return nil, err
		}
		st.Meta[k] = v
	}
	return st, metaRows.Err()
}
