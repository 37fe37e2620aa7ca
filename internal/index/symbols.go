package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Symbol is one indexed row: the unique FQN, the lowercased simple name,
// the kind, and the full serialized object.
type Symbol struct {
	ID   int64
	FQN  string
	Name string
	Kind string
	Data []byte
}

// UpsertSymbol inserts or updates a symbol by FQN and rewrites its trigram
// postings so no stale grams survive. Grams cover both the bare name and
// the full FQN.
func (s *Store) UpsertSymbol(sym *Symbol) (int64, error) {
	name := strings.ToLower(sym.Name)
	_, err := s.q.Exec(`
		INSERT INTO symbols (fqn, name, kind, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fqn) DO UPDATE SET
			name=excluded.name, kind=excluded.kind, data=excluded.data`,
		sym.FQN, name, sym.Kind, string(sym.Data))
	if err != nil {
		return 0, fmt.Errorf("upsert symbol: %w", err)
	}

	// LastInsertId is stale on the update path, fetch the id explicitly.
	var id int64
	if err := s.q.QueryRow("SELECT id FROM symbols WHERE fqn=?", sym.FQN).Scan(&id); err != nil {
		return 0, fmt.Errorf("get symbol id: %w", err)
	}

	if _, err := s.q.Exec("DELETE FROM grams WHERE id=?", id); err != nil {
		return 0, fmt.Errorf("clear grams: %w", err)
	}
	for _, g := range gramUnion(name, sym.FQN) {
		if _, err := s.q.Exec("INSERT INTO grams (gram, id) VALUES (?, ?)", g, id); err != nil {
			return 0, fmt.Errorf("insert gram: %w", err)
		}
	}
	return id, nil
}

// GetByFQN returns the symbol stored under fqn, or nil when absent.
func (s *Store) GetByFQN(fqn string) (*Symbol, error) {
	var sym Symbol
	var data string
	err := s.q.QueryRow(
		"SELECT id, fqn, name, kind, data FROM symbols WHERE fqn=?", fqn,
	).Scan(&sym.ID, &sym.FQN, &sym.Name, &sym.Kind, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get symbol: %w", err)
	}
	sym.Data = []byte(data)
	return &sym, nil
}

// CountSymbols returns the number of indexed symbols.
func (s *Store) CountSymbols() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&count)
	return count, err
}
