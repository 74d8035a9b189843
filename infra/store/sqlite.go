// Package store persists per-vehicle effects rows in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/fleeteffects/core/effects"
)

// SQLiteStore writes one table per effects kind, e.g. physical_effects.
// Identity columns are TEXT and numeric fields REAL.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	tables map[string][]string
}

// NewSQLiteStore opens or creates the database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, tables: map[string][]string{}}, nil
}

func quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func tableName(kind string) string { return kind + "_effects" }

func (s *SQLiteStore) ensure(kind string, fields []effects.Field) ([]string, error) {
	if cols, ok := s.tables[kind]; ok {
		return cols, nil
	}
	cols := append([]string(nil), effects.IdentityColumns...)
	defs := make([]string, 0, len(cols)+len(fields))
	for _, c := range effects.IdentityColumns {
		defs = append(defs, quote(c)+" TEXT")
	}
	for _, f := range fields {
		cols = append(cols, f.Name)
		defs = append(defs, quote(f.Name)+" REAL")
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY(session_name, vehicle_id, calendar_year))",
		quote(tableName(kind)), strings.Join(defs, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return nil, err
	}
	s.tables[kind] = cols
	return cols, nil
}

// WriteDetail inserts or replaces the rows in one transaction.
func (s *SQLiteStore) WriteDetail(kind string, recs []effects.Record) error {
	if len(recs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, err := s.ensure(kind, recs[0].Fields())
	if err != nil {
		return err
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(tableName(kind)), strings.Join(quoted, ", "), marks))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	args := make([]any, len(cols))
	for _, r := range recs {
		i := 0
		for _, v := range r.Ident().Strings() {
			args[i] = v
			i++
		}
		for _, f := range r.Fields() {
			args[i] = f.Value
			i++
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s row: %w", kind, err)
		}
	}
	return tx.Commit()
}

// Sum returns the total of a numeric column for one session.
func (s *SQLiteStore) Sum(kind, session, column string) (float64, error) {
	var v sql.NullFloat64
	err := s.db.QueryRow(fmt.Sprintf("SELECT SUM(%s) FROM %s WHERE session_name = ?", quote(column), quote(tableName(kind))), session).Scan(&v)
	return v.Float64, err
}

// Count returns the number of rows of one session.
func (s *SQLiteStore) Count(kind, session string) (int, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE session_name = ?", quote(tableName(kind))), session).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
