package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a single-file feature Store for local runs and tests
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the database at path.
// Enables WAL mode and a busy timeout; writes are serialized on one connection.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	connStr := path
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create parent directories: %w", err)
			}
		}
		connStr = "file:" + path
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Driver() string { return "sqlite" }

func (s *SQLite) Close() {
	_ = s.db.Close()
}

// TableExists is a case-sensitive point lookup in sqlite_master
func (s *SQLite) TableExists(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	// sqlite compares '=' case-sensitively for TEXT, keep the guard explicit
	return found == name, nil
}

// ReplaceTable drops, recreates and fills the table in one transaction
func (s *SQLite) ReplaceTable(ctx context.Context, t Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ident := quoteIdent(t.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("drop %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(ident, t.Columns)); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident, selectList(t.Columns), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		vals := make([]any, len(r))
		for i, v := range r {
			vals[i] = storeValue(v)
			if b, ok := vals[i].(bool); ok {
				vals[i] = boolInt(b)
			}
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.Name, err)
		}
	}

	return tx.Commit()
}

// ReadRows selects cols from table, optionally filtered by a LIKE prefix
func (s *SQLite) ReadRows(ctx context.Context, table string, cols []Column, filter *PrefixFilter) ([][]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", selectList(cols), quoteIdent(table))
	var args []any
	if filter != nil {
		query += fmt.Sprintf(" WHERE %s LIKE ? ESCAPE '\\'", quoteIdent(filter.Column))
		args = append(args, filter.pattern())
	}
	query += " ORDER BY " + quoteIdent(cols[0].Name)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		raw := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]any, len(cols))
		for i, c := range cols {
			if row[i], err = loadValue(c, raw[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// HealthCheck pings the database file
func (s *SQLite) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Driver:    s.Driver(),
		Timestamp: time.Now(),
	}

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Healthy = true
	return status, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
