package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/twitstock/pkg/config"
)

// Postgres wraps the pgxpool.Pool as a feature Store
// ⭐ SSOT: Postgres 연결은 이 파일에서만 생성
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres creates a new database connection pool
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (db *Postgres) Driver() string { return "postgres" }

// Close closes the database connection pool
func (db *Postgres) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// TableExists is a case-sensitive point lookup in the current schema
func (db *Postgres) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}

// ReplaceTable drops, recreates and bulk-loads the table with COPY in one transaction
func (db *Postgres) ReplaceTable(ctx context.Context, t Table) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ident := pgx.Identifier{t.Name}.Sanitize()
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("drop %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(ident, t.Columns)); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}

	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]any, len(r))
		for j, v := range r {
			vals[j] = storeValue(v)
		}
		rows[i] = vals
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, names, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy into %s: %w", t.Name, err)
	}

	return tx.Commit(ctx)
}

// ReadRows selects cols from table, optionally filtered by a LIKE prefix
func (db *Postgres) ReadRows(ctx context.Context, table string, cols []Column, filter *PrefixFilter) ([][]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", selectList(cols), pgx.Identifier{table}.Sanitize())
	var args []any
	if filter != nil {
		query += fmt.Sprintf(" WHERE %s LIKE $1 ESCAPE '\\'", quoteIdent(filter.Column))
		args = append(args, filter.pattern())
	}
	query += " ORDER BY " + quoteIdent(cols[0].Name)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
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

// HealthCheck returns detailed health information about the database
func (db *Postgres) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Driver:    db.Driver(),
		Timestamp: time.Now(),
	}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	stats := db.Stats()
	status.Stats = &stats
	status.Healthy = true
	return status, nil
}

// PoolStats represents connection pool statistics
type PoolStats struct {
	AcquireCount         int64         `json:"acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration"`
	AcquiredConns        int32         `json:"acquired_conns"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	IdleConns            int32         `json:"idle_conns"`
	MaxConns             int32         `json:"max_conns"`
	TotalConns           int32         `json:"total_conns"`
}

// Stats returns the current pool statistics
func (db *Postgres) Stats() PoolStats {
	stats := db.Pool.Stat()
	return PoolStats{
		AcquireCount:         stats.AcquireCount(),
		AcquireDuration:      stats.AcquireDuration(),
		AcquiredConns:        stats.AcquiredConns(),
		CanceledAcquireCount: stats.CanceledAcquireCount(),
		IdleConns:            stats.IdleConns(),
		MaxConns:             stats.MaxConns(),
		TotalConns:           stats.TotalConns(),
	}
}

func createTableSQL(ident string, cols []Column) string {
	defs := ""
	for i, c := range cols {
		if i > 0 {
			defs += ", "
		}
		defs += quoteIdent(c.Name) + " " + sqlType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident, defs)
}
