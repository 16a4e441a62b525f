package target

import (
	"context"
	"fmt"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/pkg/database"
)

// TableTarget is one table of the feature store
type TableTarget struct {
	db    database.Store
	table string
}

func NewTable(db database.Store, table string) *TableTarget {
	return &TableTarget{db: db, table: table}
}

func (t *TableTarget) Table() string { return t.table }
func (t *TableTarget) URI() string   { return t.db.Driver() + "://table/" + t.table }

// Exists is a catalog point lookup; a zero-row table exists
func (t *TableTarget) Exists(ctx context.Context) (bool, error) {
	return t.db.TableExists(ctx, t.table)
}

// Replace writes rows as the whole table in one transaction
func (t *TableTarget) Replace(ctx context.Context, cols []database.Column, rows [][]any) error {
	err := t.db.ReplaceTable(ctx, database.Table{Name: t.table, Columns: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("replace %s: %w: %v", t.table, contracts.ErrPersistence, err)
	}
	return nil
}

// Read returns rows ordered by the first column, optionally filtered by prefix.
// A missing table is ErrLookup.
func (t *TableTarget) Read(ctx context.Context, cols []database.Column, filter *database.PrefixFilter) ([][]any, error) {
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", t.table, contracts.ErrLookup)
	}
	rows, err := t.db.ReadRows(ctx, t.table, cols, filter)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", t.table, contracts.ErrPersistence, err)
	}
	return rows, nil
}
