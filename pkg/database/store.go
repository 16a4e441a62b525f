package database

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/twitstock/pkg/config"
)

// ColumnType is the storage type of a feature table column
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeFloat
	TypeBool
)

// Column describes one column of a feature table
type Column struct {
	Name string
	Type ColumnType
}

// Table is a full table image handed to ReplaceTable.
// Row values are string, float64 or bool; a NaN float is stored as NULL.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// PrefixFilter restricts ReadRows to rows whose Column starts with Prefix
type PrefixFilter struct {
	Column string
	Prefix string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// pattern is the LIKE operand; wildcards in Prefix match literally under ESCAPE '\'
func (f *PrefixFilter) pattern() string {
	return likeEscaper.Replace(f.Prefix) + "%"
}

// Store is the feature store shared by every pipeline task.
// ⭐ SSOT: 테이블 존재 확인/교체/조회는 이 인터페이스로만 수행
type Store interface {
	// TableExists reports whether a table of exactly this name is in the catalog.
	// Zero-row tables exist.
	TableExists(ctx context.Context, name string) (bool, error)

	// ReplaceTable drops and recreates t.Name with t.Rows in one transaction.
	ReplaceTable(ctx context.Context, t Table) error

	// ReadRows returns the selected columns ordered by the first column.
	// NULL floats come back as NaN, NULL bools as false.
	ReadRows(ctx context.Context, table string, cols []Column, filter *PrefixFilter) ([][]any, error)

	HealthCheck(ctx context.Context) (*HealthStatus, error)
	Driver() string
	Close()
}

// HealthStatus represents the health status of the database
type HealthStatus struct {
	Driver       string        `json:"driver"`
	Healthy      bool          `json:"healthy"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        *PoolStats    `json:"stats,omitempty"`
}

// Open connects to the feature store selected by DATABASE_URL's scheme
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Database.Driver() {
	case "sqlite":
		return NewSQLite(context.Background(), sqlitePath(cfg.Database.URL))
	default:
		return NewPostgres(cfg)
	}
}

// sqlitePath strips the sqlite:// scheme; file: DSNs are passed through
func sqlitePath(raw string) string {
	if strings.HasPrefix(raw, "sqlite://") {
		return strings.TrimPrefix(raw, "sqlite://")
	}
	return strings.TrimPrefix(raw, "sqlite:")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(t ColumnType) string {
	switch t {
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func selectList(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
	}
	return strings.Join(names, ", ")
}

// storeValue maps an in-memory value to what the driver should write
func storeValue(v any) any {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}

// loadValue normalizes a scanned value to the column's in-memory type
func loadValue(col Column, v any) (any, error) {
	switch col.Type {
	case TypeFloat:
		switch x := v.(type) {
		case nil:
			return math.NaN(), nil
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case TypeBool:
		switch x := v.(type) {
		case nil:
			return false, nil
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
	default:
		switch x := v.(type) {
		case nil:
			return "", nil
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case time.Time:
			return x.Format("2006-01-02"), nil
		}
	}
	return nil, fmt.Errorf("column %s: unexpected value %T", col.Name, v)
}
