package querysql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrArgumentCount is returned when the number of values does not match the
// number of columns of an insert.
var ErrArgumentCount = errors.New("argument count does not match column count")

// Statement is SQL text plus its ordered arguments.
type Statement struct {
	SQL  string
	Args []any
}

// InsertBuilder builds INSERT statements for a fixed column list.
type InsertBuilder struct {
	table   string
	columns []string
}

// Insert starts an INSERT INTO table (columns...) statement.
func Insert(table string, columns ...string) InsertBuilder {
	return InsertBuilder{table: table, columns: columns}
}

// String returns the statement text with one placeholder per column.
func (b InsertBuilder) String() string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table)
	if len(b.columns) == 0 {
		sb.WriteString(" DEFAULT VALUES")
		return sb.String()
	}
	sb.WriteString(" (")
	sb.WriteString(strings.Join(b.columns, ","))
	sb.WriteString(") VALUES (")
	sb.WriteString(placeholders(len(b.columns)))
	sb.WriteString(")")
	return sb.String()
}

// Values binds one row of arguments. The count must equal the column count.
func (b InsertBuilder) Values(args ...any) (Statement, error) {
	if len(args) != len(b.columns) {
		return Statement{}, fmt.Errorf("insert into %s: %w (columns=%d, args=%d)",
			b.table, ErrArgumentCount, len(b.columns), len(args))
	}
	return Statement{SQL: b.String(), Args: args}, nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
