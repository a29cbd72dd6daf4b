package querysql

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is a portable column type understood by both engines.
type ColumnType string

// Portable column types.
const (
	Int    ColumnType = "integer"
	BigInt ColumnType = "bigint"
	Bool   ColumnType = "boolean"
	Text   ColumnType = "text"
)

// Varchar returns a bounded text type.
func Varchar(n int) ColumnType {
	return ColumnType(fmt.Sprintf("varchar(%d)", n))
}

// ErrNoColumns is returned when a table definition has no columns.
var ErrNoColumns = errors.New("table has no columns")

// TableBuilder accumulates a CREATE TABLE statement.
//
// Modifiers (NotNull, Unique, Default) apply to the most recently added
// column. Calling one before any column is recorded as an error and reported
// by Build.
type TableBuilder struct {
	dialect     Dialect
	name        string
	columns     []string
	foreignKeys []string
	err         error
}

// CreateTable starts a CREATE TABLE IF NOT EXISTS statement.
func CreateTable(d Dialect, name string) *TableBuilder {
	return &TableBuilder{dialect: d, name: name}
}

// PrimaryKey adds an auto-assigned integer primary key column.
func (b *TableBuilder) PrimaryKey(column string) *TableBuilder {
	b.columns = append(b.columns, PrimaryKeyColumn(b.dialect, column))
	return b
}

// Column adds a column definition.
func (b *TableBuilder) Column(name string, typ ColumnType) *TableBuilder {
	b.columns = append(b.columns, name+" "+string(typ))
	return b
}

// NotNull marks the last column NOT NULL.
func (b *TableBuilder) NotNull() *TableBuilder {
	return b.modify("NOT NULL")
}

// Unique marks the last column UNIQUE.
func (b *TableBuilder) Unique() *TableBuilder {
	return b.modify("UNIQUE")
}

// Default sets a literal default expression on the last column.
func (b *TableBuilder) Default(expr string) *TableBuilder {
	return b.modify("DEFAULT " + expr)
}

// ForeignKey adds a table-level foreign key constraint.
func (b *TableBuilder) ForeignKey(column, refTable, refColumn string) *TableBuilder {
	b.foreignKeys = append(b.foreignKeys,
		fmt.Sprintf("FOREIGN KEY(%s) REFERENCES %s(%s)", column, refTable, refColumn))
	return b
}

func (b *TableBuilder) modify(suffix string) *TableBuilder {
	if len(b.columns) == 0 {
		if b.err == nil {
			b.err = fmt.Errorf("create table %s: %q before any column", b.name, suffix)
		}
		return b
	}
	b.columns[len(b.columns)-1] += " " + suffix
	return b
}

// Build closes the definition and returns the statement text.
func (b *TableBuilder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.columns) == 0 {
		return "", fmt.Errorf("create table %s: %w", b.name, ErrNoColumns)
	}

	parts := make([]string, 0, len(b.columns)+len(b.foreignKeys))
	parts = append(parts, b.columns...)
	parts = append(parts, b.foreignKeys...)

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(b.name)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")
	return sb.String(), nil
}

// CreateIndex returns a CREATE INDEX IF NOT EXISTS statement.
func CreateIndex(name, table string, columns ...string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, strings.Join(columns, ", "))
}
