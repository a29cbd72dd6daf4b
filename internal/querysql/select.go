package querysql

import (
	"strings"
)

// Operator joins where-conditions.
type Operator string

// Boolean operators for Where conditions.
const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// SelectBuilder builds SELECT statements.
//
// The builder is a value: every method returns a modified copy, so a partly
// built select can be reused as a template.
type SelectBuilder struct {
	table      string
	distinct   bool
	columns    []string
	joins      []string
	conditions []string
	operator   Operator
	orderBy    []string
}

// Select starts SELECT columns FROM table. No columns selects *.
func Select(table string, columns ...string) SelectBuilder {
	return SelectBuilder{table: table, columns: columns, operator: And}
}

// Distinct makes the statement SELECT DISTINCT.
func (b SelectBuilder) Distinct() SelectBuilder {
	b.distinct = true
	return b
}

// Join appends a raw join clause, e.g. "INNER JOIN t ON t.id = u.t_id".
func (b SelectBuilder) Join(clause string) SelectBuilder {
	b.joins = append(clone(b.joins), clause)
	return b
}

// Where sets conditions joined with AND.
func (b SelectBuilder) Where(conditions ...string) SelectBuilder {
	b.conditions = clone(conditions)
	b.operator = And
	return b
}

// WhereAny sets conditions joined with OR.
func (b SelectBuilder) WhereAny(conditions ...string) SelectBuilder {
	b.conditions = clone(conditions)
	b.operator = Or
	return b
}

// OrderBy sets the ORDER BY columns.
func (b SelectBuilder) OrderBy(columns ...string) SelectBuilder {
	b.orderBy = clone(columns)
	return b
}

// String returns the statement text.
func (b SelectBuilder) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if where := whereClause(b.conditions, b.operator); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	return sb.String()
}

// Statement pairs the text with arguments for its placeholders.
func (b SelectBuilder) Statement(args ...any) Statement {
	return Statement{SQL: b.String(), Args: args}
}

// whereClause parenthesises each non-empty condition and joins them with op.
func whereClause(conditions []string, op Operator) string {
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c) == "" {
			continue
		}
		parts = append(parts, "("+c+")")
	}
	if op == "" {
		op = And
	}
	return strings.Join(parts, " "+string(op)+" ")
}

// In returns "column IN (?,...)" for n placeholders. For n == 0 it returns a
// condition that matches nothing, since "IN ()" is not valid SQL.
func In(column string, n int) string {
	if n == 0 {
		return "1 = 0"
	}
	return column + " IN (" + placeholders(n) + ")"
}

func clone(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
