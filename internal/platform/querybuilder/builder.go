package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition renders one predicate of a WHERE clause using $n placeholders.
type Condition interface {
	appendSQL(w *writer)
}

type writer struct {
	buf  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expand replaces each '?' in expr with the next positional placeholder.
func (w *writer) expand(expr string, exprArgs []any) {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(exprArgs) {
			w.bind(exprArgs[next])
			next++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

type compare struct {
	column string
	op     string
	value  any
}

func (c compare) appendSQL(w *writer) {
	w.buf.WriteString(c.column)
	w.buf.WriteString(" ")
	w.buf.WriteString(c.op)
	w.buf.WriteString(" ")
	w.bind(c.value)
}

func Eq(column string, value any) Condition  { return compare{column: column, op: "=", value: value} }
func Ne(column string, value any) Condition  { return compare{column: column, op: "<>", value: value} }
func Lte(column string, value any) Condition { return compare{column: column, op: "<=", value: value} }
func Gte(column string, value any) Condition { return compare{column: column, op: ">=", value: value} }

type inList struct {
	column string
	values []any
}

// In renders "column IN (...)"; an empty list matches nothing.
func In[T any](column string, values []T) Condition {
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return inList{column: column, values: items}
}

func (c inList) appendSQL(w *writer) {
	if len(c.values) == 0 {
		w.buf.WriteString("1=0")
		return
	}
	w.buf.WriteString(c.column)
	w.buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.bind(v)
	}
	w.buf.WriteString(")")
}

type nullCheck struct {
	column string
	not    bool
}

func IsNull(column string) Condition    { return nullCheck{column: column} }
func IsNotNull(column string) Condition { return nullCheck{column: column, not: true} }

func (c nullCheck) appendSQL(w *writer) {
	w.buf.WriteString(c.column)
	if c.not {
		w.buf.WriteString(" IS NOT NULL")
		return
	}
	w.buf.WriteString(" IS NULL")
}

type rawExpr struct {
	expr string
	args []any
}

// Expr embeds a raw predicate; '?' marks positional arguments.
func Expr(expr string, args ...any) Condition {
	return rawExpr{expr: expr, args: args}
}

func (c rawExpr) appendSQL(w *writer) {
	w.expand(c.expr, c.args)
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate appends a row lock clause; only meaningful inside a transaction.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := &writer{}
	w.buf.WriteString("SELECT ")
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(" FROM ")
	w.buf.WriteString(b.table)
	writeWhere(w, b.where)
	if len(b.orderBy) > 0 {
		w.buf.WriteString(" ORDER BY ")
		w.buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.buf.WriteString(" LIMIT ")
		w.buf.WriteString(strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.buf.WriteString(" FOR UPDATE")
	}

	return w.buf.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim, e.g. an ON CONFLICT or RETURNING clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := &writer{}
	w.buf.WriteString("INSERT INTO ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" (")
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString("(")
		for j, value := range row {
			if j > 0 {
				w.buf.WriteString(", ")
			}
			w.bind(value)
		}
		w.buf.WriteString(")")
	}
	if b.suffix != "" {
		w.buf.WriteString(" ")
		w.buf.WriteString(b.suffix)
	}

	return w.buf.String(), w.args, nil
}

type assignment struct {
	column string
	expr   string
	args   []any
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: "?", args: []any{value}})
	return b
}

// SetExpr assigns a raw expression; '?' marks positional arguments.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, args: args})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := &writer{}
	w.buf.WriteString("UPDATE ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(s.column)
		w.buf.WriteString(" = ")
		w.expand(s.expr, s.args)
	}
	writeWhere(w, b.where)
	if b.suffix != "" {
		w.buf.WriteString(" ")
		w.buf.WriteString(b.suffix)
	}

	return w.buf.String(), w.args, nil
}

func writeWhere(w *writer, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.buf.WriteString(" AND ")
		}
		c.appendSQL(w)
	}
}
