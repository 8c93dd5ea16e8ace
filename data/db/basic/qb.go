package basic

import (
	"strconv"
	"strings"
)

// SelectBuilder is a minimal SELECT statement builder for call sites that
// need to compose WHERE/ORDER BY/LIMIT conditionally (e.g. paginated event
// log reads) without string-concatenating raw SQL by hand.
type SelectBuilder struct {
	cols   []string
	table  string
	where  []string
	args   []any
	order  string
	limit  int
	offset int
}

// isSafeIdentifier reports whether name is a safe bare identifier.
//
// Accepted forms:
//   - a single identifier: foo, bar_1
//   - a dotted qualified name: table.column
//
// Per segment:
//   - must be non-empty
//   - first character must be a letter or underscore [A-Za-z_]
//   - subsequent characters must be a letter, digit, or underscore [A-Za-z0-9_]
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			if i == 0 {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					ch == '_') {
					return false
				}
			} else {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					(ch >= '0' && ch <= '9') ||
					ch == '_') {
					return false
				}
			}
		}
	}
	return true
}

func NewSelect() *SelectBuilder { return &SelectBuilder{cols: []string{"*"}} }

func (b *SelectBuilder) Select(columns ...string) *SelectBuilder {
	if len(columns) > 0 {
		safe := make([]string, 0, len(columns))
		for _, c := range columns {
			if c == "*" || isSafeIdentifier(c) {
				safe = append(safe, c)
			} else {
				panic("SelectBuilder: unsafe column name " + c)
			}
		}
		b.cols = safe
	}
	return b
}
func (b *SelectBuilder) From(table string) *SelectBuilder {
	if !isSafeIdentifier(table) {
		panic("SelectBuilder: unsafe table name " + table)
	}
	b.table = table
	return b
}
func (b *SelectBuilder) Where(cond string, args ...any) *SelectBuilder {
	if cond != "" {
		b.where = append(b.where, cond)
		b.args = append(b.args, args...)
	}
	return b
}
func (b *SelectBuilder) OrderBy(col string, desc bool) *SelectBuilder {
	if col != "" {
		if !isSafeIdentifier(col) {
			panic("SelectBuilder: unsafe order column " + col)
		}
		b.order = col
		if desc {
			b.order += " DESC"
		}
	}
	return b
}

// Limit sets the maximum row count.
//
//   - n > 0: emits a `LIMIT n` clause
//   - n == 0: no LIMIT clause (unbounded)
//   - n < 0: programmer error, panics immediately
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	if n < 0 {
		panic("SelectBuilder: limit cannot be negative")
	}
	b.limit = n
	return b
}

// Offset sets the result offset.
//
//   - n > 0: emits an `OFFSET n` clause
//   - n == 0: no OFFSET clause (start at row 0)
//   - n < 0: programmer error, panics immediately
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	if n < 0 {
		panic("SelectBuilder: offset cannot be negative")
	}
	b.offset = n
	return b
}

func (b *SelectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.cols, ","))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if b.order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.order)
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}
	return sb.String(), b.args
}
