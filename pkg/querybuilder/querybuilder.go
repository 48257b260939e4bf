// Package querybuilder assembles SQL-family SELECT statements through a
// fluent interface. It is a text-assembly convenience, not a safety boundary:
// no parameter binding or escaping happens here, so callers needing injection
// safety must pass values through a client's parameterized Execute instead of
// interpolating them into clauses.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

type join struct {
	kind      string
	table     string
	condition string
}

type orderBy struct {
	field     string
	direction string
}

// Builder accumulates query clauses. Clause methods append and return the
// same builder, enabling chaining; there is no implicit reset, construct a
// new Builder to start over. Build is a pure projection of the accumulated
// state: repeated calls without intervening mutation yield identical text.
type Builder struct {
	table    string
	fields   []string
	distinct bool
	joins    []join
	wheres   []string
	groupBy  []string
	having   []string
	orderBy  []orderBy
	limit    int
	offset   int
	hasLimit bool
	hasOff   bool
}

// New creates an empty query builder.
func New() *Builder {
	return &Builder{}
}

// Table sets the FROM target.
func (b *Builder) Table(name string) *Builder {
	b.table = name
	return b
}

// Select sets the projected fields. With no arguments all fields are
// selected. Raw expressions are allowed ("COUNT(*) AS total").
func (b *Builder) Select(fields ...string) *Builder {
	b.fields = fields
	return b
}

// Distinct adds the DISTINCT keyword.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Where appends a raw condition. Multiple calls conjoin with AND; there is
// no implicit OR support.
func (b *Builder) Where(condition string) *Builder {
	b.wheres = append(b.wheres, condition)
	return b
}

// WhereIn appends an IN condition over literal values. An empty values list
// is a no-op.
func (b *Builder) WhereIn(field string, values ...any) *Builder {
	if len(values) == 0 {
		return b
	}
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = literal(v)
	}
	b.wheres = append(b.wheres, fmt.Sprintf("%s IN (%s)", field, strings.Join(rendered, ", ")))
	return b
}

// WhereBetween appends a BETWEEN condition.
func (b *Builder) WhereBetween(field string, start, end any) *Builder {
	b.wheres = append(b.wheres, fmt.Sprintf("%s BETWEEN %s AND %s", field, literal(start), literal(end)))
	return b
}

// WhereLike appends a LIKE condition.
func (b *Builder) WhereLike(field, pattern string) *Builder {
	b.wheres = append(b.wheres, fmt.Sprintf("%s LIKE '%s'", field, pattern))
	return b
}

// Join appends a join of the given kind (INNER, LEFT, RIGHT, FULL).
func (b *Builder) Join(table, condition, kind string) *Builder {
	b.joins = append(b.joins, join{kind: strings.ToUpper(kind), table: table, condition: condition})
	return b
}

// InnerJoin appends an INNER JOIN.
func (b *Builder) InnerJoin(table, condition string) *Builder {
	return b.Join(table, condition, "INNER")
}

// LeftJoin appends a LEFT JOIN.
func (b *Builder) LeftJoin(table, condition string) *Builder {
	return b.Join(table, condition, "LEFT")
}

// RightJoin appends a RIGHT JOIN.
func (b *Builder) RightJoin(table, condition string) *Builder {
	return b.Join(table, condition, "RIGHT")
}

// GroupBy appends grouping fields.
func (b *Builder) GroupBy(fields ...string) *Builder {
	b.groupBy = append(b.groupBy, fields...)
	return b
}

// Having appends a HAVING condition; multiple calls conjoin with AND.
func (b *Builder) Having(condition string) *Builder {
	b.having = append(b.having, condition)
	return b
}

// OrderBy appends a sort key. Direction is ASC or DESC, defaulting to ASC
// for anything unrecognized.
func (b *Builder) OrderBy(field, direction string) *Builder {
	d := strings.ToUpper(strings.TrimSpace(direction))
	if d != "DESC" {
		d = "ASC"
	}
	b.orderBy = append(b.orderBy, orderBy{field: field, direction: d})
	return b
}

// Limit sets the LIMIT clause.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	b.hasLimit = true
	return b
}

// Offset sets the OFFSET clause.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	b.hasOff = true
	return b
}

// Paginate sets LIMIT and OFFSET from a 1-based page number and page size.
func (b *Builder) Paginate(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	return b.Limit(perPage).Offset((page - 1) * perPage)
}

// Build renders the accumulated clauses in fixed order:
// SELECT ... FROM ... JOINs WHERE GROUP BY HAVING ORDER BY LIMIT OFFSET.
// Clauses without accumulated content are omitted. Build fails when no
// table has been set.
func (b *Builder) Build() (string, error) {
	if b.table == "" {
		return "", fmt.Errorf("querybuilder: no table set")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(b.fields) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.fields, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	for _, j := range b.joins {
		fmt.Fprintf(&sb, " %s JOIN %s ON %s", j.kind, j.table, j.condition)
	}

	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.wheres, " AND "))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.having) > 0 {
		sb.WriteString(" HAVING ")
		sb.WriteString(strings.Join(b.having, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			parts[i] = o.field + " " + o.direction
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if b.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	if b.hasOff {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}

	return sb.String(), nil
}

// String renders the query, or a placeholder when the builder is incomplete.
func (b *Builder) String() string {
	q, err := b.Build()
	if err != nil {
		return "<querybuilder: incomplete>"
	}
	return q
}

// literal renders a value as a SQL literal. Strings are single-quoted
// without escaping, consistent with the package's documented limitation.
func literal(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + t + "'"
	default:
		return fmt.Sprint(v)
	}
}
