// Package sqlutil assembles parameterized CRUD statements shared by the
// SQL-family backends. Statement shapes are identical across dialects; only
// the placeholder style differs ("?" for MySQL/SQLite, "$n" for PostgreSQL).
// Field names are rendered in sorted order so a given record always produces
// the same statement text.
package sqlutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/redbco/unidb/pkg/adapter"
)

// Style is the SQL placeholder dialect.
type Style int

const (
	// Question renders "?" placeholders (MySQL, SQLite).
	Question Style = iota
	// Dollar renders "$1".."$n" placeholders (PostgreSQL).
	Dollar
)

// placeholder renders the i-th placeholder, 1-based.
func (s Style) placeholder(i int) string {
	if s == Dollar {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildInsert assembles "INSERT INTO t (a, b) VALUES (?, ?)" plus its args.
func BuildInsert(style Style, table string, record adapter.Record) (string, []any) {
	keys := sortedKeys(record)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = style.placeholder(i + 1)
		args[i] = record[k]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	return query, args
}

// BuildUpdate assembles "UPDATE t SET a = ? WHERE b = ?" plus its args.
func BuildUpdate(style Style, table string, patch adapter.Record, condition adapter.Condition) (string, []any) {
	patchKeys := sortedKeys(patch)
	condKeys := sortedKeys(condition)

	setParts := make([]string, len(patchKeys))
	args := make([]any, 0, len(patchKeys)+len(condKeys))
	for i, k := range patchKeys {
		setParts[i] = fmt.Sprintf("%s = %s", k, style.placeholder(len(args)+1))
		args = append(args, patch[k])
	}
	whereParts := make([]string, len(condKeys))
	for i, k := range condKeys {
		whereParts[i] = fmt.Sprintf("%s = %s", k, style.placeholder(len(args)+1))
		args = append(args, condition[k])
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table, strings.Join(setParts, ", "), strings.Join(whereParts, " AND "))
	return query, args
}

// BuildDelete assembles "DELETE FROM t WHERE a = ?" plus its args.
func BuildDelete(style Style, table string, condition adapter.Condition) (string, []any) {
	keys := sortedKeys(condition)
	whereParts := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		whereParts[i] = fmt.Sprintf("%s = %s", k, style.placeholder(i+1))
		args[i] = condition[k]
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, strings.Join(whereParts, " AND "))
	return query, args
}

// BuildSelect assembles a SELECT honoring fields, equality condition,
// ordering and paging. Condition fields conjoin with AND.
func BuildSelect(style Style, table string, opts adapter.SelectOptions) (string, []any) {
	fields := "*"
	if len(opts.Fields) > 0 {
		fields = strings.Join(opts.Fields, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", fields, table)

	var args []any
	if len(opts.Condition) > 0 {
		keys := sortedKeys(opts.Condition)
		whereParts := make([]string, len(keys))
		for i, k := range keys {
			whereParts[i] = fmt.Sprintf("%s = %s", k, style.placeholder(i+1))
			args = append(args, opts.Condition[k])
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(whereParts, " AND "))
	}

	if len(opts.OrderBy) > 0 {
		parts := make([]string, len(opts.OrderBy))
		for i, o := range opts.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = o.Field + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if opts.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", opts.Offset)
	}

	return sb.String(), args
}

// BuildCount assembles "SELECT COUNT(*) FROM t [WHERE ...]" plus its args.
func BuildCount(style Style, table string, condition adapter.Condition) (string, []any) {
	if len(condition) == 0 {
		return fmt.Sprintf("SELECT COUNT(*) FROM %s", table), nil
	}
	keys := sortedKeys(condition)
	whereParts := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		whereParts[i] = fmt.Sprintf("%s = %s", k, style.placeholder(i+1))
		args[i] = condition[k]
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s",
		table, strings.Join(whereParts, " AND ")), args
}

// IsSelect reports whether the statement produces rows.
func IsSelect(statement string) bool {
	s := strings.ToUpper(strings.TrimSpace(statement))
	return strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "WITH") ||
		strings.HasPrefix(s, "PRAGMA") || strings.HasPrefix(s, "SHOW") ||
		strings.HasPrefix(s, "EXPLAIN")
}
