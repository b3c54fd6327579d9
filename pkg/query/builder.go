package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY column, addressed by projected field name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort expression such as
// "name,-createdAt". A leading "-" marks a field descending. Empty input
// yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		desc := false
		if trimmed, ok := strings.CutPrefix(name, "-"); ok {
			name = trimmed
			desc = true
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Builder accumulates conditions against a projection and emits SELECT,
// COUNT, and paged variants of the same statement. Placeholders are
// numbered as conditions are added, so every emitted form shares one
// argument list.
type Builder struct {
	projection *Projection
	where      []string
	args       []any
	sort       []SortField
	fallback   []SortField
}

// NewBuilder creates a Builder over the projection. The optional sort
// fields apply whenever no explicit ordering is set.
func NewBuilder(p *Projection, defaultSort ...SortField) *Builder {
	return &Builder{projection: p, fallback: defaultSort}
}

// bind registers an argument and returns its positional placeholder.
func (b *Builder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// WhereEquals adds an equality condition. Nil values are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.where = append(b.where, b.projection.Column(field)+" = "+b.bind(value))
	return b
}

// WhereContains adds a case-insensitive substring condition. Nil and empty
// values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.where = append(b.where, b.projection.Column(field)+" ILIKE "+b.bind("%"+*value+"%"))
	return b
}

// WhereSearch adds one case-insensitive substring condition ORed across the
// given fields. Nil and empty search terms are skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	clauses := make([]string, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE " + b.bind(pattern)
	}
	b.where = append(b.where, "("+strings.Join(clauses, " OR ")+")")
	return b
}

// OrderByFields sets an explicit sort order, overriding the default.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build returns the SELECT statement with conditions and ordering applied.
func (b *Builder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.projection.Columns())
	sb.WriteString(" FROM ")
	sb.WriteString(b.projection.From())
	sb.WriteString(b.whereClause())
	sb.WriteString(b.orderClause())
	return sb.String(), b.args
}

// BuildCount returns a COUNT(*) statement over the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	return "SELECT COUNT(*) FROM " + b.projection.From() + b.whereClause(), b.args
}

// BuildPage returns the SELECT statement with ordering, limit, and offset
// applied. Pages are one-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	stmt, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", stmt, pageSize, (page-1)*pageSize), args
}

// BuildSingle returns a SELECT statement matching one record on the given
// field, independent of any accumulated conditions.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	stmt := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(field),
	)
	return stmt, []any{id}
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *Builder) orderClause() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.fallback
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		parts[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
