// Package query assembles parameterized Postgres statements from a
// declarative column projection, so repositories describe tables once and
// reuse the mapping for filtering, sorting, and paging.
package query

import "strings"

// Projection names a table and the columns a query selects from it, keyed
// by the logical field names the rest of the code uses. Unmapped field
// names resolve to themselves, which lets callers reference expressions the
// projection does not know about.
type Projection struct {
	schema string
	table  string
	alias  string
	fields map[string]string
	order  []string
}

// NewProjection creates an empty projection over schema.table with the
// given alias.
func NewProjection(schema, table, alias string) *Projection {
	return &Projection{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: map[string]string{},
	}
}

// Map binds a table column to the logical field name used in queries.
// Columns appear in the select list in the order they were mapped.
func (p *Projection) Map(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.fields[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// From returns the aliased table reference.
func (p *Projection) From() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Column resolves a logical field name to its qualified column.
func (p *Projection) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Columns returns the select list in mapping order.
func (p *Projection) Columns() string {
	return strings.Join(p.order, ", ")
}
