// Package schema describes the tag/field/time column layout of a table, the
// shape the predicate normaliser and query planner both resolve column
// references against.
package schema

import "github.com/chronodb/chronodb/catalog"

// TimeColumnName is the name of the single time column every table has.
const TimeColumnName = "time"

// Schema is the ordered set of columns belonging to one table at the time
// it was read from the catalog. Order matters: it is the tag and field
// ordering the query planner uses to build projections and sort keys.
type Schema struct {
	columns []catalog.Column
}

// New builds a Schema from the catalog's column rows for a table. Column
// order is preserved from the slice passed in, which callers should supply
// already sorted by catalog.ColumnID (creation order) as the catalog does.
func New(columns []catalog.Column) Schema {
	cp := make([]catalog.Column, len(columns))
	copy(cp, columns)
	return Schema{columns: cp}
}

// Columns returns every column in schema order.
func (s Schema) Columns() []catalog.Column {
	return s.columns
}

// HasColumn reports whether name is a column of this schema.
func (s Schema) HasColumn(name string) bool {
	_, ok := s.find(name)
	return ok
}

// ColumnType returns the type of the named column, if present.
func (s Schema) ColumnType(name string) (catalog.ColumnType, bool) {
	c, ok := s.find(name)
	if !ok {
		return 0, false
	}
	return c.ColumnType, true
}

// TagNames returns the tag column names in schema order.
func (s Schema) TagNames() []string {
	var names []string
	for _, c := range s.columns {
		if c.ColumnType == catalog.ColumnTypeTag {
			names = append(names, c.Name)
		}
	}
	return names
}

// FieldNames returns the field column names in schema order.
func (s Schema) FieldNames() []string {
	var names []string
	for _, c := range s.columns {
		if c.ColumnType.IsField() {
			names = append(names, c.Name)
		}
	}
	return names
}

// HasTimeColumn reports whether this schema carries the time column.
func (s Schema) HasTimeColumn() bool {
	return s.HasColumn(TimeColumnName)
}

func (s Schema) find(name string) (catalog.Column, bool) {
	for _, c := range s.columns {
		if c.Name == name {
			return c, true
		}
	}
	return catalog.Column{}, false
}
