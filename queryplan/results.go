package queryplan

import (
	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/predicate"
)

// StringSetResult is either a fully-resolved set of names (Known) or a
// set of Plans whose execution contributes additional names — the
// outcome of table_names and tag_keys, which can answer some tables
// straight from metadata and need a scan plan for the rest.
type StringSetResult struct {
	Known predicate.StringSet
	Plans []Node
}

// FieldColumnInfo describes one field column contributed to a
// field_columns result.
type FieldColumnInfo struct {
	Name          string
	ColumnType    catalog.ColumnType
	LastTimestamp int64
}

// FieldColumnsResult is either fully-resolved field metadata (Known, from
// an empty-predicate fast path) or a set of Plans whose execution
// contributes additional field column info.
type FieldColumnsResult struct {
	Known []FieldColumnInfo
	Plans []Node
}

// SeriesSetPlan is one table's plan for read_filter, read_group or
// read_window_aggregate, along with the tag columns the executor should
// group rows into series by.
type SeriesSetPlan struct {
	Table      string
	Plan       Node
	TagColumns []string
}
