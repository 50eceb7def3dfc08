package queryplan

import "github.com/chronodb/chronodb/predicate"

// Node is one operator in a logical plan tree. The concrete node types
// below mirror standard relational plan shapes: scan, filter,
// project, sort, aggregate, plus the two InfluxRPC-specific nodes
// (non-null checker, schema pivot) used by table_names and tag_keys.
type Node interface {
	isNode()
}

// ScanNode reads every row of the given chunks for one table.
type ScanNode struct {
	Table  string
	Chunks []QueryChunk
}

// FilterNode keeps rows matching Predicate.
type FilterNode struct {
	Input     Node
	Predicate predicate.Predicate
}

// ProjectExpr is one output column of a ProjectNode: either a bare column
// reference (Expr == nil) or a computed expression aliased to Name.
type ProjectExpr struct {
	Name string
	Expr predicate.Expr
}

// ProjectNode projects the input down to the given columns/expressions,
// in order.
type ProjectNode struct {
	Input Node
	Exprs []ProjectExpr
}

// SortNode orders the input by the given columns, ascending.
type SortNode struct {
	Input   Node
	Columns []string
}

// AggExpr is one aggregate output column: Agg applied to Column, aliased
// to Name.
type AggExpr struct {
	Name   string
	Column string
	Agg    Aggregate
}

// AggregateNode groups the input by GroupColumns and computes AggExprs
// per group.
type AggregateNode struct {
	Input        Node
	GroupColumns []string
	AggExprs     []AggExpr
}

// CastNode casts the named columns to a 64-bit signed integer, the
// read_group/read_window_aggregate Count-cast rule.
type CastNode struct {
	Input   Node
	Columns []string
}

// NonNullCheckerNode emits TableName once if any input row survives,
// otherwise emits nothing; it is how table_names answers "does any row of
// this table match" without materialising the matching rows.
type NonNullCheckerNode struct {
	Input     Node
	TableName string
}

// SchemaPivotNode converts the presence of non-null columns in its input
// into a set of their names — tag_keys' fallback plan shape.
type SchemaPivotNode struct {
	Input Node
}

func (ScanNode) isNode()           {}
func (FilterNode) isNode()         {}
func (ProjectNode) isNode()        {}
func (SortNode) isNode()           {}
func (AggregateNode) isNode()      {}
func (CastNode) isNode()           {}
func (NonNullCheckerNode) isNode() {}
func (SchemaPivotNode) isNode()    {}
