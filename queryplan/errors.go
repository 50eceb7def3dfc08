package queryplan

import "fmt"

// TableRemovedError is raised when a table disappears between predicate
// resolution and plan emission; it aborts only that table's sub-plan.
type TableRemovedError struct {
	TableName string
}

func (e *TableRemovedError) Error() string {
	return fmt.Sprintf("table was removed while planning query: %s", e.TableName)
}

// GettingChunksError wraps a failure to fetch a table's candidate chunks.
type GettingChunksError struct {
	TableName string
	Err       error
}

func (e *GettingChunksError) Error() string {
	return fmt.Sprintf("error fetching chunks for table %q: %v", e.TableName, e.Err)
}

func (e *GettingChunksError) Unwrap() error { return e.Err }

// CheckingChunkPredicateError wraps a failure evaluating a predicate
// against one chunk's metadata.
type CheckingChunkPredicateError struct {
	ChunkID ChunkID
	Err     error
}

func (e *CheckingChunkPredicateError) Error() string {
	return fmt.Sprintf("error checking if chunk %d could pass predicate: %v", e.ChunkID, e.Err)
}

func (e *CheckingChunkPredicateError) Unwrap() error { return e.Err }

// InvalidTagColumnError is returned when a requested tag_values column is
// not a tag column of the chunk's schema.
type InvalidTagColumnError struct {
	TagName string
}

func (e *InvalidTagColumnError) Error() string {
	return fmt.Sprintf("column %q is not a tag column", e.TagName)
}

// InternalInvalidTagTypeError is returned when a tag column is not
// string-typed, which should never happen for a well-formed schema.
type InternalInvalidTagTypeError struct {
	TagName string
}

func (e *InternalInvalidTagTypeError) Error() string {
	return fmt.Sprintf("internal error: tag column %q is not string-typed", e.TagName)
}

// DuplicateGroupColumnError is returned when read_group's group_columns
// names the same column twice.
type DuplicateGroupColumnError struct {
	ColumnName string
}

func (e *DuplicateGroupColumnError) Error() string {
	return fmt.Sprintf("duplicate group column %q", e.ColumnName)
}

// GroupColumnNotFoundError is returned when read_group's group_columns
// names a column that is not a tag column of the table.
type GroupColumnNotFoundError struct {
	ColumnName string
}

func (e *GroupColumnNotFoundError) Error() string {
	return fmt.Sprintf("group column %q not found in tag columns", e.ColumnName)
}

// UnexpectedNoneAggregateError is returned when an aggregate-required
// entry point is called with AggregateNone.
type UnexpectedNoneAggregateError struct{}

func (e *UnexpectedNoneAggregateError) Error() string {
	return "internal error: unexpected aggregate request for None aggregate"
}
