package queryplan

import (
	"context"
	"errors"

	"github.com/chronodb/chronodb/predicate"
	"github.com/chronodb/chronodb/schema"
)

// ErrTableNotFound is returned by QueryDatabase.Chunks when the named
// table no longer exists; the planner turns this into a *TableRemovedError.
var ErrTableNotFound = errors.New("queryplan: table not found")

// QueryChunk is one unit of chunk-level storage the planner reasons
// about: its own schema, row-order hint, delete-predicate status, and the
// cheap metadata-only operations the planner tries before falling back to
// a full scan plan.
type QueryChunk interface {
	ID() ChunkID
	Table() string
	Schema() schema.Schema

	// Order ranks chunks within a table; chunks are scanned in descending
	// Order so the most recently ingested (and so most likely to be in a
	// hot cache) are read first.
	Order() int

	// HasDeletePredicate reports whether this chunk has unapplied
	// tombstones, forcing a full scan regardless of what chunk metadata
	// alone could otherwise decide.
	HasDeletePredicate() bool

	// ApplyPredicate evaluates p against this chunk's metadata only,
	// without reading any rows.
	ApplyPredicate(ctx context.Context, p predicate.Predicate) (PredicateMatch, error)

	// ColumnNames returns the set of column names in selection that have
	// at least one non-null value under p, or nil if metadata alone
	// cannot answer the question.
	ColumnNames(ctx context.Context, p predicate.Predicate, selection TagSelection) (predicate.StringSet, bool, error)

	// ColumnValues returns the set of distinct non-null values of tag
	// under p, or nil if metadata alone cannot answer the question.
	ColumnValues(ctx context.Context, tag string, p predicate.Predicate) (predicate.StringSet, bool, error)
}

// QueryDatabase resolves table schemas (for predicate specialisation) and
// the chunks a per-table predicate applies to.
type QueryDatabase interface {
	predicate.QueryDatabaseMeta

	// Chunks returns the candidate chunks for table under the
	// already-specialised predicate p. It returns an error wrapping
	// ErrTableNotFound if table no longer exists.
	Chunks(ctx context.Context, table string, p predicate.Predicate) ([]QueryChunk, error)
}
