// Package queryplan compiles InfluxRPC-shaped queries (table name
// enumeration, tag key/value enumeration, field enumeration, filtered and
// grouped time-series reads, and window-aggregate reads) into a logical
// plan tree over a set of chunks, without executing that plan — the
// executor that runs a logical plan is an external collaborator.
package queryplan

// ChunkID identifies a chunk within the scope of one planning call.
type ChunkID int64

// PredicateMatch is the result of testing a predicate against a chunk's
// metadata alone, without scanning the chunk's rows.
type PredicateMatch int

const (
	// PredicateMatchUnknown means metadata alone cannot decide whether any
	// row matches; a full scan plan is required.
	PredicateMatchUnknown PredicateMatch = iota
	// PredicateMatchZero means metadata proves no row matches.
	PredicateMatchZero
	// PredicateMatchAtLeastOneNonNullField means metadata proves at least
	// one row has a non-null field value, satisfying table/tag-key/tag-value
	// existence checks without a scan.
	PredicateMatchAtLeastOneNonNullField
)

func (m PredicateMatch) String() string {
	switch m {
	case PredicateMatchZero:
		return "Zero"
	case PredicateMatchAtLeastOneNonNullField:
		return "AtLeastOneNonNullField"
	default:
		return "Unknown"
	}
}

// TagSelection restricts ColumnNames to a subset of a chunk's tag columns.
type TagSelection struct {
	All   bool
	Names []string
}

// AllTags selects every tag column.
var AllTags = TagSelection{All: true}
