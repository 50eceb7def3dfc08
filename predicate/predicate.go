// Package predicate implements the rewrite pipeline that turns an RPC-level
// predicate — one phrased in terms of the synthetic _measurement, _field
// and _value columns — into a predicate specialised for one table's real
// schema.
package predicate

import (
	"math"
	"sort"
)

// The synthetic column names an RPC predicate may reference. They never
// reach a chunk scan: the normalisation pipeline rewrites every reference
// to one of these away before a Predicate is handed to the query planner.
const (
	MeasurementColumn = "_measurement"
	FieldColumn       = "_field"
	ValueColumn       = "_value"
)

// MinValidTime and MaxValidTime bound the full range of representable
// timestamps. A Predicate's time Range exactly matching this span is
// considered equivalent to no range restriction at all; see
// InfluxRPCPredicate.ClearTimestampIfMaxRange.
const (
	MinValidTime int64 = math.MinInt64
	MaxValidTime int64 = math.MaxInt64
)

// TimeRange restricts a Predicate to rows whose time column falls in
// [Min, Max], inclusive on both ends.
type TimeRange struct {
	Min int64
	Max int64
}

// IsMaxRange reports whether r spans the entire valid time domain.
func (r TimeRange) IsMaxRange() bool {
	return r.Min == MinValidTime && r.Max == MaxValidTime
}

// FieldColumnSet restricts a Predicate to a specific set of field columns,
// as opposed to a nil set (no restriction — include every field). An empty
// but non-nil set restricts to nothing, which arises when a predicate
// names a field that does not exist in the table's schema.
type FieldColumnSet map[string]struct{}

// NewFieldColumnSet builds a FieldColumnSet from the given names.
func NewFieldColumnSet(names ...string) FieldColumnSet {
	s := make(FieldColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is a member of s.
func (s FieldColumnSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns the set of names in either s or other.
func (s FieldColumnSet) Union(other FieldColumnSet) FieldColumnSet {
	out := make(FieldColumnSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// Intersect returns the set of names in both s and other.
func (s FieldColumnSet) Intersect(other FieldColumnSet) FieldColumnSet {
	out := make(FieldColumnSet, len(s))
	for n := range s {
		if other.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Without returns the set of names in s except name.
func (s FieldColumnSet) Without(name string) FieldColumnSet {
	out := make(FieldColumnSet, len(s))
	for n := range s {
		if n != name {
			out[n] = struct{}{}
		}
	}
	return out
}

// Sorted returns the set's members in ascending order.
func (s FieldColumnSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether s and other contain exactly the same names.
func (s FieldColumnSet) Equal(other FieldColumnSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

// Predicate is a predicate already specialised for one table: every
// _measurement/_field/_value reference has been resolved and the
// expression list is ready to push down to a chunk scan.
type Predicate struct {
	// Range restricts matching rows to this time span, if set.
	Range *TimeRange

	// Exprs is the list of top-level boolean expressions; the predicate
	// as a whole is their conjunction.
	Exprs []Expr

	// ValueExprs holds the expressions extracted from references to
	// ValueColumn during normalisation, to be applied per selected field
	// column as a CASE WHEN guard.
	ValueExprs []Expr

	// FieldColumns restricts the predicate to these field columns; nil
	// means no restriction (every field column is a candidate).
	FieldColumns FieldColumnSet
}

// New returns the predicate that matches every row.
func New() Predicate {
	return Predicate{}
}

// WithExpr appends e to the expression list and returns the receiver.
func (p Predicate) WithExpr(e Expr) Predicate {
	p.Exprs = append(append([]Expr(nil), p.Exprs...), e)
	return p
}

// WithRange sets the time range restriction.
func (p Predicate) WithRange(min, max int64) Predicate {
	p.Range = &TimeRange{Min: min, Max: max}
	return p
}

// WithFieldColumns sets the field column restriction.
func (p Predicate) WithFieldColumns(names []string) Predicate {
	p.FieldColumns = NewFieldColumnSet(names...)
	return p
}

// IsEmpty reports whether p matches every row unconditionally.
func (p Predicate) IsEmpty() bool {
	return p.Range == nil && len(p.Exprs) == 0 && len(p.ValueExprs) == 0 && p.FieldColumns == nil
}

// ShouldIncludeField reports whether field should be projected given this
// predicate's FieldColumns restriction.
func (p Predicate) ShouldIncludeField(field string) bool {
	if p.FieldColumns == nil {
		return true
	}
	return p.FieldColumns.Contains(field)
}

// WithClearTimestampIfMaxRange drops Range if it spans the entire valid
// time domain, so downstream planning treats it as unrestricted.
func (p Predicate) WithClearTimestampIfMaxRange() Predicate {
	if p.Range != nil && p.Range.IsMaxRange() {
		p.Range = nil
	}
	return p
}
