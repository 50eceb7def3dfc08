package predicate

import (
	"github.com/chronodb/chronodb/schema"
)

// StringSet is a set of strings; it is used for both InfluxRPCPredicate's
// table-name restriction and as the alias for FieldColumnSet's
// implementation, since both need the same union/intersect vocabulary.
type StringSet = FieldColumnSet

// NewStringSet builds a StringSet from the given names.
func NewStringSet(names ...string) StringSet {
	return NewFieldColumnSet(names...)
}

// QueryDatabaseMeta is the information TablePredicates needs to resolve an
// InfluxRPCPredicate against the tables it applies to.
type QueryDatabaseMeta interface {
	// TableNames lists every table in the database.
	TableNames() []string
	// TableSchema returns the schema for table, if it exists.
	TableSchema(table string) (schema.Schema, bool)
}

// TablePredicate pairs one resolved table with its per-table normalised
// predicate.
type TablePredicate struct {
	Table     string
	Predicate Predicate
}

// InfluxRPCPredicate is a predicate as received over the Influx RPC
// storage API: an inner Predicate plus an optional restriction to a named
// subset of tables. It must be specialised per table via TablePredicates
// before being pushed to a chunk scan, since it may reference
// MeasurementColumn, FieldColumn or ValueColumn.
type InfluxRPCPredicate struct {
	tableNames *StringSet
	inner      Predicate
}

// NewInfluxRPCPredicate builds a predicate restricted to tableNames (nil
// meaning every table in the database).
func NewInfluxRPCPredicate(tableNames *StringSet, p Predicate) InfluxRPCPredicate {
	return InfluxRPCPredicate{tableNames: tableNames, inner: p}
}

// NewInfluxRPCPredicateForTable builds a predicate restricted to a single
// table.
func NewInfluxRPCPredicateForTable(table string, p Predicate) InfluxRPCPredicate {
	s := NewStringSet(table)
	return NewInfluxRPCPredicate(&s, p)
}

// ClearTimestampIfMaxRange drops the inner predicate's time range if it
// spans the entire valid time domain.
func (rp InfluxRPCPredicate) ClearTimestampIfMaxRange() InfluxRPCPredicate {
	rp.inner = rp.inner.WithClearTimestampIfMaxRange()
	return rp
}

// TableNames returns the table-name restriction, or nil if this predicate
// applies to every table.
func (rp InfluxRPCPredicate) TableNames() *StringSet {
	return rp.tableNames
}

// IsEmpty reports whether this predicate matches every row of every table.
func (rp InfluxRPCPredicate) IsEmpty() bool {
	return rp.tableNames == nil && rp.inner.IsEmpty()
}

// TablePredicates resolves this predicate against every table it applies
// to, normalising the inner predicate's _measurement/_field/_value
// references for each one. A table the restriction names but that meta
// does not know about is still returned, paired with the inner predicate
// unchanged, since there is no schema to specialise it against.
func (rp InfluxRPCPredicate) TablePredicates(meta QueryDatabaseMeta) ([]TablePredicate, error) {
	var tables []string
	if rp.tableNames != nil {
		tables = rp.tableNames.Sorted()
	} else {
		tables = meta.TableNames()
	}

	out := make([]TablePredicate, 0, len(tables))
	for _, table := range tables {
		sch, ok := meta.TableSchema(table)
		var p Predicate
		if ok {
			var err error
			p, err = normalizePredicate(table, sch, rp.inner)
			if err != nil {
				return nil, err
			}
		} else {
			// Unknown table: no schema to specialise against. Pass the
			// predicate through unchanged, same as a request for a
			// measurement's fields that doesn't exist.
			p = rp.inner
		}
		out = append(out, TablePredicate{Table: table, Predicate: p})
	}
	return out, nil
}

// normalizePredicate runs the six-stage rewrite pipeline on every
// top-level expression: measurement rewrite, value rewrite, field projection
// rewrite, domain simplification (twice, to reach a fixpoint), and
// literal-true removal.
func normalizePredicate(tableName string, sch schema.Schema, p Predicate) (Predicate, error) {
	allFields := NewFieldColumnSet(sch.FieldNames()...)
	fpr := newFieldProjectionRewriter(allFields)

	var valueExprs []Expr
	newExprs := make([]Expr, 0, len(p.Exprs))

	for _, e := range p.Exprs {
		e, err := rewriteMeasurementReferences(tableName, e)
		if err != nil {
			return Predicate{}, err
		}
		e, err = rewriteFieldValueReferences(&valueExprs, e)
		if err != nil {
			return Predicate{}, err
		}
		e, err = fpr.rewriteFieldExprs(e)
		if err != nil {
			return Predicate{}, err
		}
		// Simplify twice: folding a child (e.g. the literal true left
		// behind by a field/value rewrite) can expose a new fold at its
		// parent that a single pass would miss.
		e, err = simplify(e)
		if err != nil {
			return Predicate{}, err
		}
		e, err = simplify(e)
		if err != nil {
			return Predicate{}, err
		}
		if IsLiteralBool(e, true) {
			continue
		}
		newExprs = append(newExprs, e)
	}

	result := p
	result.Exprs = newExprs
	result.ValueExprs = valueExprs
	result = fpr.addToPredicate(result)
	return result, nil
}
