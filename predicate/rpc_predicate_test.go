package predicate

import (
	"strings"
	"testing"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/schema"
)

func testSchema() schema.Schema {
	return schema.New([]catalog.Column{
		{Name: "t1", ColumnType: catalog.ColumnTypeTag},
		{Name: "t2", ColumnType: catalog.ColumnTypeTag},
		{Name: "f1", ColumnType: catalog.ColumnTypeFieldInteger},
		{Name: "f2", ColumnType: catalog.ColumnTypeFieldInteger},
	})
}

func TestNormalizePredicateFieldRewrite(t *testing.T) {
	p := New().WithExpr(Eq(Column{Name: FieldColumn}, Str("f1")))
	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	want := NewFieldColumnSet("f1")
	if !got.FieldColumns.Equal(want) {
		t.Fatalf("field columns = %v, want %v", got.FieldColumns.Sorted(), want.Sorted())
	}
	if len(got.Exprs) != 0 {
		t.Fatalf("expected exprs to be emptied out, got %v", got.Exprs)
	}
}

func TestNormalizePredicateFieldRewriteMultiField(t *testing.T) {
	p := New().WithExpr(Or(
		Eq(Column{Name: FieldColumn}, Str("f1")),
		Eq(Column{Name: FieldColumn}, Str("f2")),
	))
	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	want := NewFieldColumnSet("f1", "f2")
	if !got.FieldColumns.Equal(want) {
		t.Fatalf("field columns = %v, want %v", got.FieldColumns.Sorted(), want.Sorted())
	}
}

func TestNormalizePredicateFieldNonExistentField(t *testing.T) {
	p := New().WithExpr(Eq(Column{Name: FieldColumn}, Str("not_a_field")))
	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	if got.FieldColumns == nil || len(got.FieldColumns) != 0 {
		t.Fatalf("expected an empty, non-nil field set, got %v", got.FieldColumns)
	}
}

func TestNormalizePredicateFieldRewriteMultiFieldUnsupported(t *testing.T) {
	p := New().WithExpr(Or(
		Eq(Column{Name: "t1"}, Str("my_awesome_tag_value")),
		Eq(Column{Name: FieldColumn}, Str("f2")),
	))
	_, err := normalizePredicate("table", testSchema(), p)
	if err == nil || !strings.Contains(err.Error(), "unsupported _field predicate") {
		t.Fatalf("expected an unsupported _field predicate error, got %v", err)
	}
}

func TestNormalizePredicateFieldRewriteNotEq(t *testing.T) {
	p := New().WithExpr(NotEqExpr(Column{Name: FieldColumn}, Str("f1")))
	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	want := NewFieldColumnSet("f2")
	if !got.FieldColumns.Equal(want) {
		t.Fatalf("field columns = %v, want %v", got.FieldColumns.Sorted(), want.Sorted())
	}
}

func TestNormalizePredicateFieldRewriteFieldMultiExpressions(t *testing.T) {
	p := New().
		WithExpr(Eq(Column{Name: FieldColumn}, Str("f1"))).
		WithExpr(NotEqExpr(Column{Name: FieldColumn}, Str("f2")))
	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	want := NewFieldColumnSet("f1")
	if !got.FieldColumns.Equal(want) {
		t.Fatalf("field columns = %v, want %v", got.FieldColumns.Sorted(), want.Sorted())
	}
}

type fakeMeta struct {
	schemas map[string]schema.Schema
}

func (m fakeMeta) TableNames() []string {
	names := make([]string, 0, len(m.schemas))
	for n := range m.schemas {
		names = append(names, n)
	}
	return names
}

func (m fakeMeta) TableSchema(table string) (schema.Schema, bool) {
	s, ok := m.schemas[table]
	return s, ok
}

func TestTablePredicatesMeasurementFoldsToEmptyOrFalse(t *testing.T) {
	meta := fakeMeta{schemas: map[string]schema.Schema{
		"h2o": testSchema(),
		"cpu": testSchema(),
	}}
	p := NewInfluxRPCPredicateForTable("h2o", New().WithExpr(Eq(Column{Name: MeasurementColumn}, Str("h2o"))))

	resolved, err := p.TablePredicates(meta)
	if err != nil {
		t.Fatalf("TablePredicates: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Table != "h2o" {
		t.Fatalf("expected exactly the restricted table, got %+v", resolved)
	}
	if len(resolved[0].Predicate.Exprs) != 0 {
		t.Fatalf("expected the true expr to be dropped entirely, got %v", resolved[0].Predicate.Exprs)
	}
}

func TestTablePredicatesMeasurementMismatchFoldsToFalse(t *testing.T) {
	meta := fakeMeta{schemas: map[string]schema.Schema{"cpu": testSchema()}}
	p := NewInfluxRPCPredicateForTable("cpu", New().WithExpr(Eq(Column{Name: MeasurementColumn}, Str("h2o"))))

	resolved, err := p.TablePredicates(meta)
	if err != nil {
		t.Fatalf("TablePredicates: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected one resolved table, got %d", len(resolved))
	}
	if len(resolved[0].Predicate.Exprs) != 1 || !IsLiteralBool(resolved[0].Predicate.Exprs[0], false) {
		t.Fatalf("expected the predicate to fold to a literal false, got %v", resolved[0].Predicate.Exprs)
	}
}

func TestClearTimestampIfMaxRangeDropsFullRange(t *testing.T) {
	p := NewInfluxRPCPredicate(nil, New().WithRange(MinValidTime, MaxValidTime)).ClearTimestampIfMaxRange()
	if p.inner.Range != nil {
		t.Fatalf("expected the max-spanning range to be cleared")
	}
}

func TestClearTimestampIfMaxRangeKeepsPartialRange(t *testing.T) {
	p := NewInfluxRPCPredicate(nil, New().WithRange(0, 100)).ClearTimestampIfMaxRange()
	if p.inner.Range == nil {
		t.Fatalf("expected a partial range to be kept")
	}
}

func TestTablePredicatesClosesOverAllTablesWhenUnrestricted(t *testing.T) {
	meta := fakeMeta{schemas: map[string]schema.Schema{"h2o": testSchema(), "cpu": testSchema()}}
	p := NewInfluxRPCPredicate(nil, New())
	resolved, err := p.TablePredicates(meta)
	if err != nil {
		t.Fatalf("TablePredicates: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected every table to be resolved, got %d", len(resolved))
	}
}
