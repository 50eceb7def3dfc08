package predicate

import "testing"

func TestFieldColumnSetOps(t *testing.T) {
	a := NewFieldColumnSet("f1", "f2")
	b := NewFieldColumnSet("f2", "f3")

	if !a.Union(b).Equal(NewFieldColumnSet("f1", "f2", "f3")) {
		t.Fatalf("union mismatch: %v", a.Union(b).Sorted())
	}
	if !a.Intersect(b).Equal(NewFieldColumnSet("f2")) {
		t.Fatalf("intersect mismatch: %v", a.Intersect(b).Sorted())
	}
	if !a.Without("f1").Equal(NewFieldColumnSet("f2")) {
		t.Fatalf("without mismatch: %v", a.Without("f1").Sorted())
	}
}

func TestPredicateIsEmpty(t *testing.T) {
	if !New().IsEmpty() {
		t.Fatalf("expected a freshly constructed predicate to be empty")
	}
	if New().WithExpr(Bool(true)).IsEmpty() {
		t.Fatalf("expected a predicate with an expression to be non-empty")
	}
	if New().WithRange(0, 100).IsEmpty() {
		t.Fatalf("expected a predicate with a time range to be non-empty")
	}
}

func TestShouldIncludeField(t *testing.T) {
	p := New()
	if !p.ShouldIncludeField("anything") {
		t.Fatalf("an unrestricted predicate should include every field")
	}
	p = p.WithFieldColumns([]string{"f1"})
	if !p.ShouldIncludeField("f1") {
		t.Fatalf("expected f1 to be included")
	}
	if p.ShouldIncludeField("f2") {
		t.Fatalf("expected f2 to be excluded")
	}
}

func TestValueRewriteExtractsToSideChannel(t *testing.T) {
	e := Eq(Column{Name: ValueColumn}, Literal{Value: int64(42)})
	p := New().WithExpr(e)

	got, err := normalizePredicate("table", testSchema(), p)
	if err != nil {
		t.Fatalf("normalizePredicate: %v", err)
	}
	if len(got.ValueExprs) != 1 {
		t.Fatalf("expected the _value expr extracted to the side channel, got %v", got.ValueExprs)
	}
	if len(got.Exprs) != 0 {
		t.Fatalf("expected the substituted literal true to be dropped, got %v", got.Exprs)
	}
}

func TestSimplifyRunsToFixpoint(t *testing.T) {
	// (true AND (false OR true)) should fully collapse to true in two passes.
	e := And(Bool(true), Or(Bool(false), Bool(true)))
	once, err := simplify(e)
	if err != nil {
		t.Fatalf("simplify: %v", err)
	}
	twice, err := simplify(once)
	if err != nil {
		t.Fatalf("simplify: %v", err)
	}
	if !IsLiteralBool(twice, true) {
		t.Fatalf("expected fixpoint to be literal true, got %v", twice)
	}
}
