package queryplan

import (
	"context"
	"testing"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/predicate"
	"github.com/chronodb/chronodb/schema"
)

type fakeChunk struct {
	id                  ChunkID
	table               string
	sch                 schema.Schema
	order               int
	hasDeletePredicate  bool
	applyPredicateMatch PredicateMatch
}

func (c *fakeChunk) ID() ChunkID           { return c.id }
func (c *fakeChunk) Table() string         { return c.table }
func (c *fakeChunk) Schema() schema.Schema { return c.sch }
func (c *fakeChunk) Order() int            { return c.order }
func (c *fakeChunk) HasDeletePredicate() bool { return c.hasDeletePredicate }

func (c *fakeChunk) ApplyPredicate(ctx context.Context, p predicate.Predicate) (PredicateMatch, error) {
	return c.applyPredicateMatch, nil
}

func (c *fakeChunk) ColumnNames(ctx context.Context, p predicate.Predicate, sel TagSelection) (predicate.StringSet, bool, error) {
	return nil, false, nil
}

func (c *fakeChunk) ColumnValues(ctx context.Context, tag string, p predicate.Predicate) (predicate.StringSet, bool, error) {
	return nil, false, nil
}

type fakeDB struct {
	schemas map[string]schema.Schema
	chunks  map[string][]QueryChunk
}

func (d fakeDB) TableNames() []string {
	names := make([]string, 0, len(d.schemas))
	for n := range d.schemas {
		names = append(names, n)
	}
	return names
}

func (d fakeDB) TableSchema(table string) (schema.Schema, bool) {
	s, ok := d.schemas[table]
	return s, ok
}

func (d fakeDB) Chunks(ctx context.Context, table string, p predicate.Predicate) ([]QueryChunk, error) {
	return d.chunks[table], nil
}

func testTableSchema() schema.Schema {
	return schema.New([]catalog.Column{
		{Name: "t1", ColumnType: catalog.ColumnTypeTag},
		{Name: "f1", ColumnType: catalog.ColumnTypeFieldInteger},
	})
}

func TestTableNamesFastPathIncludesWithoutPlanning(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{
		schemas: map[string]schema.Schema{"cpu": sch},
		chunks: map[string][]QueryChunk{
			"cpu": {&fakeChunk{id: 1, table: "cpu", sch: sch, applyPredicateMatch: PredicateMatchAtLeastOneNonNullField}},
		},
	}
	planner := New()
	result, err := planner.TableNames(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()))
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	if !result.Known.Contains("cpu") {
		t.Fatalf("expected cpu in known set, got %v", result.Known.Sorted())
	}
	if len(result.Plans) != 0 {
		t.Fatalf("expected no plans needed, got %d", len(result.Plans))
	}
}

func TestTableNamesZeroMatchSkipsTable(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{
		schemas: map[string]schema.Schema{"cpu": sch},
		chunks: map[string][]QueryChunk{
			"cpu": {&fakeChunk{id: 1, table: "cpu", sch: sch, applyPredicateMatch: PredicateMatchZero}},
		},
	}
	planner := New()
	result, err := planner.TableNames(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()))
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	if result.Known.Contains("cpu") {
		t.Fatalf("expected cpu excluded from known set")
	}
	if len(result.Plans) != 0 {
		t.Fatalf("expected no plan for a table with zero matching chunks, got %d", len(result.Plans))
	}
}

func TestTableNamesUnknownMatchEmitsPlan(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{
		schemas: map[string]schema.Schema{"cpu": sch},
		chunks: map[string][]QueryChunk{
			"cpu": {&fakeChunk{id: 1, table: "cpu", sch: sch, applyPredicateMatch: PredicateMatchUnknown}},
		},
	}
	planner := New()
	result, err := planner.TableNames(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()))
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	if result.Known.Contains("cpu") {
		t.Fatalf("table should not be known-included from an Unknown match")
	}
	if len(result.Plans) != 1 {
		t.Fatalf("expected exactly one plan, got %d", len(result.Plans))
	}
}

func TestTagKeysEmptyPredicateReadsSchema(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{schemas: map[string]schema.Schema{"cpu": sch}, chunks: map[string][]QueryChunk{}}
	planner := New()
	result, err := planner.TagKeys(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()))
	if err != nil {
		t.Fatalf("TagKeys: %v", err)
	}
	if !result.Known.Contains("t1") {
		t.Fatalf("expected t1 from schema fast path, got %v", result.Known.Sorted())
	}
}

func TestReadGroupDuplicateGroupColumn(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{schemas: map[string]schema.Schema{"cpu": sch}, chunks: map[string][]QueryChunk{"cpu": nil}}
	planner := New()
	_, err := planner.ReadGroup(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()), AggregateSum, []string{"t1", "t1"})
	if err == nil {
		t.Fatalf("expected a duplicate group column error")
	}
	if _, ok := err.(*DuplicateGroupColumnError); !ok {
		t.Fatalf("expected *DuplicateGroupColumnError, got %T", err)
	}
}

func TestReadGroupCountAggregateCastsEveryField(t *testing.T) {
	sch := testTableSchema()
	db := fakeDB{
		schemas: map[string]schema.Schema{"cpu": sch},
		chunks:  map[string][]QueryChunk{"cpu": {&fakeChunk{id: 1, table: "cpu", sch: sch}}},
	}
	planner := New()
	plans, err := planner.ReadGroup(context.Background(), db, predicate.NewInfluxRPCPredicate(nil, predicate.New()), AggregateCount, nil)
	if err != nil {
		t.Fatalf("ReadGroup: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected one plan, got %d", len(plans))
	}
	cast, ok := plans[0].Plan.(CastNode)
	if !ok {
		t.Fatalf("expected the outermost node to be a CastNode for Count, got %T", plans[0].Plan)
	}
	if len(cast.Columns) != 1 || cast.Columns[0] != "f1" {
		t.Fatalf("expected the cast to cover every field column, got %v", cast.Columns)
	}
}

func TestSelectorAggregateAddsPerFieldTimeColumn(t *testing.T) {
	sch := testTableSchema()
	aggExprs, fieldCols := buildAggExprs(sch, predicate.New(), AggregateMax)
	if len(fieldCols) != 1 || fieldCols[0] != "f1" {
		t.Fatalf("expected one field column, got %v", fieldCols)
	}
	if len(aggExprs) != 2 {
		t.Fatalf("expected a value expr and a time expr per field, got %d", len(aggExprs))
	}
	if aggExprs[1].Name != "time_f1" || aggExprs[1].Agg != AggregateMax {
		t.Fatalf("expected a time_f1 column aggregated with MAX, got %+v", aggExprs[1])
	}
}

func TestSelectorAggregateMinUsesMinForTimeColumn(t *testing.T) {
	sch := testTableSchema()
	aggExprs, _ := buildAggExprs(sch, predicate.New(), AggregateMin)
	if aggExprs[1].Agg != AggregateMin {
		t.Fatalf("expected MIN selector to use MIN for its time column, got %v", aggExprs[1].Agg)
	}
}

func TestReadWindowAggregateRejectsNoneAggregate(t *testing.T) {
	planner := New()
	_, err := planner.ReadWindowAggregate(context.Background(), fakeDB{}, predicate.NewInfluxRPCPredicate(nil, predicate.New()), AggregateNone, WindowDuration{})
	if _, ok := err.(*UnexpectedNoneAggregateError); !ok {
		t.Fatalf("expected *UnexpectedNoneAggregateError, got %v", err)
	}
}
