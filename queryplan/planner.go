package queryplan

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/predicate"
	"github.com/chronodb/chronodb/schema"
)

func tagColumnType() catalog.ColumnType { return catalog.ColumnTypeTag }

// concurrentTableJobs bounds how many tables are planned concurrently.
const concurrentTableJobs = 10

// Planner compiles InfluxRPC query shapes into logical plan trees.
type Planner struct{}

// New returns a Planner. It carries no state; every method is a pure
// function of its arguments plus whatever QueryDatabase/QueryChunk return.
func New() *Planner {
	return &Planner{}
}

type tableChunks struct {
	Table     string
	Schema    schema.Schema
	Predicate predicate.Predicate
	Chunks    []QueryChunk
}

// tableChunkStream resolves rp against every table it applies to and
// fetches each table's candidate chunks with bounded concurrency,
// ordering each table's chunks with the most recently ingested first.
func (p *Planner) tableChunkStream(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate) ([]tableChunks, error) {
	resolved, err := rp.TablePredicates(db)
	if err != nil {
		return nil, err
	}

	results := make([]tableChunks, len(resolved))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrentTableJobs)

	for i, tp := range resolved {
		i, tp := i, tp
		g.Go(func() error {
			chunks, err := db.Chunks(gctx, tp.Table, tp.Predicate)
			if err != nil {
				if errors.Is(err, ErrTableNotFound) {
					return &TableRemovedError{TableName: tp.Table}
				}
				return &GettingChunksError{TableName: tp.Table, Err: err}
			}
			sort.SliceStable(chunks, func(a, b int) bool { return chunks[a].Order() > chunks[b].Order() })

			sch, _ := db.TableSchema(tp.Table)
			results[i] = tableChunks{Table: tp.Table, Schema: sch, Predicate: tp.Predicate, Chunks: chunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanAndFilter(table string, chunks []QueryChunk, pred predicate.Predicate) Node {
	var n Node = ScanNode{Table: table, Chunks: chunks}
	if !pred.IsEmpty() {
		n = FilterNode{Input: n, Predicate: pred}
	}
	return n
}

// TableNames yields the set of tables with at least one matching row.
func (p *Planner) TableNames(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate) (*StringSetResult, error) {
	rp = rp.ClearTimestampIfMaxRange()
	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	result := &StringSetResult{Known: predicate.NewStringSet()}
	for _, tc := range tcs {
		included := false
		var needsPlan []QueryChunk
		for _, c := range tc.Chunks {
			if c.HasDeletePredicate() {
				needsPlan = append(needsPlan, c)
				continue
			}
			match, err := c.ApplyPredicate(ctx, tc.Predicate)
			if err != nil {
				return nil, &CheckingChunkPredicateError{ChunkID: c.ID(), Err: err}
			}
			switch match {
			case PredicateMatchAtLeastOneNonNullField:
				included = true
			case PredicateMatchUnknown:
				needsPlan = append(needsPlan, c)
			case PredicateMatchZero:
				// does not participate
			}
			if included {
				break
			}
		}
		if included {
			result.Known[tc.Table] = struct{}{}
			continue
		}
		if len(needsPlan) == 0 {
			continue
		}
		fieldCols := tc.Schema.FieldNames()
		exprs := make([]ProjectExpr, len(fieldCols))
		for i, f := range fieldCols {
			exprs[i] = ProjectExpr{Name: f}
		}
		plan := NonNullCheckerNode{
			TableName: tc.Table,
			Input: ProjectNode{
				Input: scanAndFilter(tc.Table, needsPlan, tc.Predicate),
				Exprs: exprs,
			},
		}
		result.Plans = append(result.Plans, plan)
	}
	return result, nil
}

// TagKeys yields the set of tag column names with at least one non-null
// row under the predicate.
func (p *Planner) TagKeys(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate) (*StringSetResult, error) {
	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	result := &StringSetResult{Known: predicate.NewStringSet()}
	for _, tc := range tcs {
		if tc.Predicate.IsEmpty() {
			for _, name := range tc.Schema.TagNames() {
				result.Known[name] = struct{}{}
			}
			continue
		}

		var needsPlan []QueryChunk
		for _, c := range tc.Chunks {
			if c.HasDeletePredicate() {
				needsPlan = append(needsPlan, c)
				continue
			}
			names, ok, err := c.ColumnNames(ctx, tc.Predicate, AllTags)
			if err != nil {
				return nil, &CheckingChunkPredicateError{ChunkID: c.ID(), Err: err}
			}
			if ok {
				for n := range names {
					result.Known[n] = struct{}{}
				}
				continue
			}
			needsPlan = append(needsPlan, c)
		}
		if len(needsPlan) == 0 {
			continue
		}

		tagCols := tc.Schema.TagNames()
		exprs := make([]ProjectExpr, len(tagCols))
		for i, t := range tagCols {
			exprs[i] = ProjectExpr{Name: t}
		}
		plan := SchemaPivotNode{
			Input: ProjectNode{
				Input: scanAndFilter(tc.Table, needsPlan, tc.Predicate),
				Exprs: exprs,
			},
		}
		result.Plans = append(result.Plans, plan)
	}
	return result, nil
}

// TagValues returns the distinct non-null values of tagName across every
// matching row.
func (p *Planner) TagValues(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate, tagName string) (*StringSetResult, error) {
	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	result := &StringSetResult{Known: predicate.NewStringSet()}
	for _, tc := range tcs {
		if !tc.Schema.HasColumn(tagName) {
			continue
		}
		columnType, _ := tc.Schema.ColumnType(tagName)
		if columnType != tagColumnType() {
			return nil, &InvalidTagColumnError{TagName: tagName}
		}

		var needsPlan []QueryChunk
		for _, c := range tc.Chunks {
			if c.HasDeletePredicate() {
				needsPlan = append(needsPlan, c)
				continue
			}
			values, ok, err := c.ColumnValues(ctx, tagName, tc.Predicate)
			if err != nil {
				return nil, &CheckingChunkPredicateError{ChunkID: c.ID(), Err: err}
			}
			if ok {
				for v := range values {
					result.Known[v] = struct{}{}
				}
				continue
			}
			needsPlan = append(needsPlan, c)
		}
		if len(needsPlan) == 0 {
			continue
		}

		plan := ProjectNode{
			Input: FilterNode{
				Input: ProjectNode{
					Input: scanAndFilter(tc.Table, needsPlan, tc.Predicate),
					Exprs: []ProjectExpr{{Name: tagName}},
				},
				Predicate: predicate.New().WithExpr(predicate.IsNotNull{Expr: predicate.Column{Name: tagName}}),
			},
			Exprs: []ProjectExpr{{Name: tagName}},
		}
		result.Plans = append(result.Plans, plan)
	}
	return result, nil
}

// FieldColumns returns the names, types and most-recent-timestamp of the
// field columns in the match.
func (p *Planner) FieldColumns(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate) (*FieldColumnsResult, error) {
	rp = rp.ClearTimestampIfMaxRange()
	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	result := &FieldColumnsResult{}
	for _, tc := range tcs {
		if tc.Predicate.IsEmpty() {
			for _, col := range tc.Schema.Columns() {
				if col.ColumnType.IsField() {
					result.Known = append(result.Known, FieldColumnInfo{Name: col.Name, ColumnType: col.ColumnType, LastTimestamp: 0})
				}
			}
			continue
		}

		fieldCols := tc.Schema.FieldNames()
		exprs := make([]ProjectExpr, 0, len(fieldCols)+1)
		for _, f := range fieldCols {
			exprs = append(exprs, ProjectExpr{Name: f})
		}
		exprs = append(exprs, ProjectExpr{Name: schema.TimeColumnName})

		plan := ProjectNode{
			Input: scanAndFilter(tc.Table, tc.Chunks, tc.Predicate),
			Exprs: exprs,
		}
		result.Plans = append(result.Plans, plan)
	}
	return result, nil
}

func fieldExprs(sch schema.Schema, pred predicate.Predicate) []ProjectExpr {
	fields := sch.FieldNames()
	exprs := make([]ProjectExpr, 0, len(fields))
	for _, f := range fields {
		if !pred.ShouldIncludeField(f) {
			continue
		}
		exprs = append(exprs, ProjectExpr{Name: f, Expr: fieldCaseExpr(f, pred.ValueExprs)})
	}
	return exprs
}

// fieldCaseExpr wraps a field column reference in the CASE WHEN guard
// built from the predicate's OR-reduced value expressions, or returns a
// bare column reference if there are none.
func fieldCaseExpr(field string, valueExprs []predicate.Expr) predicate.Expr {
	if len(valueExprs) == 0 {
		return predicate.Column{Name: field}
	}
	var guard predicate.Expr
	for _, v := range valueExprs {
		replaced := replaceValueColumn(v, field)
		if guard == nil {
			guard = replaced
		} else {
			guard = predicate.Or(guard, replaced)
		}
	}
	return predicate.CaseWhen{When: guard, Then: predicate.Column{Name: field}}
}

func replaceValueColumn(e predicate.Expr, field string) predicate.Expr {
	result, _ := predicate.Transform(e, func(n predicate.Expr) (predicate.Expr, error) {
		if c, ok := n.(predicate.Column); ok && c.Name == predicate.ValueColumn {
			return predicate.Column{Name: field}, nil
		}
		return n, nil
	})
	return result
}

// ReadFilter builds the time-series plan: Scan -> Filter -> Sort(tags,
// time) -> Project(tags, fields, time).
func (p *Planner) ReadFilter(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate) ([]SeriesSetPlan, error) {
	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	plans := make([]SeriesSetPlan, 0, len(tcs))
	for _, tc := range tcs {
		plans = append(plans, p.readFilterPlan(tc))
	}
	return plans, nil
}

func (p *Planner) readFilterPlan(tc tableChunks) SeriesSetPlan {
	tagCols := tc.Schema.TagNames()
	sortCols := append(append([]string(nil), tagCols...), schema.TimeColumnName)

	exprs := make([]ProjectExpr, 0, len(tagCols)+len(tc.Schema.FieldNames())+1)
	for _, t := range tagCols {
		exprs = append(exprs, ProjectExpr{Name: t})
	}
	exprs = append(exprs, fieldExprs(tc.Schema, tc.Predicate)...)
	exprs = append(exprs, ProjectExpr{Name: schema.TimeColumnName})

	plan := ProjectNode{
		Input: SortNode{
			Input:   scanAndFilter(tc.Table, tc.Chunks, tc.Predicate),
			Columns: sortCols,
		},
		Exprs: exprs,
	}
	return SeriesSetPlan{Table: tc.Table, Plan: plan, TagColumns: tagCols}
}

// ReadGroup builds the aggregated-series plan. For AggregateNone it
// delegates to ReadFilter.
func (p *Planner) ReadGroup(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate, agg Aggregate, groupColumns []string) ([]SeriesSetPlan, error) {
	if err := validateGroupColumns(groupColumns); err != nil {
		return nil, err
	}

	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	plans := make([]SeriesSetPlan, 0, len(tcs))
	for _, tc := range tcs {
		if agg == AggregateNone {
			plans = append(plans, p.readFilterPlan(tc))
			continue
		}
		for _, g := range groupColumns {
			if g != "" && !tc.Schema.HasColumn(g) {
				return nil, &GroupColumnNotFoundError{ColumnName: g}
			}
		}
		plans = append(plans, p.readGroupPlan(tc, agg))
	}
	return plans, nil
}

func validateGroupColumns(groupColumns []string) error {
	seen := make(map[string]struct{}, len(groupColumns))
	for _, g := range groupColumns {
		if _, ok := seen[g]; ok {
			return &DuplicateGroupColumnError{ColumnName: g}
		}
		seen[g] = struct{}{}
	}
	return nil
}

func (p *Planner) readGroupPlan(tc tableChunks, agg Aggregate) SeriesSetPlan {
	tagCols := tc.Schema.TagNames()
	aggExprs, fieldCols := buildAggExprs(tc.Schema, tc.Predicate, agg)

	var inner Node = AggregateNode{
		Input:        scanAndFilter(tc.Table, tc.Chunks, tc.Predicate),
		GroupColumns: tagCols,
		AggExprs:     aggExprs,
	}
	if len(tagCols) > 0 {
		exprs := make([]ProjectExpr, 0, len(tagCols)+len(aggExprs))
		for _, t := range tagCols {
			exprs = append(exprs, ProjectExpr{Name: t})
		}
		for _, a := range aggExprs {
			exprs = append(exprs, ProjectExpr{Name: a.Name})
		}
		inner = SortNode{Input: ProjectNode{Input: inner, Exprs: exprs}, Columns: tagCols}
	}
	if agg == AggregateCount {
		inner = CastNode{Input: inner, Columns: fieldCols}
	}

	return SeriesSetPlan{Table: tc.Table, Plan: inner, TagColumns: tagCols}
}

// ReadWindowAggregate builds the window-bucketed aggregate plan.
func (p *Planner) ReadWindowAggregate(ctx context.Context, db QueryDatabase, rp predicate.InfluxRPCPredicate, agg Aggregate, window WindowDuration) ([]SeriesSetPlan, error) {
	if agg == AggregateNone {
		return nil, &UnexpectedNoneAggregateError{}
	}

	tcs, err := p.tableChunkStream(ctx, db, rp)
	if err != nil {
		return nil, err
	}

	plans := make([]SeriesSetPlan, 0, len(tcs))
	for _, tc := range tcs {
		plans = append(plans, p.readWindowAggregatePlan(tc, agg, window))
	}
	return plans, nil
}

func (p *Planner) readWindowAggregatePlan(tc tableChunks, agg Aggregate, window WindowDuration) SeriesSetPlan {
	tagCols := tc.Schema.TagNames()
	groupCols := append(append([]string(nil), tagCols...), schema.TimeColumnName)

	aggExprs, fieldCols := buildAggExprs(tc.Schema, tc.Predicate, agg)

	var inner Node = SortNode{
		Input: AggregateNode{
			Input:        scanAndFilter(tc.Table, tc.Chunks, tc.Predicate),
			GroupColumns: groupCols,
			AggExprs:     aggExprs,
		},
		Columns: groupCols,
	}
	if agg == AggregateCount {
		inner = CastNode{Input: inner, Columns: fieldCols}
	}

	return SeriesSetPlan{Table: tc.Table, Plan: inner, TagColumns: tagCols}
}

// buildAggExprs builds the aggregate expression list for a field-bearing
// aggregate, per the Sum/Count/Mean one-to-one mapping and the
// First/Last/Min/Max selector mapping (value + a per-field time_<field>
// column via TimeAggregateFor). It returns the field names the Count-cast
// rule should apply to.
func buildAggExprs(sch schema.Schema, pred predicate.Predicate, agg Aggregate) ([]AggExpr, []string) {
	var aggExprs []AggExpr
	var fieldCols []string

	for _, f := range sch.FieldNames() {
		if !pred.ShouldIncludeField(f) {
			continue
		}
		fieldCols = append(fieldCols, f)
		if !agg.IsSelector() {
			aggExprs = append(aggExprs, AggExpr{Name: f, Column: f, Agg: agg})
			continue
		}
		aggExprs = append(aggExprs, AggExpr{Name: f, Column: f, Agg: agg})
		timeColumnName := schema.TimeColumnName + "_" + f
		aggExprs = append(aggExprs, AggExpr{Name: timeColumnName, Column: schema.TimeColumnName, Agg: TimeAggregateFor(agg)})
	}
	return aggExprs, fieldCols
}
