package predicate

// rewriteFieldValueReferences extracts e whole into *valueExprs if it
// references ValueColumn anywhere, replacing it with a literal true in the
// expression list. The extracted expressions are later applied per
// selected field column as a CASE WHEN guard, OR-reduced across all of
// them; see fieldCaseExpr in the query planner's read_filter build.
func rewriteFieldValueReferences(valueExprs *[]Expr, e Expr) (Expr, error) {
	if !ContainsColumn(e, ValueColumn) {
		return e, nil
	}
	*valueExprs = append(*valueExprs, e)
	return Bool(true), nil
}
