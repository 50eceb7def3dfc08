package predicate

// rewriteMeasurementReferences replaces every reference to
// MeasurementColumn in e with the literal table name, so predicates like
// `_measurement = "foo" OR tag1 = "bar"` can be pushed down per-table.
func rewriteMeasurementReferences(tableName string, e Expr) (Expr, error) {
	return Transform(e, func(n Expr) (Expr, error) {
		if c, ok := n.(Column); ok && c.Name == MeasurementColumn {
			return Str(tableName), nil
		}
		return n, nil
	})
}
