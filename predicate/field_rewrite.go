package predicate

import "fmt"

// fieldProjectionRewriter interprets expressions over FieldColumn as a
// column projection rather than a row filter. It is applied once per
// top-level expression in a Predicate; the field sets contributed by each
// expression are intersected together, since the top-level expression
// list is implicitly ANDed.
type fieldProjectionRewriter struct {
	allFields FieldColumnSet
	result    FieldColumnSet
	touched   bool
}

func newFieldProjectionRewriter(allFields FieldColumnSet) *fieldProjectionRewriter {
	return &fieldProjectionRewriter{allFields: allFields}
}

// rewriteFieldExprs rewrites one top-level expression, folding any
// FieldColumn reference into the rewriter's accumulated field set and
// replacing the expression with a literal true. Expressions that do not
// reference FieldColumn at all are returned unchanged.
func (r *fieldProjectionRewriter) rewriteFieldExprs(e Expr) (Expr, error) {
	newExpr, set, err := r.resolve(e)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return newExpr, nil
	}
	if !r.touched {
		r.result = set
		r.touched = true
	} else {
		r.result = r.result.Intersect(set)
	}
	return newExpr, nil
}

// addToPredicate installs the accumulated field set onto p, if this
// rewriter ever saw a FieldColumn reference.
func (r *fieldProjectionRewriter) addToPredicate(p Predicate) Predicate {
	if r.touched {
		p.FieldColumns = r.result
	}
	return p
}

// resolve returns, for a single expression node, its replacement and the
// field set it contributes. A nil set (with a nil error) means e does not
// reference FieldColumn anywhere and should pass through unchanged.
func (r *fieldProjectionRewriter) resolve(e Expr) (Expr, FieldColumnSet, error) {
	b, ok := e.(Binary)
	if !ok {
		if ContainsColumn(e, FieldColumn) {
			return nil, nil, unsupportedFieldPredicateError(e)
		}
		return e, nil, nil
	}

	switch b.Op {
	case OpEq, OpNotEq:
		col, colOK := b.Left.(Column)
		lit, litOK := b.Right.(Literal)
		if !colOK || col.Name != FieldColumn {
			if ContainsColumn(e, FieldColumn) {
				return nil, nil, unsupportedFieldPredicateError(e)
			}
			return e, nil, nil
		}
		name, nameOK := lit.Value.(string)
		if !litOK || !nameOK {
			return nil, nil, unsupportedFieldPredicateError(e)
		}
		if b.Op == OpEq {
			return Bool(true), NewFieldColumnSet(name).Intersect(r.allFields), nil
		}
		return Bool(true), r.allFields.Without(name), nil

	case OpAnd, OpOr:
		if !ContainsColumn(e, FieldColumn) {
			return e, nil, nil
		}
		_, lSet, err := r.resolve(b.Left)
		if err != nil {
			return nil, nil, err
		}
		_, rSet, err := r.resolve(b.Right)
		if err != nil {
			return nil, nil, err
		}
		if lSet == nil || rSet == nil {
			return nil, nil, unsupportedFieldPredicateError(e)
		}
		if b.Op == OpOr {
			return Bool(true), lSet.Union(rSet), nil
		}
		return Bool(true), lSet.Intersect(rSet), nil

	default:
		if ContainsColumn(e, FieldColumn) {
			return nil, nil, unsupportedFieldPredicateError(e)
		}
		return e, nil, nil
	}
}

func unsupportedFieldPredicateError(e Expr) error {
	return fmt.Errorf("unsupported _field predicate: %s", e)
}
