package footprints

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// ParseCriteria builds structured Criteria from a SQL-style filter clause,
// for callers that take filters as text (CLI flags, ad-hoc admin queries):
//
//	c, err := ParseCriteria("authorId = 7 AND status = 'draft' ORDER BY title DESC LIMIT 10")
//
// Only AND-ed equality comparisons are supported, matching the equality
// semantics of Criteria.Where. Anything else (OR, ranges, subqueries) is
// rejected rather than silently approximated.
func ParseCriteria(clause string) (Criteria, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return Criteria{}, nil
	}

	stmt, err := sqlparser.Parse("select * from records where " + clause)
	if err != nil {
		return Criteria{}, WithContext(ErrInvalidData, map[string]interface{}{
			"clause": clause,
			"reason": err.Error(),
		})
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return Criteria{}, WithContext(ErrInvalidData, map[string]interface{}{
			"clause": clause,
			"reason": "not a filter clause",
		})
	}

	var c Criteria

	if sel.Where != nil {
		where := make(map[string]interface{})
		if err := collectEqualities(sel.Where.Expr, where); err != nil {
			return Criteria{}, err
		}
		c.Where = where
	}

	if len(sel.OrderBy) > 0 {
		if len(sel.OrderBy) > 1 {
			return Criteria{}, WithContext(ErrInvalidData, map[string]interface{}{
				"clause": clause,
				"reason": "only one ORDER BY attribute is supported",
			})
		}
		order := sel.OrderBy[0]
		col, ok := order.Expr.(*sqlparser.ColName)
		if !ok {
			return Criteria{}, WithContext(ErrInvalidData, map[string]interface{}{
				"clause": clause,
				"reason": "ORDER BY must name an attribute",
			})
		}
		c.Sort = col.Name.String()
		if order.Direction == sqlparser.DescScr {
			c.Sort += " desc"
		}
	}

	if sel.Limit != nil {
		if sel.Limit.Rowcount != nil {
			n, err := intValue(sel.Limit.Rowcount)
			if err != nil {
				return Criteria{}, err
			}
			c.Limit = n
		}
		if sel.Limit.Offset != nil {
			n, err := intValue(sel.Limit.Offset)
			if err != nil {
				return Criteria{}, err
			}
			c.Skip = n
		}
	}

	return c, nil
}

// collectEqualities walks an AND tree of equality comparisons into a filter map
func collectEqualities(expr sqlparser.Expr, where map[string]interface{}) error {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		if err := collectEqualities(e.Left, where); err != nil {
			return err
		}
		return collectEqualities(e.Right, where)

	case *sqlparser.ComparisonExpr:
		if e.Operator != sqlparser.EqualStr {
			return WithContext(ErrInvalidData, map[string]interface{}{
				"operator": e.Operator,
				"reason":   "only equality comparisons are supported",
			})
		}
		col, ok := e.Left.(*sqlparser.ColName)
		if !ok {
			return WithContext(ErrInvalidData, map[string]interface{}{
				"reason": "comparison must have an attribute on the left",
			})
		}
		value, err := literalValue(e.Right)
		if err != nil {
			return err
		}
		where[col.Name.String()] = value
		return nil

	case *sqlparser.ParenExpr:
		return collectEqualities(e.Expr, where)

	default:
		return WithContext(ErrInvalidData, map[string]interface{}{
			"reason": fmt.Sprintf("unsupported expression %T", expr),
		})
	}
}

// literalValue converts a SQL literal into its Go value
func literalValue(expr sqlparser.Expr) (interface{}, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		if _, isNull := expr.(*sqlparser.NullVal); isNull {
			return nil, nil
		}
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"reason": fmt.Sprintf("unsupported literal %T", expr),
		})
	}

	switch val.Type {
	case sqlparser.StrVal:
		return string(val.Val), nil
	case sqlparser.IntVal:
		n, err := strconv.Atoi(string(val.Val))
		if err != nil {
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"value":  string(val.Val),
				"reason": "invalid integer literal",
			})
		}
		return n, nil
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(val.Val), 64)
		if err != nil {
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"value":  string(val.Val),
				"reason": "invalid float literal",
			})
		}
		return f, nil
	default:
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"reason": fmt.Sprintf("unsupported literal type %v", val.Type),
		})
	}
}

func intValue(expr sqlparser.Expr) (int, error) {
	v, err := literalValue(expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, WithContext(ErrInvalidData, map[string]interface{}{
			"value":  v,
			"reason": "expected an integer",
		})
	}
	return n, nil
}
