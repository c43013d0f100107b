package query

import (
	"fmt"
	"strings"
)

// Parse builds an Expr from a Mongo-shaped query document. The
// top-level map is an implicit $and of its entries, per spec.md §4.A.
func Parse(raw map[string]any) (Expr, error) {
	return parseMap(raw)
}

func parseMap(raw map[string]any) (Expr, error) {
	exprs := make([]Expr, 0, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, "$") {
			e, err := parseTopLevelLogical(k, v)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
			continue
		}
		e, err := parseFieldValue(k, v)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return And{Exprs: exprs}, nil
}

func parseTopLevelLogical(op string, v any) (Expr, error) {
	switch op {
	case "$and", "$or", "$nor":
		arr, ok := v.([]any)
		if !ok {
			return nil, ErrMalformed(op + " requires an array")
		}
		sub := make([]Expr, 0, len(arr))
		for _, item := range arr {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, ErrMalformed(op + " array entries must be documents")
			}
			e, err := parseMap(m)
			if err != nil {
				return nil, err
			}
			sub = append(sub, e)
		}
		switch op {
		case "$and":
			return And{Exprs: sub}, nil
		case "$or":
			return Or{Exprs: sub}, nil
		default:
			return Nor{Exprs: sub}, nil
		}
	case "$not":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, ErrMalformed("$not requires a document")
		}
		e, err := parseMap(m)
		if err != nil {
			return nil, err
		}
		return Not{Expr: e}, nil
	default:
		return nil, ErrUnknownOperator(op)
	}
}

// parseFieldValue builds the Expr for a single "field: value" entry.
func parseFieldValue(path string, v any) (Expr, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Field{Path: path, Op: Eq{Value: v}}, nil
	}
	if !isOperatorDoc(m) {
		// Plain nested document literal: exact-match the sub-document.
		return Field{Path: path, Op: Eq{Value: v}}, nil
	}
	return parseFieldOperators(path, m)
}

func isOperatorDoc(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func parseFieldOperators(path string, m map[string]any) (Expr, error) {
	var ops []Expr
	var regexPattern *string
	var regexOptions string

	for k, v := range m {
		switch k {
		case "$eq":
			ops = append(ops, Field{Path: path, Op: Eq{Value: v}})
		case "$ne":
			ops = append(ops, Field{Path: path, Op: Ne{Value: v}})
		case "$gt":
			ops = append(ops, Field{Path: path, Op: Gt{Value: v}})
		case "$gte":
			ops = append(ops, Field{Path: path, Op: Gte{Value: v}})
		case "$lt":
			ops = append(ops, Field{Path: path, Op: Lt{Value: v}})
		case "$lte":
			ops = append(ops, Field{Path: path, Op: Lte{Value: v}})
		case "$in":
			arr, ok := v.([]any)
			if !ok {
				return nil, ErrMalformed("$in requires an array")
			}
			ops = append(ops, Field{Path: path, Op: In{Values: arr}})
		case "$nin":
			arr, ok := v.([]any)
			if !ok {
				return nil, ErrMalformed("$nin requires an array")
			}
			ops = append(ops, Field{Path: path, Op: Nin{Values: arr}})
		case "$exists":
			b, ok := v.(bool)
			if !ok {
				return nil, ErrMalformed("$exists requires a bool")
			}
			ops = append(ops, Field{Path: path, Op: Exists{Want: b}})
		case "$type":
			s, ok := v.(string)
			if !ok {
				return nil, ErrMalformed("$type requires a string")
			}
			ops = append(ops, Field{Path: path, Op: TypeIs{Want: s}})
		case "$size":
			n, err := toInt(v)
			if err != nil {
				return nil, ErrMalformed("$size requires an integer")
			}
			ops = append(ops, Field{Path: path, Op: SizeIs{N: int(n)}})
		case "$all":
			arr, ok := v.([]any)
			if !ok {
				return nil, ErrMalformed("$all requires an array")
			}
			ops = append(ops, Field{Path: path, Op: All{Values: arr}})
		case "$elemMatch":
			sm, ok := v.(map[string]any)
			if !ok {
				return nil, ErrMalformed("$elemMatch requires a document")
			}
			sub, err := parseElemMatch(sm)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Field{Path: path, Op: ElemMatch{Sub: sub}})
		case "$regex":
			s, ok := v.(string)
			if !ok {
				return nil, ErrMalformed("$regex requires a string")
			}
			regexPattern = &s
		case "$options":
			s, ok := v.(string)
			if !ok {
				return nil, ErrMalformed("$options requires a string")
			}
			regexOptions = s
		case "$mod":
			arr, ok := v.([]any)
			if !ok || len(arr) != 2 {
				return nil, ErrMalformed("$mod requires [divisor, remainder]")
			}
			div, err1 := toInt(arr[0])
			rem, err2 := toInt(arr[1])
			if err1 != nil || err2 != nil {
				return nil, ErrMalformed("$mod values must be integers")
			}
			ops = append(ops, Field{Path: path, Op: Mod{Divisor: div, Remainder: rem}})
		case "$not":
			sm, ok := v.(map[string]any)
			if !ok {
				return nil, ErrMalformed("$not requires a document of operators")
			}
			sub, err := parseFieldOperators(path, sm)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Not{Expr: sub})
		default:
			return nil, ErrUnknownOperator(k)
		}
	}

	if regexPattern != nil {
		ops = append(ops, Field{Path: path, Op: Regex{Pattern: *regexPattern, Options: regexOptions}})
	}

	switch len(ops) {
	case 0:
		return nil, ErrMalformed(fmt.Sprintf("empty operator document for field %q", path))
	case 1:
		return ops[0], nil
	default:
		return And{Exprs: ops}, nil
	}
}

// parseElemMatch parses the sub-document given to $elemMatch. Each
// element of the target array is evaluated as the "document" against
// this expression: field paths are relative to the element, and the
// empty path ("") refers to the element itself (for scalar arrays).
func parseElemMatch(m map[string]any) (Expr, error) {
	if isOperatorDoc(m) {
		return parseFieldOperators("", m)
	}
	return parseMap(m)
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, ErrMalformed("not a number")
	}
}
