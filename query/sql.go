package query

import "fmt"

// Dialect names ToSQL understands for the JSON-path accessor syntax.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// ToSQL attempts to translate e into a parameterized SQL WHERE clause
// against a single JSON/JSONB document column named "doc", per
// SPEC_FULL.md's storage/sqlstore design. It returns pushable=false
// when the expression uses an operator this translator does not
// support pushing down ($size, $all, $elemMatch, $mod, $regex, or any
// expression containing one) — storage/sqlstore then falls back to a
// full scan filtered by query.Eval, per spec.md §4.A's "backend
// split" (indexes/pushdown narrow the scan, the evaluator decides
// the rest).
func ToSQL(e Expr, dialect string) (clause string, args []any, pushable bool) {
	var sb []string
	ok := collectSQL(e, dialect, &sb, &args)
	if !ok {
		return "", nil, false
	}
	if len(sb) == 0 {
		return "", nil, true
	}
	clause = sb[0]
	for _, s := range sb[1:] {
		clause = clause + " " + s
	}
	return clause, args, true
}

func collectSQL(e Expr, dialect string, parts *[]string, args *[]any) bool {
	switch v := e.(type) {
	case And:
		clauses := make([]string, 0, len(v.Exprs))
		for _, sub := range v.Exprs {
			var p []string
			if !collectSQL(sub, dialect, &p, args) {
				return false
			}
			clauses = append(clauses, join(p))
		}
		*parts = append(*parts, "("+joinWith(clauses, " AND ")+")")
		return true
	case Or:
		clauses := make([]string, 0, len(v.Exprs))
		for _, sub := range v.Exprs {
			var p []string
			if !collectSQL(sub, dialect, &p, args) {
				return false
			}
			clauses = append(clauses, join(p))
		}
		*parts = append(*parts, "("+joinWith(clauses, " OR ")+")")
		return true
	case Not:
		var p []string
		if !collectSQL(v.Expr, dialect, &p, args) {
			return false
		}
		*parts = append(*parts, "NOT ("+join(p)+")")
		return true
	case Nor:
		clauses := make([]string, 0, len(v.Exprs))
		for _, sub := range v.Exprs {
			var p []string
			if !collectSQL(sub, dialect, &p, args) {
				return false
			}
			clauses = append(clauses, join(p))
		}
		*parts = append(*parts, "NOT ("+joinWith(clauses, " OR ")+")")
		return true
	case Field:
		accessor := jsonAccessor(dialect, v.Path)
		switch op := v.Op.(type) {
		case Eq:
			*parts = append(*parts, accessor+" = ?")
			*args = append(*args, op.Value)
		case Ne:
			*parts = append(*parts, accessor+" != ?")
			*args = append(*args, op.Value)
		case Gt:
			*parts = append(*parts, accessor+" > ?")
			*args = append(*args, op.Value)
		case Gte:
			*parts = append(*parts, accessor+" >= ?")
			*args = append(*args, op.Value)
		case Lt:
			*parts = append(*parts, accessor+" < ?")
			*args = append(*args, op.Value)
		case Lte:
			*parts = append(*parts, accessor+" <= ?")
			*args = append(*args, op.Value)
		case Exists:
			if op.Want {
				*parts = append(*parts, accessor+" IS NOT NULL")
			} else {
				*parts = append(*parts, accessor+" IS NULL")
			}
		case In:
			placeholders := make([]string, len(op.Values))
			for i, val := range op.Values {
				placeholders[i] = "?"
				*args = append(*args, val)
			}
			*parts = append(*parts, accessor+" IN ("+joinWith(placeholders, ",")+")")
		case Nin:
			placeholders := make([]string, len(op.Values))
			for i, val := range op.Values {
				placeholders[i] = "?"
				*args = append(*args, val)
			}
			*parts = append(*parts, accessor+" NOT IN ("+joinWith(placeholders, ",")+")")
		default:
			return false
		}
		return true
	default:
		return false
	}
}

func jsonAccessor(dialect, path string) string {
	switch dialect {
	case DialectPostgres:
		return fmt.Sprintf("doc #>> '{%s}'", pgPath(path))
	default:
		return fmt.Sprintf("json_extract(doc, '$.%s')", path)
	}
}

func pgPath(path string) string {
	out := ""
	for i, seg := range splitPath(path) {
		if i > 0 {
			out += ","
		}
		out += seg
	}
	return out
}

func join(parts []string) string    { return joinWith(parts, " ") }
func joinWith(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
