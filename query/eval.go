package query

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Eval evaluates e against doc and reports whether it matches. It
// never returns an error: a type mismatch between the document value
// and the comparator simply evaluates to false, per spec.md §4.A
// ("Type mismatch ... predicate is simply false; no error").
// Evaluation short-circuits left-to-right within And/Or as written.
func Eval(e Expr, doc any) bool {
	switch v := e.(type) {
	case And:
		for _, sub := range v.Exprs {
			if !Eval(sub, doc) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range v.Exprs {
			if Eval(sub, doc) {
				return true
			}
		}
		return false
	case Not:
		return !Eval(v.Expr, doc)
	case Nor:
		for _, sub := range v.Exprs {
			if Eval(sub, doc) {
				return false
			}
		}
		return true
	case Field:
		return evalField(v, doc)
	default:
		return false
	}
}

func evalField(f Field, doc any) bool {
	val, exists := Resolve(doc, f.Path)
	switch op := f.Op.(type) {
	case Exists:
		return exists == op.Want
	case Eq:
		if !exists {
			return op.Value == nil
		}
		return deepEqual(val, op.Value)
	case Ne:
		if !exists {
			return !(op.Value == nil)
		}
		return !deepEqual(val, op.Value)
	case Gt:
		c := compare(val, op.Value)
		return exists && c != incomparable && c > 0
	case Gte:
		c := compare(val, op.Value)
		return exists && c != incomparable && c >= 0
	case Lt:
		c := compare(val, op.Value)
		return exists && c != incomparable && c < 0
	case Lte:
		c := compare(val, op.Value)
		return exists && c != incomparable && c <= 0
	case In:
		if !exists {
			return containsNil(op.Values)
		}
		for _, want := range op.Values {
			if deepEqual(val, want) {
				return true
			}
		}
		return false
	case Nin:
		if !exists {
			return !containsNil(op.Values)
		}
		for _, want := range op.Values {
			if deepEqual(val, want) {
				return false
			}
		}
		return true
	case TypeIs:
		return exists && typeName(val) == op.Want
	case SizeIs:
		arr, ok := val.([]any)
		return exists && ok && len(arr) == op.N
	case All:
		arr, ok := val.([]any)
		if !exists || !ok {
			return false
		}
		for _, want := range op.Values {
			found := false
			for _, elem := range arr {
				if deepEqual(elem, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case ElemMatch:
		arr, ok := val.([]any)
		if !exists || !ok {
			return false
		}
		for _, elem := range arr {
			if Eval(op.Sub, elem) {
				return true
			}
		}
		return false
	case Regex:
		s, ok := val.(string)
		if !exists || !ok {
			return false
		}
		re, err := compileRegex(op.Pattern, op.Options)
		if err != nil {
			return false
		}
		return re.MatchString(s)
	case Mod:
		n, ok := asInt(val)
		if !exists || !ok || op.Divisor == 0 {
			return false
		}
		return n%op.Divisor == op.Remainder
	default:
		return false
	}
}

func containsNil(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}

func deepEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

// incomparable is compare()'s sentinel for operand pairs that cannot be
// widened to a common comparable kind. Every Gt/Gte/Lt/Lte case must
// check for it explicitly: it is neither a valid "less" nor "greater"
// outcome, and per spec.md §4.A/§8 a type mismatch in a comparator is
// simply false, not true by accident of sign.
const incomparable = -2

// compare returns -1/0/1 for a</=/> b when both can be widened to a
// common comparable kind (numeric or string), chronologically when b is
// a time.Time and a is a time.Time or an RFC 3339 string (the form a
// time takes after a JSON round trip), or incomparable otherwise.
func compare(a, b any) int {
	if bt, ok := b.(time.Time); ok {
		at, ok := a.(time.Time)
		if s, isStr := a.(string); isStr {
			t, err := time.Parse(time.RFC3339Nano, s)
			at, ok = t, err == nil
		}
		if !ok {
			return incomparable
		}
		return at.Compare(bt)
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return incomparable
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	return incomparable
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		if _, ok := asFloat(v); ok {
			return "number"
		}
		return "unknown"
	}
}

var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]*regexp.Regexp{}
)

// compileRegex builds a Go RE2 regexp honoring the $options flags
// named in spec.md §4.A (i, m, s). Go's regexp engine is RE2, not
// POSIX-extended as spec.md's default describes, but RE2 is a strict
// superset of the patterns this dialect exercises (anchors, classes,
// alternation); "x" (extended/free-spacing) has no RE2 equivalent, so
// it is accepted but has no effect beyond being a recognized flag.
// regexCache is shared across concurrent Eval calls (§5), so access
// to it is serialized by regexCacheMu.
func compileRegex(pattern, options string) (*regexp.Regexp, error) {
	key := options + "\x00" + pattern

	regexCacheMu.Lock()
	re, ok := regexCache[key]
	regexCacheMu.Unlock()
	if ok {
		return re, nil
	}

	var flags string
	for _, o := range options {
		switch o {
		case 'i':
			flags += "i"
		case 'm':
			flags += "m"
		case 's':
			flags += "s"
		}
	}
	expr := pattern
	if flags != "" {
		expr = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	regexCacheMu.Lock()
	regexCache[key] = re
	regexCacheMu.Unlock()
	return re, nil
}
