package storage

import (
	"reflect"
	"strings"

	"github.com/forbearing/jvspatial/query"
)

func splitPath(path string) []string { return strings.Split(path, ".") }

func getPath(doc query.Doc, path string) (any, bool) {
	segs := splitPath(path)
	var cur any = doc
	for _, seg := range segs {
		m, ok := cur.(query.Doc)
		if !ok {
			if mm, ok2 := cur.(map[string]any); ok2 {
				m = query.Doc(mm)
			} else {
				return nil, false
			}
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func setPath(doc query.Doc, path string, value any) {
	segs := splitPath(path)
	cur := doc
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(query.Doc)
		if !ok {
			if m, ok2 := cur[seg].(map[string]any); ok2 {
				next = query.Doc(m)
			} else {
				next = query.Doc{}
			}
			cur[seg] = next
		}
		cur = next
	}
}

func unsetPath(doc query.Doc, path string) {
	segs := splitPath(path)
	cur := doc
	for i, seg := range segs {
		if i == len(segs)-1 {
			delete(cur, seg)
			return
		}
		next, ok := cur[seg].(query.Doc)
		if !ok {
			return
		}
		cur = next
	}
}

func addNum(cur, delta any) any {
	cf, cok := asFloat(cur)
	df, dok := asFloat(delta)
	if !dok {
		return cur
	}
	if !cok {
		cf = 0
	}
	return cf + df
}

func mulNum(cur, factor any) any {
	cf, cok := asFloat(cur)
	ff, fok := asFloat(factor)
	if !fok {
		return cur
	}
	if !cok {
		cf = 0
	}
	return cf * ff
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
	}
	return 0, false
}

func deepEq(a, b any) bool { return reflect.DeepEqual(a, b) }
