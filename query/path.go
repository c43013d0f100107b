package query

import "strconv"

// Resolve walks doc following a dot-notation path, descending into
// nested maps and indexing into sequences with integer segments. The
// second return is false iff some intermediate segment does not
// exist, which spec.md §4.A treats as "does not exist" (matches
// $exists:false, fails every other comparator without error).
//
// Exported so storage adapters can resolve the same dotted paths
// Eval does when walking documents outside of predicate evaluation
// (e.g. Distinct, sort-by-field).
func Resolve(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}
	cur := doc
	for _, seg := range splitPath(path) {
		switch v := cur.(type) {
		case map[string]any:
			val, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = val
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func splitPath(path string) []string {
	segs := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
