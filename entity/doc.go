package entity

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/forbearing/jvspatial/query"
	"github.com/stoewer/go-strcase"
)

// ToDoc splits e into the structural/context document shape spec.md §3
// requires: id (and edge_ids, or source/target/direction) stay at the
// top level, every other declared field is nested under "context".
func ToDoc(e Entity) query.Doc {
	rv := reflect.ValueOf(e)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	rt := rv.Type()

	doc := query.Doc{}
	ctxDoc := query.Doc{}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if sf.Anonymous && isStructural(sf.Type) {
			for k, v := range flatten(fv) {
				doc[k] = v
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("entity"); ok && strings.HasPrefix(tag, "-") {
			continue
		}
		ctxDoc[keyFor(sf)] = fv.Interface()
	}
	doc["class"] = className(e)
	doc["kind"] = e.Kind()
	doc["context"] = ctxDoc
	return doc
}

// FromDoc hydrates out (a pointer to a registered entity type) from doc,
// merging the top-level structural keys with doc["context"] and
// round-tripping through encoding/json so ordinary Go struct tags
// govern the mapping without entity needing its own decoder.
func FromDoc(doc query.Doc, out Entity) error {
	merged := map[string]any{}
	for k, v := range doc {
		if k == "context" {
			continue
		}
		merged[k] = v
	}
	if ctxDoc, ok := asDoc(doc["context"]); ok {
		for k, v := range ctxDoc {
			merged[k] = v
		}
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func asDoc(v any) (query.Doc, bool) {
	switch m := v.(type) {
	case query.Doc:
		return m, true
	case map[string]any:
		return query.Doc(m), true
	default:
		return nil, false
	}
}

func isStructural(t reflect.Type) bool {
	switch t.Name() {
	case "Base", "Node", "Edge":
		return true
	}
	return false
}

// flatten reflects a Base/Node/Edge value into its own json-tag-keyed
// map, recursing through Node/Edge's embedded Base.
func flatten(rv reflect.Value) map[string]any {
	out := map[string]any{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if sf.Anonymous && isStructural(sf.Type) {
			for k, v := range flatten(fv) {
				out[k] = v
			}
			continue
		}
		out[keyFor(sf)] = fv.Interface()
	}
	return out
}

func keyFor(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strcase.SnakeCase(sf.Name)
}
