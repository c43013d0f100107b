package query

import (
	"reflect"
	"time"

	"github.com/stoewer/go-strcase"
)

// ToDoc reflects a struct (or pointer to struct) into a Doc keyed by
// snake_case field name, recursing into embedded and nested struct
// fields. Fields tagged `query:"-"` are skipped. time.Time values are
// kept as-is; compare in eval.go orders them chronologically.
//
// The entity package does not use it: entity.ToDoc builds its own
// documents and nests context fields under "context".
func ToDoc(v any) Doc {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Doc{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Doc{}
	}
	return structToDoc(rv)
}

func structToDoc(rv reflect.Value) Doc {
	out := Doc{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("query"); ok && tag == "-" {
			continue
		}
		fv := rv.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			for k, v := range structToDoc(fv) {
				out[k] = v
			}
			continue
		}
		name := strcase.SnakeCase(sf.Name)
		out[name] = toValue(fv)
	}
	return out
}

func toValue(fv reflect.Value) any {
	switch fv.Kind() {
	case reflect.Pointer:
		if fv.IsNil() {
			return nil
		}
		return toValue(fv.Elem())
	case reflect.Struct:
		if t, ok := fv.Interface().(time.Time); ok {
			return t
		}
		return structToDoc(fv)
	case reflect.Slice, reflect.Array:
		out := make([]any, fv.Len())
		for i := range out {
			out[i] = toValue(fv.Index(i))
		}
		return out
	case reflect.Map:
		out := Doc{}
		iter := fv.MapRange()
		for iter.Next() {
			out[fmtKey(iter.Key())] = toValue(iter.Value())
		}
		return out
	default:
		if !fv.IsValid() {
			return nil
		}
		return fv.Interface()
	}
}

func fmtKey(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return "unsupported_key"
}
