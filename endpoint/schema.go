package endpoint

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldSpec describes one request-body field synthesized from a
// walker's declared struct fields, per spec.md §4.F's field-group
// schema rules.
type FieldSpec struct {
	Name   string // wire name, after endpoint_name override
	Group  string // endpoint_group, "" if top-level
	Hidden bool   // endpoint_hidden: accepted, not documented
	Index  int    // struct field index, for decode
}

// Schema is the synthesized request shape for one walker type: which
// fields are wire-visible, how they nest under groups, and the
// validator tag string go-playground/validator enforces at decode time.
type Schema struct {
	Type   reflect.Type
	Fields []FieldSpec
}

// synthesizeSchema scans rt's exported, non-embedded fields (the
// user-declared request fields that sit alongside walker.Base, the
// same way entity.ToDoc splits structural from context fields) into a
// Schema, honoring the exclude_endpoint, endpoint_hidden, group=X and
// name=Y options of the `endpoint` struct tag.
func synthesizeSchema(rt reflect.Type) *Schema {
	s := &Schema{Type: rt}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous {
			continue
		}
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("endpoint")
		if tag == "-" {
			continue
		}
		spec := FieldSpec{Name: jsonNameOf(sf), Index: i}
		for _, opt := range strings.Split(tag, ",") {
			switch {
			case opt == "exclude_endpoint":
				spec.Name = ""
			case opt == "endpoint_hidden":
				spec.Hidden = true
			case strings.HasPrefix(opt, "group="):
				spec.Group = strings.TrimPrefix(opt, "group=")
			case strings.HasPrefix(opt, "name="):
				spec.Name = strings.TrimPrefix(opt, "name=")
			}
		}
		if spec.Name == "" {
			continue
		}
		s.Fields = append(s.Fields, spec)
	}
	return s
}

func jsonNameOf(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}

// Decode populates a fresh instance of s.Type from body (already
// grouped/flattened JSON, the shape decodeJSONBody produces) and runs
// struct-tag validation (min/max/pattern/len, etc., propagated from
// the walker's own `validate:"..."` tags) via go-playground/validator.
func (s *Schema) Decode(body map[string]any) (reflect.Value, error) {
	v := reflect.New(s.Type)
	elem := v.Elem()
	for _, f := range s.Fields {
		var raw any
		if f.Group != "" {
			grp, ok := body[f.Group].(map[string]any)
			if !ok {
				continue
			}
			raw, ok = grp[f.Name]
			if !ok {
				continue
			}
		} else {
			var ok bool
			raw, ok = body[f.Name]
			if !ok {
				continue
			}
		}
		field := elem.Field(f.Index)
		if !field.CanSet() {
			continue
		}
		assignInto(field, raw)
	}
	if err := validate.Struct(v.Interface()); err != nil {
		return v, err
	}
	return v, nil
}

// assignInto best-effort-assigns a decoded JSON value (string, float64,
// bool, []any, map[string]any) into field, covering the scalar/slice
// shapes request bodies carry; anything reflect can't convert directly
// is left at its zero value rather than erroring, since validator
// catches required-field omissions separately.
func assignInto(field reflect.Value, raw any) {
	if raw == nil {
		return
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(field.Type()) {
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
			field.Set(rv.Convert(field.Type()))
		}
		return
	}
	if field.Kind() == reflect.Slice && rv.Kind() == reflect.Slice {
		out := reflect.MakeSlice(field.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			erv := reflect.ValueOf(elem)
			if erv.IsValid() && erv.Type().ConvertibleTo(field.Type().Elem()) {
				out.Index(i).Set(erv.Convert(field.Type().Elem()))
			}
		}
		field.Set(out)
	}
}
