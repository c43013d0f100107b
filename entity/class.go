package entity

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/forbearing/jvspatial/hook"
	"github.com/forbearing/jvspatial/storage"
)

// IndexField declares a single indexed, context-level attribute.
// Unique and CompoundWith mirror spec.md §3's "{unique: bool,
// compound_with: [field, ...]?}" metadata.
type IndexField struct {
	Name         string
	Unique       bool
	CompoundWith []string
}

// Class is the registered description of one Node or Edge subclass.
type Class struct {
	Name       string
	Kind       string // "node" | "edge"
	New        func() Entity
	Indexed    []IndexField
	registered bool
}

var (
	mu      sync.RWMutex
	classes = make(map[string]*Class)
	// Hooks is the shared entity<->walker visit-hook registry; the
	// walker package resolves against the same instance.
	Hooks = hook.NewRegistry()
)

// Register declares the entity class for T, deriving its class name
// from the concrete type and scanning its fields for `entity:"unique"`
// / `entity:"compound=a+b"` tags to build index metadata. Call once
// per type, typically from an init() func the way the ancestor
// project's model.Register is called.
//
// NOTE: mirrors model.Register[M types.Model]'s reflect.New + table
// registration shape, generalized from a single flat records table to
// a typed graph entity class.
func Register[T Entity]() *Class {
	mu.Lock()
	defer mu.Unlock()

	zero := *new(T)
	rt := reflect.TypeOf(zero)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	name := rt.Name()

	sample := reflect.New(rt).Interface().(T)
	c := &Class{Name: name, Kind: sample.Kind(), New: func() Entity { return reflect.New(rt).Interface().(Entity) }}
	c.Indexed = scanIndexed(rt)
	classes[name] = c

	Hooks.DeclareAncestry(name, ancestryOf(rt))
	return c
}

func ancestryOf(rt reflect.Type) []string {
	chain := []string{rt.Name()}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := sf.Type
		if ft.Kind() == reflect.Struct && (ft.Name() == "Node" || ft.Name() == "Edge" || ft.Name() == "Base") {
			chain = append(chain, ft.Name())
		}
	}
	return chain
}

func scanIndexed(rt reflect.Type) []IndexField {
	var out []IndexField
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous {
			continue
		}
		tag, ok := sf.Tag.Lookup("entity")
		if !ok {
			continue
		}
		opts := strings.Split(tag, ",")
		idx := IndexField{Name: keyFor(sf)}
		for _, opt := range opts {
			switch {
			case opt == "unique":
				idx.Unique = true
			case strings.HasPrefix(opt, "compound="):
				idx.CompoundWith = strings.Split(strings.TrimPrefix(opt, "compound="), "+")
			}
		}
		if idx.Unique || len(idx.CompoundWith) > 0 {
			out = append(out, idx)
		}
	}
	return out
}

// ClassOf returns the registered Class for e's concrete type name.
func ClassOf(e Entity) (*Class, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := classes[className(e)]
	return c, ok
}

func className(e Entity) string {
	rt := reflect.TypeOf(e)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}

// EnsureIndexes creates every declared index for every registered
// class against the given adapter; first-write index creation per
// spec.md §3 is realized here rather than lazily, so bootstrap can
// call it once up front.
func EnsureIndexes(ctx context.Context, a storage.Adapter) error {
	mu.RLock()
	defer mu.RUnlock()
	for _, c := range classes {
		for _, idx := range c.Indexed {
			fields := []storage.IndexField{{Name: "context." + idx.Name, Direction: 1}}
			for _, cf := range idx.CompoundWith {
				fields = append(fields, storage.IndexField{Name: "context." + cf, Direction: 1})
			}
			if err := a.CreateIndex(ctx, c.Name, storage.IndexSpec{Fields: fields, Unique: idx.Unique}); err != nil {
				return err
			}
		}
	}
	return nil
}
