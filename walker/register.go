package walker

import (
	"reflect"

	"github.com/forbearing/jvspatial/entity"
)

// Register declares the walker class for T, deriving its class name
// the same way entity.Register does, and records its ancestry with the
// shared hook registry so entity-side hooks targeting this walker (or
// a "Walker" catch-all declared some other way) resolve correctly.
func Register[T Walker]() string {
	zero := *new(T)
	rt := reflect.TypeOf(zero)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	name := rt.Name()
	entity.Hooks.DeclareAncestry(name, []string{name, "Walker"})
	return name
}

// New constructs a fresh T with its class name stamped into Base, for
// use by the endpoint dispatcher when spawning a walker per request.
func New[T Walker](class string) T {
	v := reflect.New(reflect.TypeOf(*new(T)).Elem()).Interface().(T)
	v.walkerBase().class = class
	return v
}
