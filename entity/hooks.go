package entity

import "github.com/forbearing/jvspatial/hook"

// OnVisit registers fn against entityClass (a Node or Edge subclass
// registered via Register[T]) for the named walker classes; an empty
// walkerClasses means catch-all, matching spec.md §3's "Passing no
// types = catch-all." Call from the entity class's init() the way
// Register itself is called.
func OnVisit(entityClass string, walkerClasses []string, fn hook.Func) {
	Hooks.OnEntity(entityClass, walkerClasses, fn)
}

// exitHooks run after a walker's queue drains or it disengages; kept
// separate from the visit registry because they're not matched against
// a specific entity, only against the walker class that declares them.
var exitHooks = map[string][]hook.Func{}

// OnExit registers a finalization hook for walkerClass.
func OnExit(walkerClass string, fn hook.Func) {
	exitHooks[walkerClass] = append(exitHooks[walkerClass], fn)
}

// ExitHooksFor returns the registered on_exit hooks for walkerClass.
func ExitHooksFor(walkerClass string) []hook.Func {
	return exitHooks[walkerClass]
}
