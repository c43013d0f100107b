// Package hook implements the bidirectional visit-hook registry shared
// by the entity and walker packages: a Node/Edge hook targets Walker
// classes (or any walker, through an empty target list), a Walker hook
// targets Node/Edge classes (or any entity, through an empty target
// list), and neither package may import the other to resolve one.
package hook

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Func is a visit hook. entity is the Node/Edge being visited, w is the
// walker instance doing the visiting. Returning an error stops the
// hook chain and ends the walk with the error recorded in the
// response; skipping and disengaging are requested through the
// walker's Skip and Disengage methods, not through returned errors.
type Func func(entity any, w any) error

type binding struct {
	targets []string // empty = catch-all
	seq     int
	fn      Func
}

// Registry holds two independent hook tables: entity-side hooks (keyed
// by the visited entity's class name, dispatched against the walker's
// class) and walker-side hooks (keyed by the walker's class name,
// dispatched against the visited entity's class). Both tables use the
// same three-tier specificity rule described on tier.
type Registry struct {
	mu         sync.RWMutex
	entitySide map[string][]*binding // entity class -> bindings matched against walker class
	walkerSide map[string][]*binding // walker class -> bindings matched against entity class
	seq        int
	ancestry   map[string][]string // class -> ancestor class names, innermost first
}

func NewRegistry() *Registry {
	return &Registry{
		entitySide: make(map[string][]*binding),
		walkerSide: make(map[string][]*binding),
		ancestry:   make(map[string][]string),
	}
}

// DeclareAncestry records the class-name chain for a registered type,
// innermost (most specific) first, so that a hook registered against a
// base class still fires for its subclasses ("method resolution order"
// matching per spec). Safe to call multiple times for the same class.
func (r *Registry) DeclareAncestry(class string, chain []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ancestry[class] = chain
}

func (r *Registry) ancestryOf(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if chain, ok := r.ancestry[class]; ok {
		return chain
	}
	return []string{class}
}

// ErrIllegalTarget names a hook target class that has never been
// declared via DeclareAncestry. OnEntity and OnWalker do not check
// their targets and never return it.
var ErrIllegalTarget = errors.New("hook: illegal target class")

// OnEntity registers fn on entityClass, matched against the named
// walker classes (empty = catch-all).
func (r *Registry) OnEntity(entityClass string, walkerTargets []string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.entitySide[entityClass] = append(r.entitySide[entityClass], &binding{targets: walkerTargets, seq: r.seq, fn: fn})
}

// OnWalker registers fn on walkerClass, matched against the named
// entity classes (empty = catch-all).
func (r *Registry) OnWalker(walkerClass string, entityTargets []string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.walkerSide[walkerClass] = append(r.walkerSide[walkerClass], &binding{targets: entityTargets, seq: r.seq, fn: fn})
}

// Resolve returns the hooks that fire for a walker of class
// walkerClass visiting an entity of class entityClass, in the four-tier
// order from spec.md §4.E: entity-side specific, entity-side
// multi-target, entity-side catch-all, then the same three tiers on the
// walker side. Subclass hooks match via the declared ancestry chain.
func (r *Registry) Resolve(entityClass, walkerClass string) []Func {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Func
	for _, ec := range r.ancestryOf(entityClass) {
		out = append(out, tier(r.entitySide[ec], walkerClass, 1)...)
	}
	for _, ec := range r.ancestryOf(entityClass) {
		out = append(out, tier(r.entitySide[ec], walkerClass, 2)...)
	}
	for _, ec := range r.ancestryOf(entityClass) {
		out = append(out, tier(r.entitySide[ec], walkerClass, 3)...)
	}
	for _, wc := range r.ancestryOf(walkerClass) {
		out = append(out, tier(r.walkerSide[wc], entityClass, 1)...)
	}
	for _, wc := range r.ancestryOf(walkerClass) {
		out = append(out, tier(r.walkerSide[wc], entityClass, 2)...)
	}
	for _, wc := range r.ancestryOf(walkerClass) {
		out = append(out, tier(r.walkerSide[wc], entityClass, 3)...)
	}
	return out
}

// tier filters bindings belonging to specificity tier t (1=single exact
// target, 2=multi-target containing want, 3=catch-all) and returns
// their functions in registration order.
func tier(bindings []*binding, want string, t int) []Func {
	matched := make([]*binding, 0, len(bindings))
	for _, b := range bindings {
		switch {
		case t == 1 && len(b.targets) == 1 && b.targets[0] == want:
			matched = append(matched, b)
		case t == 2 && len(b.targets) > 1 && contains(b.targets, want):
			matched = append(matched, b)
		case t == 3 && len(b.targets) == 0:
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	fns := make([]Func, len(matched))
	for i, b := range matched {
		fns[i] = b.fn
	}
	return fns
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
