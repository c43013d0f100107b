package entity

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Ref is a lightweight, type-erased handle to a persisted entity: just
// enough to queue, compare by identity, and later load. The walker
// engine's queue holds Refs because a single traversal visits nodes
// and edges of many different registered Go types.
type Ref struct {
	ID    string
	Class string
	Kind  string // "node" | "edge"
}

func RefOf(e Entity) Ref {
	_, class, _ := ParseID(e.GetID())
	if class == "" {
		class = className(e)
	}
	return Ref{ID: e.GetID(), Class: class, Kind: e.Kind()}
}

// Load resolves ref to its concrete, registered Entity value.
func Load(ctx context.Context, ref Ref) (Entity, error) {
	mu.RLock()
	c, ok := classes[ref.Class]
	mu.RUnlock()
	if !ok {
		return nil, errors.Newf("entity: class %q not registered", ref.Class)
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := a.Get(ctx, c.Name, ref.ID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	v := c.New()
	if err := FromDoc(doc, v); err != nil {
		return nil, err
	}
	return v, nil
}
