// Package entity implements the object-spatial data model: typed
// Node/Edge/Root entities addressed by a stable <kind>:<ClassName>:<uuid>
// id, persisted through whichever storage.Adapter the ambient
// graph.Context resolves, with user-declared fields split from
// structural ones the way spec.md §3 requires. Grounded on the
// ancestor project's model.Base/model.Register (generic table
// registration, hook-method shape) generalized from a relational ORM
// model to a graph entity.
package entity

import (
	"context"

	"github.com/forbearing/jvspatial/storage"
)

// Entity is implemented by every Node and Edge. GetID/SetID round-trip
// the <kind>:<ClassName>:<uuid> identifier; Kind distinguishes node
// from edge for collection routing and id formatting.
type Entity interface {
	GetID() string
	SetID(id string)
	Kind() string // "node" | "edge"
}

// ctxKey is an unexported type so values stashed in a context.Context
// can't collide with keys from other packages.
type ctxKey int

const adapterKey ctxKey = iota

// WithAdapter binds a storage.Adapter into ctx, following the "scoped
// lookup that follows execution flow" rule from spec.md §4.D: a graph
// context calls this once per request/scope, and every entity
// operation downstream (request handler -> walker engine -> hook ->
// entity call) resolves the same adapter back out of ctx.
func WithAdapter(ctx context.Context, a storage.Adapter) context.Context {
	return context.WithValue(ctx, adapterKey, a)
}

// AdapterFrom resolves the bound adapter, or the process-default
// backend if no scope bound one explicitly.
func AdapterFrom(ctx context.Context) (storage.Adapter, error) {
	if a, ok := ctx.Value(adapterKey).(storage.Adapter); ok {
		return a, nil
	}
	return storage.Open(storage.DefaultName(), nil)
}
