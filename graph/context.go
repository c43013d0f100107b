// Package graph is the public surface over the entity layer: it binds
// a storage.Adapter to a context.Context for the duration of a scope
// (an HTTP request, a background job, a test) and re-exports the
// node/edge/root operations entity already implements, the way
// teacher's controller->service->database chain threads a request-
// scoped database handle (types/context.go's ControllerContext /
// ServiceContext / DatabaseContext) through every layer without a
// mutable global.
package graph

import (
	"context"

	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/storage"
)

// WithContext binds backend as ctx's active storage.Adapter; every
// node/edge/walker call downstream resolves the same adapter back out
// of ctx (HTTP handler -> walker engine -> hook -> entity call).
func WithContext(ctx context.Context, backend storage.Adapter) context.Context {
	return entity.WithAdapter(ctx, backend)
}

// FromContext resolves the adapter bound to ctx, falling back to the
// process-default registered backend if no scope bound one.
func FromContext(ctx context.Context) (storage.Adapter, error) {
	return entity.AdapterFrom(ctx)
}

// Open resolves the named registered backend and binds it into ctx,
// the usual way a request middleware establishes the per-request graph
// context at the top of the call chain.
func Open(ctx context.Context, name string, cfg any) (context.Context, error) {
	a, err := storage.Open(name, cfg)
	if err != nil {
		return ctx, err
	}
	return WithContext(ctx, a), nil
}

// EnsureRoot creates the singleton root node if it doesn't already
// exist in ctx's bound backend. Idempotent; safe to call on every
// server startup.
func EnsureRoot(ctx context.Context) (*entity.Root, error) {
	return entity.EnsureRoot(ctx)
}
