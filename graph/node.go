package graph

import (
	"context"

	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

// CreateNode constructs, persists, and returns a new node of type T.
func CreateNode[T entity.Entity](ctx context.Context, fields func(T)) (T, error) {
	return entity.Create[T](ctx, fields)
}

// GetNode loads a single node of type T by id.
func GetNode[T entity.Entity](ctx context.Context, id string) (T, error) {
	return entity.Get[T](ctx, id)
}

// SaveNode upserts n.
func SaveNode(ctx context.Context, n entity.Entity) error {
	return entity.Save(ctx, n)
}

// FindNodes returns every node of type T matching q.
func FindNodes[T entity.Entity](ctx context.Context, q query.Expr, opts storage.FindOptions) ([]T, error) {
	return entity.Find[T](ctx, q, opts)
}

// DeleteNode removes n, cascading its incident edges when cascade is
// true (the default for a graph-consistent delete).
func DeleteNode(ctx context.Context, n *entity.Node, class string, cascade bool) error {
	return entity.Destroy(ctx, n, class, cascade)
}
