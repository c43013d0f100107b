package graph

import (
	"context"

	"github.com/forbearing/jvspatial/entity"
)

// Connect creates an edge of type E between from and to, updating both
// endpoints' edge_ids in insertion order.
func Connect[E entity.EdgeEntity](ctx context.Context, from, to entity.Ref, direction string, fields func(E)) (E, error) {
	return entity.Connect[E](ctx, from, to, direction, fields)
}

// Disconnect removes the first edge of edgeClass between from and to.
func Disconnect(ctx context.Context, from, to entity.Ref, edgeClass string) (bool, error) {
	return entity.Disconnect(ctx, from, to, edgeClass)
}

// EdgesOf returns the edges incident to ref, optionally filtered by
// direction ("out", "in", "both"/"" for unfiltered).
func EdgesOf(ctx context.Context, ref entity.Ref, direction string) ([]entity.Ref, error) {
	return entity.EdgesOf(ctx, ref, direction)
}

// NeighborsOf returns the nodes connected to ref via its edges.
func NeighborsOf(ctx context.Context, ref entity.Ref, limit int, direction string) ([]entity.Ref, error) {
	return entity.NeighborsOf(ctx, ref, limit, direction)
}
