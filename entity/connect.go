package entity

import (
	"context"

	"github.com/forbearing/jvspatial/query"
)

// EdgeEntity is the constraint Connect requires: any registered Edge
// subclass exposes SetEndpoints alongside the base Entity surface.
type EdgeEntity interface {
	Entity
	SetEndpoints(source, target, direction string)
}

func (e *Edge) SetEndpoints(source, target, direction string) {
	e.Source, e.Target, e.Direction = source, target, direction
}

// Connect creates an edge of type E between from and to, appends its
// id to both endpoints' edge_ids in insertion order, and persists all
// three documents, per spec.md §4.C. The endpoint mutation and the
// edge creation are ordered so that if either endpoint write fails, no
// document ever references an edge id the store doesn't also have.
func Connect[E EdgeEntity](ctx context.Context, from, to Ref, direction string, fields func(E)) (E, error) {
	var zero E
	edge, err := Create[E](ctx, func(e E) {
		e.SetEndpoints(from.ID, to.ID, direction)
		if fields != nil {
			fields(e)
		}
	})
	if err != nil {
		return zero, err
	}
	if err := appendEdgeID(ctx, from, edge.GetID()); err != nil {
		return zero, err
	}
	if err := appendEdgeID(ctx, to, edge.GetID()); err != nil {
		return zero, err
	}
	return edge, nil
}

func appendEdgeID(ctx context.Context, ref Ref, edgeID string) error {
	a, err := AdapterFrom(ctx)
	if err != nil {
		return err
	}
	doc, err := a.Get(ctx, ref.Class, ref.ID)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	ids, _ := doc["edge_ids"].([]any)
	doc["edge_ids"] = append(ids, edgeID)
	_, err = a.Save(ctx, ref.Class, doc)
	return err
}

// Disconnect removes the first edge of edgeClass connecting from and
// to (in either direction), updating both endpoints' edge_ids and
// deleting the edge document.
func Disconnect(ctx context.Context, from, to Ref, edgeClass string) (bool, error) {
	a, err := AdapterFrom(ctx)
	if err != nil {
		return false, err
	}
	q, err := query.Parse(map[string]any{
		"$or": []any{
			map[string]any{"source": from.ID, "target": to.ID},
			map[string]any{"source": to.ID, "target": from.ID},
		},
	})
	if err != nil {
		return false, err
	}
	doc, err := a.FindOne(ctx, edgeClass, q)
	if err != nil || doc == nil {
		return false, err
	}
	edgeID, _ := doc["id"].(string)
	if err := detachEdgeID(ctx, from.ID, edgeID); err != nil {
		return false, err
	}
	if err := detachEdgeID(ctx, to.ID, edgeID); err != nil {
		return false, err
	}
	return a.Delete(ctx, edgeClass, edgeID)
}

// EdgesOf returns the edge refs incident to ref, honoring insertion
// order and optionally filtering by direction.
func EdgesOf(ctx context.Context, ref Ref, direction string) ([]Ref, error) {
	a, err := AdapterFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := a.Get(ctx, ref.Class, ref.ID)
	if err != nil || doc == nil {
		return nil, err
	}
	ids, _ := doc["edge_ids"].([]any)
	out := make([]Ref, 0, len(ids))
	for _, idv := range ids {
		id, _ := idv.(string)
		if id == "" {
			continue
		}
		_, class, ok := ParseID(id)
		if !ok {
			continue
		}
		if direction != "" && direction != DirBoth {
			edoc, err := a.Get(ctx, class, id)
			if err != nil || edoc == nil {
				continue
			}
			dir, _ := edoc["direction"].(string)
			if dir != direction && dir != DirBoth {
				continue
			}
		}
		out = append(out, Ref{ID: id, Class: class, Kind: "edge"})
	}
	return out, nil
}

// NeighborsOf returns the node refs connected to ref via its edges, in
// insertion order, honoring an optional limit and direction filter.
func NeighborsOf(ctx context.Context, ref Ref, limit int, direction string) ([]Ref, error) {
	edges, err := EdgesOf(ctx, ref, direction)
	if err != nil {
		return nil, err
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Ref, 0, len(edges))
	for _, eref := range edges {
		edoc, err := a.Get(ctx, eref.Class, eref.ID)
		if err != nil || edoc == nil {
			continue
		}
		src, _ := edoc["source"].(string)
		dst, _ := edoc["target"].(string)
		other := dst
		if other == ref.ID {
			other = src
		}
		_, class, ok := ParseID(other)
		if !ok {
			continue
		}
		out = append(out, Ref{ID: other, Class: class, Kind: "node"})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
