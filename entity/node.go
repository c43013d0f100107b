package entity

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

// Node embeds Base and adds the ordered edge_ids list spec.md §3
// requires: "an ordered sequence of edge ids that preserves the order
// in which the node participated in connect(...) calls."
type Node struct {
	Base
	EdgeIDs []string `json:"edge_ids"`
}

func (n *Node) Kind() string { return "node" }

// Create persists a new node of type T, assigning its id if absent.
func Create[T Entity](ctx context.Context, fields func(T)) (T, error) {
	var zero T
	c, ok := ClassOf(zero)
	if !ok {
		c = Register[T]()
	}
	v := c.New().(T)
	if fields != nil {
		fields(v)
	}
	if v.GetID() == "" {
		kind := "n"
		if v.Kind() == "edge" {
			kind = "e"
		}
		v.SetID(NewID(kind, c.Name))
	}
	if err := Save(ctx, v); err != nil {
		return zero, err
	}
	return v, nil
}

// Save upserts e's document into its class's collection.
func Save(ctx context.Context, e Entity) error {
	a, err := AdapterFrom(ctx)
	if err != nil {
		return err
	}
	c, ok := ClassOf(e)
	if !ok {
		return errors.Newf("entity: class %q not registered", className(e))
	}
	if e.GetID() == "" {
		kind := "n"
		if e.Kind() == "edge" {
			kind = "e"
		}
		e.SetID(NewID(kind, c.Name))
	}
	doc := ToDoc(e)
	_, err = a.Save(ctx, c.Name, doc)
	return err
}

// Get loads a single entity of type T by id.
func Get[T Entity](ctx context.Context, id string) (T, error) {
	var zero T
	c, ok := ClassOf(zero)
	if !ok {
		c = Register[T]()
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return zero, err
	}
	doc, err := a.Get(ctx, c.Name, id)
	if err != nil {
		return zero, err
	}
	if doc == nil {
		return zero, nil
	}
	v := c.New().(T)
	if err := FromDoc(doc, v); err != nil {
		return zero, err
	}
	return v, nil
}

// Find returns every T matching q, routed through the current context's
// adapter (spec.md §4.C: "find and relatives route through whichever
// context is current").
func Find[T Entity](ctx context.Context, q query.Expr, opts storage.FindOptions) ([]T, error) {
	var zero T
	c, ok := ClassOf(zero)
	if !ok {
		c = Register[T]()
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := a.Find(ctx, c.Name, q, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v := c.New().(T)
		if err := FromDoc(doc, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FindOne never materializes more than one document.
func FindOne[T Entity](ctx context.Context, q query.Expr) (T, error) {
	var zero T
	res, err := Find[T](ctx, q, storage.FindOptions{Limit: 1})
	if err != nil || len(res) == 0 {
		return zero, err
	}
	return res[0], nil
}

// All returns every T, unfiltered.
func All[T Entity](ctx context.Context) ([]T, error) {
	return Find[T](ctx, nil, storage.FindOptions{})
}

// Count runs a database-level count.
func Count[T Entity](ctx context.Context, q query.Expr) (int64, error) {
	var zero T
	c, ok := ClassOf(zero)
	if !ok {
		c = Register[T]()
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return 0, err
	}
	return a.Count(ctx, c.Name, q)
}

// Destroy deletes n's document and, when cascade is true (the
// default), every incident edge plus the reciprocal edge_ids entry on
// the other endpoint, per spec.md §3's Node.destroy() invariant.
func Destroy(ctx context.Context, n *Node, class string, cascade bool) error {
	a, err := AdapterFrom(ctx)
	if err != nil {
		return err
	}
	if cascade {
		for _, eid := range append([]string(nil), n.EdgeIDs...) {
			_, eclass, _ := ParseID(eid)
			edoc, err := a.Get(ctx, eclass, eid)
			if err != nil || edoc == nil {
				continue
			}
			other, _ := edoc["target"].(string)
			if other == n.ID {
				other, _ = edoc["source"].(string)
			}
			if err := detachEdgeID(ctx, other, eid); err != nil {
				return err
			}
			if _, err := a.Delete(ctx, eclass, eid); err != nil {
				return err
			}
		}
	}
	_, err = a.Delete(ctx, class, n.ID)
	return err
}

// detachEdgeID mutates the raw document directly rather than round-
// tripping through a typed Node, since the class name is recovered
// from the id scheme itself (spec.md §3's <kind>:<ClassName>:<uuid>).
func detachEdgeID(ctx context.Context, nodeID, edgeID string) error {
	_, class, ok := ParseID(nodeID)
	if !ok {
		return errors.Newf("entity: malformed node id %q", nodeID)
	}
	a, err := AdapterFrom(ctx)
	if err != nil {
		return err
	}
	doc, err := a.Get(ctx, class, nodeID)
	if err != nil || doc == nil {
		return err
	}
	ids, _ := doc["edge_ids"].([]any)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if s, ok := id.(string); ok && s == edgeID {
			continue
		}
		out = append(out, id)
	}
	doc["edge_ids"] = out
	_, err = a.Save(ctx, class, doc)
	return err
}
