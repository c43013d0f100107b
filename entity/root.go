package entity

import "context"

// RootID is the well-known singleton root node's id, per spec.md §3.
const RootID = "n:Root:root"

// Root is a Node subclass whose id is always RootID.
type Root struct {
	Node
}

func init() { Register[*Root]() }

// EnsureRoot creates the singleton Root node if missing. Idempotent.
func EnsureRoot(ctx context.Context) (*Root, error) {
	existing, err := Get[*Root](ctx, RootID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.GetID() != "" {
		return existing, nil
	}
	root := &Root{}
	root.ID = RootID
	if err := Save(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}
