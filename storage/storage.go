// Package storage defines the backend-neutral adapter contract that
// every persistence backend (memstore, sqlstore, mongostore) implements,
// plus the process-wide registry that the graph context and entity
// layer resolve a backend through by name.
package storage

import (
	"context"

	"github.com/forbearing/jvspatial/query"
)

// IndexSpec is an ordered list of (field, direction) pairs, direction
// being 1 (ascending) or -1 (descending); CreateIndex is idempotent per
// (collection, fields, unique) tuple.
type IndexSpec struct {
	Fields []IndexField
	Unique bool
}

type IndexField struct {
	Name      string
	Direction int
}

// Adapter is the operation surface every storage backend implements.
// Every method is collection-scoped; a collection loosely corresponds
// to one entity class's table/namespace. Docs are query.Doc (a plain
// map[string]any) so the same value crosses the query, entity and
// storage layers without copying into backend-specific types.
type Adapter interface {
	Save(ctx context.Context, collection string, doc query.Doc) (query.Doc, error)
	Get(ctx context.Context, collection, id string) (query.Doc, error) // nil, nil if absent
	Delete(ctx context.Context, collection, id string) (bool, error)

	Find(ctx context.Context, collection string, q query.Expr, opts FindOptions) ([]query.Doc, error)
	FindOne(ctx context.Context, collection string, q query.Expr) (query.Doc, error)
	Count(ctx context.Context, collection string, q query.Expr) (int64, error)
	Distinct(ctx context.Context, collection, field string, q query.Expr) ([]any, error)

	UpdateOne(ctx context.Context, collection string, q query.Expr, update Update, upsert bool) error
	UpdateMany(ctx context.Context, collection string, q query.Expr, update Update, upsert bool) (int64, error)
	DeleteOne(ctx context.Context, collection string, q query.Expr) (bool, error)
	DeleteMany(ctx context.Context, collection string, q query.Expr) (int64, error)

	CreateIndex(ctx context.Context, collection string, spec IndexSpec) error

	// Clean sweeps orphaned edges: edges whose source or target id no
	// longer resolves to a document in nodeCollection.
	Clean(ctx context.Context, edgeCollection, nodeCollection string) (int64, error)

	// Native reports whether this backend accepts the query dialect
	// natively (Mongo) rather than needing a post-scan Eval pass.
	Native() bool

	Close() error
}

// FindOptions mirrors spec.md §4.B's find(...) parameters.
type FindOptions struct {
	Sort   []IndexField
	Limit  int // 0 = unbounded
	Offset int
}

// Update is the decoded form of an update document supporting $set,
// $unset, $inc, $mul, $push and $pull, per spec.md §4.B.
type Update struct {
	Set   query.Doc
	Unset []string
	Inc   query.Doc
	Mul   query.Doc
	Push  query.Doc
	Pull  query.Doc
}

// ParseUpdate decodes a raw Mongo-shaped update map into an Update.
func ParseUpdate(raw map[string]any) (Update, error) {
	var u Update
	for op, v := range raw {
		switch op {
		case "$set":
			u.Set, _ = v.(map[string]any)
			if u.Set == nil {
				u.Set = query.Doc{}
				for k, vv := range toDoc(v) {
					u.Set[k] = vv
				}
			}
		case "$unset":
			for k := range toDoc(v) {
				u.Unset = append(u.Unset, k)
			}
		case "$inc":
			u.Inc = toDoc(v)
		case "$mul":
			u.Mul = toDoc(v)
		case "$push":
			u.Push = toDoc(v)
		case "$pull":
			u.Pull = toDoc(v)
		default:
			return u, ErrUnknownUpdateOperator(op)
		}
	}
	return u, nil
}

func toDoc(v any) query.Doc {
	if m, ok := v.(map[string]any); ok {
		return query.Doc(m)
	}
	if d, ok := v.(query.Doc); ok {
		return d
	}
	return query.Doc{}
}

// Apply performs u against doc in place and returns it, applying the
// shared in-process semantics that memstore and sqlstore's read-modify-
// write path both use. Mongo's native driver applies these operators
// server-side instead; mongostore forwards the raw update document.
func Apply(doc query.Doc, u Update) query.Doc {
	if doc == nil {
		doc = query.Doc{}
	}
	for k, v := range u.Set {
		setPath(doc, k, v)
	}
	for _, k := range u.Unset {
		unsetPath(doc, k)
	}
	for k, delta := range u.Inc {
		cur, _ := getPath(doc, k)
		setPath(doc, k, addNum(cur, delta))
	}
	for k, factor := range u.Mul {
		cur, _ := getPath(doc, k)
		setPath(doc, k, mulNum(cur, factor))
	}
	for k, v := range u.Push {
		cur, _ := getPath(doc, k)
		arr, _ := cur.([]any)
		setPath(doc, k, append(arr, v))
	}
	for k, v := range u.Pull {
		cur, _ := getPath(doc, k)
		arr, _ := cur.([]any)
		out := make([]any, 0, len(arr))
		for _, elem := range arr {
			if !deepEq(elem, v) {
				out = append(out, elem)
			}
		}
		setPath(doc, k, out)
	}
	return doc
}
