// Package memstore is an in-process storage backend: an RWMutex-guarded
// map of collections, each a map[id]query.Doc, filtered entirely by
// query.Eval. It never accepts the dialect natively and exists for
// tests and single-process deployments, grounded on the ancestor
// project's config-driven backend switch (database/sqlite is the
// closest single-file analogue it mirrors the shape of).
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
	"github.com/google/uuid"
)

func init() {
	storage.Register("memory", func(cfg any) (storage.Adapter, error) {
		return New(), nil
	})
}

type Backend struct {
	mu          sync.RWMutex
	collections map[string]map[string]query.Doc
	indexes     map[string][]storage.IndexSpec
}

func New() *Backend {
	return &Backend{
		collections: make(map[string]map[string]query.Doc),
		indexes:     make(map[string][]storage.IndexSpec),
	}
}

func (b *Backend) Native() bool  { return false }
func (b *Backend) Close() error  { return nil }

func (b *Backend) coll(name string) map[string]query.Doc {
	c, ok := b.collections[name]
	if !ok {
		c = make(map[string]query.Doc)
		b.collections[name] = c
	}
	return c
}

func (b *Backend) Save(_ context.Context, collection string, doc query.Doc) (query.Doc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}
	cp := cloneDoc(doc)
	b.coll(collection)[id] = cp
	return cloneDoc(cp), nil
}

func (b *Backend) Get(_ context.Context, collection, id string) (query.Doc, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.coll(collection)[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (b *Backend) Delete(_ context.Context, collection, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.coll(collection)
	if _, ok := c[id]; !ok {
		return false, nil
	}
	delete(c, id)
	return true, nil
}

func (b *Backend) Find(_ context.Context, collection string, q query.Expr, opts storage.FindOptions) ([]query.Doc, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []query.Doc
	for _, doc := range b.coll(collection) {
		if q == nil || query.Eval(q, doc) {
			out = append(out, cloneDoc(doc))
		}
	}
	sortDocs(out, opts.Sort)
	return paginate(out, opts.Offset, opts.Limit), nil
}

// idSortField is appended to every sort so iteration over the
// underlying Go map (random order) never leaks into Find/FindOne's
// result order: spec.md §8 requires find_one(q) to return the first
// document of find(q) "under a deterministic sort."
var idSortField = storage.IndexField{Name: "id", Direction: 1}

func (b *Backend) FindOne(ctx context.Context, collection string, q query.Expr) (query.Doc, error) {
	docs, err := b.Find(ctx, collection, q, storage.FindOptions{Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (b *Backend) Count(_ context.Context, collection string, q query.Expr) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var n int64
	for _, doc := range b.coll(collection) {
		if q == nil || query.Eval(q, doc) {
			n++
		}
	}
	return n, nil
}

func (b *Backend) Distinct(_ context.Context, collection, field string, q query.Expr) ([]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := map[any]bool{}
	var out []any
	for _, doc := range b.coll(collection) {
		if q != nil && !query.Eval(q, doc) {
			continue
		}
		v, ok := docField(doc, field)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

func (b *Backend) UpdateOne(_ context.Context, collection string, q query.Expr, update storage.Update, upsert bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.coll(collection)
	for id, doc := range c {
		if q == nil || query.Eval(q, doc) {
			c[id] = storage.Apply(doc, update)
			return nil
		}
	}
	if upsert {
		doc := storage.Apply(query.Doc{}, update)
		id, _ := doc["id"].(string)
		if id == "" {
			id = uuid.NewString()
			doc["id"] = id
		}
		c[id] = doc
	}
	return nil
}

func (b *Backend) UpdateMany(_ context.Context, collection string, q query.Expr, update storage.Update, upsert bool) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.coll(collection)
	var n int64
	for id, doc := range c {
		if q == nil || query.Eval(q, doc) {
			c[id] = storage.Apply(doc, update)
			n++
		}
	}
	if n == 0 && upsert {
		doc := storage.Apply(query.Doc{}, update)
		id, _ := doc["id"].(string)
		if id == "" {
			id = uuid.NewString()
			doc["id"] = id
		}
		c[id] = doc
		n = 1
	}
	return n, nil
}

func (b *Backend) DeleteOne(_ context.Context, collection string, q query.Expr) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.coll(collection)
	for id, doc := range c {
		if q == nil || query.Eval(q, doc) {
			delete(c, id)
			return true, nil
		}
	}
	return false, nil
}

func (b *Backend) DeleteMany(_ context.Context, collection string, q query.Expr) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.coll(collection)
	var n int64
	for id, doc := range c {
		if q == nil || query.Eval(q, doc) {
			delete(c, id)
			n++
		}
	}
	return n, nil
}

func (b *Backend) CreateIndex(_ context.Context, collection string, spec storage.IndexSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.indexes[collection] {
		if sameIndex(existing, spec) {
			return nil
		}
	}
	b.indexes[collection] = append(b.indexes[collection], spec)
	return nil
}

func (b *Backend) Clean(_ context.Context, edgeCollection, nodeCollection string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	nodes := b.coll(nodeCollection)
	edges := b.coll(edgeCollection)
	var n int64
	for id, e := range edges {
		src, _ := e["source"].(string)
		dst, _ := e["target"].(string)
		if _, ok := nodes[src]; !ok {
			delete(edges, id)
			n++
			continue
		}
		if _, ok := nodes[dst]; !ok {
			delete(edges, id)
			n++
		}
	}
	return n, nil
}

// docField resolves field against doc using the same dotted-path,
// nested-aware walker query.Eval uses, so Distinct/sortDocs agree with
// Find/Count on what "the field" means for a path like "context.price".
func docField(doc query.Doc, field string) (any, bool) {
	return query.Resolve(doc, field)
}

func sameIndex(a, b storage.IndexSpec) bool {
	if a.Unique != b.Unique || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}

// sortDocs applies sortSpec, then always breaks remaining ties on id
// so the result order is fully deterministic regardless of sortSpec
// (including when it's empty) — Find/FindOne never depend on Go's
// randomized map iteration order.
func sortDocs(docs []query.Doc, sortSpec []storage.IndexField) {
	effective := sortSpec
	hasID := false
	for _, s := range sortSpec {
		if s.Name == "id" {
			hasID = true
			break
		}
	}
	if !hasID {
		effective = append(append([]storage.IndexField{}, sortSpec...), idSortField)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range effective {
			vi, _ := docField(docs[i], s.Name)
			vj, _ := docField(docs[j], s.Name)
			c := compareAny(vi, vj)
			if c == 0 {
				continue
			}
			if s.Direction < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareAny(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	af, aok2 := toFloat(a)
	bf, bok2 := toFloat(b)
	if aok2 && bok2 {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func paginate(docs []query.Doc, offset, limit int) []query.Doc {
	if offset > 0 {
		if offset >= len(docs) {
			return nil
		}
		docs = docs[offset:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

func cloneDoc(doc query.Doc) query.Doc {
	out := make(query.Doc, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
