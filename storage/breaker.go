package storage

import (
	"context"
	"time"

	"github.com/forbearing/jvspatial/query"
	"github.com/sony/gobreaker"
)

// WithBreaker wraps an Adapter so that repeated backend failures trip a
// circuit breaker, shedding load onto gobreaker's fast ErrOpenState instead of
// piling up timeouts against an unhealthy backend.
func WithBreaker(name string, a Adapter) Adapter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 8 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &breakerAdapter{Adapter: a, cb: cb}
}

type breakerAdapter struct {
	Adapter
	cb *gobreaker.CircuitBreaker
}

func run[T any](b *breakerAdapter, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		if v == nil {
			return zero, err
		}
	}
	out, _ := v.(T)
	return out, err
}

func (b *breakerAdapter) Save(ctx context.Context, collection string, doc query.Doc) (query.Doc, error) {
	return run(b, func() (query.Doc, error) { return b.Adapter.Save(ctx, collection, doc) })
}

func (b *breakerAdapter) Get(ctx context.Context, collection, id string) (query.Doc, error) {
	return run(b, func() (query.Doc, error) { return b.Adapter.Get(ctx, collection, id) })
}

func (b *breakerAdapter) Find(ctx context.Context, collection string, q query.Expr, opts FindOptions) ([]query.Doc, error) {
	return run(b, func() ([]query.Doc, error) { return b.Adapter.Find(ctx, collection, q, opts) })
}

func (b *breakerAdapter) FindOne(ctx context.Context, collection string, q query.Expr) (query.Doc, error) {
	return run(b, func() (query.Doc, error) { return b.Adapter.FindOne(ctx, collection, q) })
}
