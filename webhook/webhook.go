// Package webhook implements HMAC verification, idempotency caching,
// and async dispatch for webhook-flavored endpoints. HMAC uses stdlib
// crypto/hmac (no pack library better fits raw signature verification
// than the primitive itself — see DESIGN.md); async dispatch reuses
// the ancestor project's panjf2000/ants worker pool for background
// work instead of a raw goroutine, matching how the teacher already
// pools deferred jobs.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"

	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

const IdempotencyCollection = "webhook_idempotency"
const EventCollection = "webhook_event"

// VerifySignature performs a timing-safe comparison of sig (hex-
// encoded) against the HMAC-SHA256 of body under secret.
func VerifySignature(secret []byte, body []byte, sig string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

// CachedResponse is what an idempotent replay returns verbatim.
type CachedResponse struct {
	EndpointID string    `json:"endpoint_id"`
	Key        string    `json:"key"`
	Status     int       `json:"status"`
	Body       []byte    `json:"body"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Idempotency checks and records (endpointID, key) pairs against a
// storage.Adapter, keyed per spec.md §5's "(endpoint-id, idempotency-
// key) with TTL eviction". When a redis client is attached via
// WithCache, lookups and stores hit redis first (matching the
// ancestor's RedisRepository cache-key convention) and fall back to
// the storage.Adapter as the system of record and sweep target.
type Idempotency struct {
	adapter storage.Adapter
	cache   *redis.Client
}

func NewIdempotency(a storage.Adapter) *Idempotency { return &Idempotency{adapter: a} }

// WithCache attaches a redis client as a read-through cache in front
// of the storage.Adapter lookup path.
func (i *Idempotency) WithCache(client *redis.Client) *Idempotency {
	i.cache = client
	return i
}

func idempotencyID(endpointID, key string) string { return endpointID + ":" + key }
func cacheKey(endpointID, key string) string      { return "webhook:idemp:" + idempotencyID(endpointID, key) }

// Lookup returns the cached response for (endpointID, key), or nil if
// none exists or it has expired.
func (i *Idempotency) Lookup(ctx context.Context, endpointID, key string) (*CachedResponse, error) {
	if i.cache != nil {
		raw, err := i.cache.Get(ctx, cacheKey(endpointID, key)).Bytes()
		if err == nil {
			cr := new(CachedResponse)
			if jsonErr := json.Unmarshal(raw, cr); jsonErr == nil {
				return cr, nil
			}
		}
	}
	doc, err := i.adapter.Get(ctx, IdempotencyCollection, idempotencyID(endpointID, key))
	if err != nil || doc == nil {
		return nil, err
	}
	cr := new(CachedResponse)
	if err := fromDoc(doc, cr); err != nil {
		return nil, err
	}
	if time.Now().After(cr.ExpiresAt) {
		_, _ = i.adapter.Delete(ctx, IdempotencyCollection, idempotencyID(endpointID, key))
		return nil, nil
	}
	return cr, nil
}

// Store records the response that will be replayed to duplicate
// requests within ttl.
func (i *Idempotency) Store(ctx context.Context, endpointID, key string, status int, body []byte, ttl time.Duration) error {
	cr := &CachedResponse{
		EndpointID: endpointID,
		Key:        key,
		Status:     status,
		Body:       body,
		ExpiresAt:  time.Now().Add(ttl),
	}
	if i.cache != nil {
		if raw, err := json.Marshal(cr); err == nil {
			_ = i.cache.Set(ctx, cacheKey(endpointID, key), raw, ttl).Err()
		}
	}
	doc := toDoc(cr)
	doc["id"] = idempotencyID(endpointID, key)
	_, err := i.adapter.Save(ctx, IdempotencyCollection, doc)
	return err
}

// Sweep deletes every idempotency record whose TTL has elapsed,
// meant to run off a cron schedule (config.Cron.IdempotencySweep)
// since redis entries expire on their own but the storage.Adapter
// system of record does not.
func (i *Idempotency) Sweep(ctx context.Context) (int64, error) {
	return i.adapter.DeleteMany(ctx, IdempotencyCollection, query.Field{
		Path: "expires_at",
		Op:   query.Lte{Value: time.Now()},
	})
}

// Dispatcher runs webhook handlers asynchronously on a bounded worker
// pool; failures are logged by the caller (via the errFn passed to
// Submit) and never retried from here, per spec.md §4.F.
type Dispatcher struct {
	pool *ants.Pool
}

func NewDispatcher(size int) (*Dispatcher, error) {
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool}, nil
}

// Submit enqueues fn for background execution; errFn (if non-nil)
// receives any error fn returns.
func (d *Dispatcher) Submit(fn func() error, errFn func(error)) error {
	return d.pool.Submit(func() {
		if err := fn(); err != nil && errFn != nil {
			errFn(err)
		}
	})
}

func (d *Dispatcher) Release() { d.pool.Release() }

func toDoc(v any) query.Doc {
	b, _ := json.Marshal(v)
	var doc query.Doc
	_ = json.Unmarshal(b, &doc)
	return doc
}

func fromDoc(doc query.Doc, out any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
