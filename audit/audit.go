// Package audit persists the "log" collection spec.md §6 exposes via
// GET /api/logs, grounded on the ancestor project's auditmanager
// package (pkg/auditmanager/auditmanager.go): a RecordOperation call
// that either enqueues onto a buffer for async drain or writes
// synchronously, gated by config.Audit. The ancestor buffers onto a
// ds/queue/circularbuffer; that type isn't available here, so Entry
// is buffered on a plain Go channel drained by one worker goroutine
// instead — same async-write shape, smaller primitive.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/logger"
	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

// Collection is the persisted collection name, per spec.md §6's
// "Persisted collections... log".
const Collection = "log"

// Entry is one audit/access record. Category distinguishes the kind
// of event ("access", "auth", "webhook", ...); AgentID is the acting
// user or API key id, when known.
type Entry struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	AgentID   string    `json:"agent_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	Status    int       `json:"status,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	cfg     = &config.Audit{Enable: false}
	queue   chan *Entry
	backend storage.Adapter
)

// Init wires the audit configuration and starts the async drain
// worker when AsyncWrite is set; call once during server bootstrap
// after the storage backend is available.
func Init(c *config.Audit, a storage.Adapter) {
	cfg, backend = c, a
	if cfg.Enable && cfg.AsyncWrite {
		queue = make(chan *Entry, cfg.BatchSize)
		go drain()
	}
}

func drain() {
	for e := range queue {
		if err := write(context.Background(), e); err != nil && logger.Audit != nil {
			logger.Audit.Warnw("failed to persist audit entry", "error", err.Error())
		}
	}
}

// Record appends one audit entry, synchronously or via the drain
// worker depending on configuration. A disabled audit subsystem is a
// silent no-op, matching RecordOperation's "skip if audit is disabled".
func Record(ctx context.Context, e *Entry) error {
	if !cfg.Enable {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if cfg.AsyncWrite && queue != nil {
		select {
		case queue <- e:
		default:
			// Buffer full: drop rather than block the request path: the
			// ancestor's circular buffer overwrites oldest entries under
			// the same pressure.
		}
		return nil
	}
	return write(ctx, e)
}

func write(ctx context.Context, e *Entry) error {
	if backend == nil {
		return nil
	}
	_, err := backend.Save(ctx, Collection, toDoc(e))
	return err
}

// List returns a page of entries matching the given filters, newest
// first, for GET /api/logs?category=&start_date=&end_date=&agent_id=&page=&page_size=.
func List(ctx context.Context, a storage.Adapter, category, agentID string, start, end time.Time, page, pageSize int) ([]*Entry, int64, error) {
	var exprs []query.Expr
	if category != "" {
		exprs = append(exprs, query.Field{Path: "category", Op: query.Eq{Value: category}})
	}
	if agentID != "" {
		exprs = append(exprs, query.Field{Path: "agent_id", Op: query.Eq{Value: agentID}})
	}
	if !start.IsZero() {
		exprs = append(exprs, query.Field{Path: "created_at", Op: query.Gte{Value: start}})
	}
	if !end.IsZero() {
		exprs = append(exprs, query.Field{Path: "created_at", Op: query.Lte{Value: end}})
	}
	var q query.Expr
	if len(exprs) > 0 {
		q = query.And{Exprs: exprs}
	}

	total, err := a.Count(ctx, Collection, q)
	if err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	docs, err := a.Find(ctx, Collection, q, storage.FindOptions{
		Sort:   []storage.IndexField{{Name: "created_at", Direction: -1}},
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]*Entry, 0, len(docs))
	for _, doc := range docs {
		e := new(Entry)
		if err := fromDoc(doc, e); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, nil
}

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
