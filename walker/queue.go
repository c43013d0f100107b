package walker

import "github.com/forbearing/jvspatial/entity"

// toItem converts an entity.Ref into the queue's internal identity at
// the given traversal depth.
func toItem(ref entity.Ref, depth int) queueItem {
	return queueItem{id: ref.ID, class: ref.Class, kind: ref.Kind, depth: depth}
}

func (q queueItem) toRef() entity.Ref {
	return entity.Ref{ID: q.id, Class: q.class, Kind: q.kind}
}

// Append adds refs to the back of the queue, one traversal step deeper
// than the entity currently being visited.
func (b *Base) Append(refs ...entity.Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range refs {
		b.queue = append(b.queue, toItem(r, b.depth+1))
	}
}

// Prepend adds refs to the front of the queue, preserving their order.
func (b *Base) Prepend(refs ...entity.Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]queueItem, len(refs))
	for i, r := range refs {
		items[i] = toItem(r, b.depth+1)
	}
	b.queue = append(items, b.queue...)
}

// AddNext is an alias for Prepend: both insert ahead of whatever
// remains in the queue, since the entity currently being visited has
// already been dequeued by the time a hook can call either.
func (b *Base) AddNext(refs ...entity.Ref) { b.Prepend(refs...) }

// InsertBefore inserts ref immediately before the first queued entry
// matching target, returning a *QueueError if target isn't queued.
func (b *Base) InsertBefore(target, ref entity.Ref) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(target)
	if idx < 0 {
		return newQueueError("insert_before: target not queued")
	}
	b.queue = append(b.queue[:idx], append([]queueItem{toItem(ref, b.depth+1)}, b.queue[idx:]...)...)
	return nil
}

// InsertAfter inserts ref immediately after the first queued entry
// matching target, returning a *QueueError if target isn't queued.
func (b *Base) InsertAfter(target, ref entity.Ref) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(target)
	if idx < 0 {
		return newQueueError("insert_after: target not queued")
	}
	idx++
	b.queue = append(b.queue[:idx], append([]queueItem{toItem(ref, b.depth+1)}, b.queue[idx:]...)...)
	return nil
}

// Dequeue removes every queued entry whose id matches one of refs and
// returns the removed set, in their original queue order. After
// Dequeue(xs...) returns, IsQueued(x) is false for every x in xs, per
// the queue law dequeue(xs) / is_queued(x) must satisfy.
func (b *Base) Dequeue(refs ...entity.Ref) []entity.Ref {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(refs) == 0 || len(b.queue) == 0 {
		return nil
	}
	want := make(map[string]bool, len(refs))
	for _, r := range refs {
		want[r.ID] = true
	}
	var removed []entity.Ref
	kept := b.queue[:0:0]
	for _, q := range b.queue {
		if want[q.id] {
			removed = append(removed, q.toRef())
			continue
		}
		kept = append(kept, q)
	}
	b.queue = kept
	return removed
}

// ClearQueue empties the remaining queue without visiting it.
func (b *Base) ClearQueue() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
}

// GetQueue returns a snapshot of the queued refs, in visit order.
func (b *Base) GetQueue() []entity.Ref {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.Ref, len(b.queue))
	for i, q := range b.queue {
		out[i] = q.toRef()
	}
	return out
}

// IsQueued reports whether ref is still waiting in the queue.
func (b *Base) IsQueued(ref entity.Ref) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.indexOf(ref) >= 0
}

// indexOf must be called with b.mu held.
func (b *Base) indexOf(ref entity.Ref) int {
	for i, q := range b.queue {
		if q.id == ref.ID {
			return i
		}
	}
	return -1
}
