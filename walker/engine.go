package walker

import (
	"context"

	"github.com/forbearing/jvspatial/entity"
)

// Spawn seeds w's queue with start and runs Drain to completion. It is
// the normal entry point for an endpoint handler that wants a walker
// to run start-to-finish against a single root entity.
func Spawn(ctx context.Context, w Walker, start entity.Ref) *Response {
	b := w.walkerBase()
	b.queue = []queueItem{toItem(start, 0)}
	return Drain(ctx, w)
}

// Drain consumes the queue until it empties, the walker disengages, or
// it pauses. Calling Drain again on a Paused walker resumes consumption
// of whatever queue remained. Returns the same *Response every call
// mutates, so callers may also read w.walkerBase().Response() directly.
func Drain(ctx context.Context, w Walker) *Response {
	b := w.walkerBase()

	b.mu.Lock()
	if b.state == Disengaged {
		b.mu.Unlock()
		return &b.response
	}
	b.state = Running
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.response.Err = ctx.Err().Error()
			b.state = Disengaged
			b.mu.Unlock()
			b.current = nil
			return &b.response
		default:
		}

		b.mu.Lock()
		if len(b.queue) == 0 {
			b.state = Disengaged
			b.mu.Unlock()
			break
		}
		item := b.queue[0]
		b.queue = b.queue[1:]
		b.current = &item
		b.depth = item.depth
		b.mu.Unlock()

		if b.cycleCheck {
			b.mu.Lock()
			if b.visited[item.id] {
				b.mu.Unlock()
				continue
			}
			b.visited[item.id] = true
			b.mu.Unlock()
		}

		if limit := b.checkLimits(item); limit != nil {
			b.mu.Lock()
			b.response.Error = limit
			b.state = Disengaged
			b.mu.Unlock()
			break
		}

		b.totalVisits++
		if b.trailEnabled {
			b.mu.Lock()
			b.trail = append(b.trail, item.id)
			b.mu.Unlock()
		}

		if err := visit(ctx, b, w, item); err != nil {
			b.mu.Lock()
			b.response.Err = err.Error()
			b.state = Disengaged
			b.mu.Unlock()
			break
		}

		b.mu.Lock()
		disengage := b.disengageRequested
		pause := b.pauseRequested
		b.disengageRequested = false
		b.pauseRequested = false
		if disengage {
			b.state = Disengaged
		} else if pause {
			b.state = Paused
		}
		b.mu.Unlock()

		if disengage {
			break
		}
		if pause {
			return &b.response
		}
	}

	b.current = nil
	for _, fn := range entity.ExitHooksFor(b.class) {
		_ = fn(nil, w)
	}
	return &b.response
}

// checkLimits returns a *LimitError if visiting item would exceed the
// configured max_depth or max_total_visits caps, nil otherwise.
func (b *Base) checkLimits(item queueItem) *LimitError {
	if b.maxDepth > 0 && item.depth > b.maxDepth {
		return &LimitError{Cap: "max_depth", Value: item.depth}
	}
	if b.maxTotalVisits > 0 && b.totalVisits+1 > b.maxTotalVisits {
		return &LimitError{Cap: "max_total_visits", Value: b.totalVisits + 1}
	}
	return nil
}

// visit loads item's entity and dispatches the resolved entity-side and
// walker-side hooks against it in the order entity.Hooks.Resolve
// returns them, stopping early on a Skip, Disengage or Pause request
// or the first error.
func visit(ctx context.Context, b *Base, w Walker, item queueItem) error {
	e, err := entity.Load(ctx, item.toRef())
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}

	for _, fn := range entity.Hooks.Resolve(item.class, b.class) {
		if err := fn(e, w); err != nil {
			return err
		}
		b.mu.Lock()
		skip := b.skipRequested
		b.skipRequested = false
		disengage := b.disengageRequested
		pause := b.pauseRequested
		b.mu.Unlock()
		if skip {
			return nil
		}
		if disengage || pause {
			return nil
		}
	}
	return nil
}
