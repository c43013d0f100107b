package walker

import (
	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/hook"
)

// OnVisit registers fn on walkerClass, matched against the named
// entity classes (empty = catch-all), the walker-side half of the
// bidirectional registry described in spec.md §3's "Visit hook
// registry."
func OnVisit(walkerClass string, entityClasses []string, fn hook.Func) {
	entity.Hooks.OnWalker(walkerClass, entityClasses, fn)
}

// subscriber receives emit() events for observability; failures are
// logged and swallowed per spec.md §4.E.
type subscriber func(event string, payload any)

var subscribers []subscriber

// Subscribe registers fn to receive every Emit call across all walkers.
func Subscribe(fn func(event string, payload any)) { subscribers = append(subscribers, fn) }

// Emit fans out event/payload to every subscriber, non-blocking and
// isolated: a panicking subscriber is recovered and does not affect
// the walker or other subscribers.
func (b *Base) Emit(event string, payload any) {
	for _, sub := range subscribers {
		go func(sub subscriber) {
			defer func() { _ = recover() }()
			sub(event, payload)
		}(sub)
	}
}
