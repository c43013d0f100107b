package walker

import "github.com/cockroachdb/errors"

// QueueError is returned by InsertBefore/InsertAfter when the target
// entity isn't present in the queue, per spec.md §4.E.
type QueueError struct {
	Op string
}

func (e *QueueError) Error() string { return "walker: queue error: " + e.Op }

func newQueueError(op string) error { return &QueueError{Op: op} }

// LimitError reports which cap (max_depth or max_total_visits) a walker
// exceeded; it is what gets placed into response on termination.
type LimitError struct {
	Cap   string
	Value int
}

func (e *LimitError) Error() string {
	return errors.Newf("walker: limit exceeded: %s=%d", e.Cap, e.Value).Error()
}
