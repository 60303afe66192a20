// Package txn provides the optimistic-update coordinator that keeps an
// in-memory record collection convergent with its durable counterpart.
//
// Every mutation walks the same state machine:
//
//	Idle -> Snapshotted -> Applied -> Committed
//	                               -> RolledBack
//
// The change is applied to the in-memory slice first, then persisted. If
// persistence fails the snapshot is restored before the error surfaces, so a
// caller can never observe a value that failed to become durable.
package txn

// State is where the coordinator currently stands in a mutation.
type State int

const (
	Idle State = iota
	Snapshotted
	Applied
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Snapshotted:
		return "snapshotted"
	case Applied:
		return "applied"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Coordinator wraps mutations of one in-memory collection with
// snapshot/apply/commit/rollback semantics. Clone deep-copies a single
// element; when nil, elements are copied by assignment, which is only safe
// for records without pointer fields.
type Coordinator[T any] struct {
	Clone func(T) T

	state   State
	lastErr error
}

func NewCoordinator[T any](clone func(T) T) *Coordinator[T] {
	return &Coordinator[T]{Clone: clone, state: Idle}
}

// State reports the phase reached by the most recent mutation.
func (c *Coordinator[T]) State() State { return c.state }

// LastError reports the error surfaced by the most recent mutation. A
// successful commit clears it.
func (c *Coordinator[T]) LastError() error { return c.lastErr }

// Mutate applies a change optimistically and persists it. apply receives the
// current records and returns the new collection; persist makes it durable.
// On persistence failure the pre-mutation snapshot is restored in *records
// and the persistence error is returned unchanged.
func (c *Coordinator[T]) Mutate(records *[]T, apply func([]T) []T, persist func([]T) error) error {
	snapshot := c.snapshot(*records)
	c.state = Snapshotted

	*records = apply(*records)
	c.state = Applied

	if err := persist(*records); err != nil {
		*records = snapshot
		c.state = RolledBack
		c.lastErr = err
		return err
	}

	c.state = Committed
	c.lastErr = nil
	return nil
}

func (c *Coordinator[T]) snapshot(records []T) []T {
	out := make([]T, len(records))
	if c.Clone == nil {
		copy(out, records)
		return out
	}
	for i, r := range records {
		out[i] = c.Clone(r)
	}
	return out
}
