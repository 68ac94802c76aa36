package calc

import (
	"context"
	"fmt"
	"sync"

	"pairScope/internal/model"
)

// State is the request lifecycle shown to the presentation layer.
type State int

const (
	StateIdle State = iota
	StateComputing
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is an immutable view of the lifecycle. Result is the last
// resolved calculation and stays set after a later failure.
type Snapshot struct {
	State   State
	Result  *model.Calculation
	Err     error
	Version uint64
}

// Lifecycle serializes calculations and publishes every transition.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	prev    State
	result  *model.Calculation
	err     error
	version uint64
	subs    map[chan Snapshot]struct{}
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{subs: make(map[chan Snapshot]struct{})}
}

func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Begin moves to Computing. It fails with ErrBusy while another calculation
// is in flight.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateComputing {
		return ErrBusy
	}
	l.prev = l.state
	l.state = StateComputing
	l.publishLocked()
	return nil
}

// Resolve records a finished calculation.
func (l *Lifecycle) Resolve(result *model.Calculation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateResolved
	l.result = result
	l.err = nil
	l.publishLocked()
}

// Fail records err, keeping the previous result visible.
func (l *Lifecycle) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateFailed
	l.err = err
	l.publishLocked()
}

// Abort leaves Computing without an outcome, restoring the state that was
// current before Begin.
func (l *Lifecycle) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateComputing {
		return
	}
	l.state = l.prev
	l.publishLocked()
}

// Dismiss clears the result and failure. An in-flight calculation is not
// affected.
func (l *Lifecycle) Dismiss() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = nil
	l.err = nil
	if l.state != StateComputing {
		l.state = StateIdle
	}
	l.publishLocked()
}

// Subscribe returns a channel that receives the current snapshot and every
// later one. Slow readers only see the latest snapshot. The channel is
// closed when ctx is done.
func (l *Lifecycle) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	ch <- l.snapshotLocked()
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch
}

func (l *Lifecycle) snapshotLocked() Snapshot {
	return Snapshot{State: l.state, Result: l.result, Err: l.err, Version: l.version}
}

func (l *Lifecycle) publishLocked() {
	l.version++
	snap := l.snapshotLocked()
	for ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
