// Package events carries analysis notifications from the core to whatever
// hosts it.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

// Kind names an event. The values are the wire names used by editor hosts.
type Kind string

const (
	AnalysisError                  Kind = "Analysis_Error"
	AnalysisCompleted              Kind = "Analysis_Completed"
	AnalysisCompletedEmptyProblems Kind = "Analysis_Completed_Empty_Problems"
	CurrentProject                 Kind = "CURRENT_PROJECT"
)

// DefaultBuffer is the channel capacity used by NewBus when size is not positive.
const DefaultBuffer = 64

// Event is a tagged union: which fields are set depends on Kind.
//
//	AnalysisError                   Path, Err
//	AnalysisCompleted               Path, Count, Findings
//	AnalysisCompletedEmptyProblems  Path
//	CurrentProject                  Project, Path
type Event struct {
	Kind     Kind
	Path     string
	Project  string
	Count    int
	Findings []findings.Finding
	Err      error
}

// Bus fans events out over a buffered channel. Publishing never blocks: when
// the buffer is full the event is dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
}

var closedEvents = func() chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}()

// NewBus returns a bus buffering up to size events.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish enqueues ev. It reports false if the bus is closed or full.
func (b *Bus) Publish(ev Event) bool {
	if b == nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.ch <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Events returns the receive side of the bus. It is closed by Close.
// A nil bus yields a closed channel.
func (b *Bus) Events() <-chan Event {
	if b == nil {
		return closedEvents
	}
	return b.ch
}

// Dropped returns how many events were lost to a full buffer.
func (b *Bus) Dropped() int {
	if b == nil {
		return 0
	}
	return int(b.dropped.Load())
}

// Close stops the bus. Further publishes are ignored.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}

// Drain returns every event currently buffered without blocking.
func (b *Bus) Drain() []Event {
	if b == nil {
		return nil
	}
	var out []Event
	for {
		select {
		case ev, ok := <-b.ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
