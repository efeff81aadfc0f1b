package executor

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/cascade/internal/progress"
)

// Stream is the consumer side of a run.
type Stream struct {
	events chan progress.Event
	done   chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc

	mu    sync.Mutex
	seq   int
	now   func() time.Time
	runID string
}

func newStream(runID string, buffer int, cancel context.CancelFunc) *Stream {
	return &Stream{
		events: make(chan progress.Event, buffer),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		cancel: cancel,
		now:    time.Now,
		runID:  runID,
	}
}

// Events returns the ordered event channel. It is closed after the
// terminal event, or when the run ends after Stop.
func (s *Stream) Events() <-chan progress.Event { return s.events }

// Done is closed once the run goroutine has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Stop tells the run that nobody is listening any more. No new recompute
// calls start; in-flight ones finish and their events are dropped. Safe to
// call more than once.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.cancel()
	})
}

// Drain collects every event until the stream closes.
func (s *Stream) Drain() []progress.Event {
	var out []progress.Event
	for ev := range s.events {
		out = append(out, ev)
	}
	return out
}

// emit stamps ev and delivers it, holding the lock across the send so the
// channel order matches the sequence numbers.
func (s *Stream) emit(ev progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.RunID = s.runID
	ev.Seq = s.seq
	ev.Time = s.now()
	s.seq++

	select {
	case s.events <- ev:
	case <-s.stop:
	}
}
