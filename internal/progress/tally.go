package progress

import (
	"context"
	"sync"
)

// Tally is a sink that keeps every event it sees.
type Tally struct {
	mu     sync.Mutex
	events []Event
}

func (t *Tally) Publish(_ context.Context, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (t *Tally) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Kinds returns the kinds of the recorded events, in order.
func (t *Tally) Kinds() []Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Kind, len(t.events))
	for i, ev := range t.events {
		out[i] = ev.Kind
	}
	return out
}

// Results returns the artifact-result events keyed by path.
func (t *Tally) Results() map[string]Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Event)
	for _, ev := range t.events {
		if ev.Kind == KindArtifactResult {
			out[ev.Path] = ev
		}
	}
	return out
}
