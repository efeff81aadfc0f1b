package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/cascade/internal/ctxlog"
)

// Sink consumes events. Implementations may also implement io.Closer.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// JSONSink writes one JSON object per line.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONSink creates a sink writing newline-delimited JSON to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(ev)
}

// TextSink writes a short human-readable line per event.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, FormatText(ev))
	return err
}

// FormatText renders ev the way TextSink prints it.
func FormatText(ev Event) string {
	switch ev.Kind {
	case KindUnprocessedWarning:
		var b strings.Builder
		fmt.Fprintf(&b, "⚠️  %d artifact(s) cannot be scheduled", len(ev.Paths))
		for _, is := range ev.Issues {
			fmt.Fprintf(&b, "\n   %s: %s", is.Path, is.Reason)
			if len(is.Related) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(is.Related, ", "))
			}
		}
		return b.String()
	case KindArtifactResult:
		if ev.Status == StatusFailure {
			return fmt.Sprintf("❌ [%d] %s: %s", ev.Batch, ev.Path, ev.Error)
		}
		if ev.Detail != "" {
			return fmt.Sprintf("✅ [%d] %s (%s)", ev.Batch, ev.Path, ev.Detail)
		}
		return fmt.Sprintf("✅ [%d] %s", ev.Batch, ev.Path)
	case KindBatchComplete:
		return fmt.Sprintf("📦 batch %d complete (%d artifact(s))", ev.Batch, len(ev.Paths))
	case KindRunComplete:
		return "🏁 run complete" + summaryText(ev.Summary)
	case KindRunFailed:
		return fmt.Sprintf("💥 run failed: %s%s", ev.Error, summaryText(ev.Summary))
	case KindRunCanceled:
		return "🛑 run canceled" + summaryText(ev.Summary)
	default:
		return string(ev.Kind)
	}
}

func summaryText(s *Summary) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf(": %d batch(es), %d succeeded, %d failed, %d unprocessed in %s",
		s.Batches, s.Succeeded, s.Failed, s.Unprocessed, s.Duration.Round(time.Millisecond))
}

// LogSink mirrors events into the context logger at debug level, and
// failures at warn level.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx)
	args := []any{"kind", ev.Kind, "run_id", ev.RunID, "seq", ev.Seq, "batch", ev.Batch}
	if ev.Path != "" {
		args = append(args, "path", ev.Path)
	}
	if ev.Error != "" {
		args = append(args, "error", ev.Error)
		logger.Warn("Run event.", args...)
		return nil
	}
	logger.Debug("Run event.", args...)
	return nil
}

// Fanout publishes each event to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that implements io.Closer.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Pump drains events into sink until the channel closes and returns the
// terminal event, if one was seen. Sink errors are logged, never fatal,
// so a broken consumer cannot stall the run.
func Pump(ctx context.Context, events <-chan Event, sink Sink) (Event, bool) {
	logger := ctxlog.FromContext(ctx)
	var last Event
	var done bool
	for ev := range events {
		if err := sink.Publish(ctx, ev); err != nil {
			logger.Warn("Failed to publish run event.", "kind", ev.Kind, "seq", ev.Seq, "error", err)
		}
		if ev.Kind.Terminal() {
			last, done = ev, true
		}
	}
	return last, done
}
