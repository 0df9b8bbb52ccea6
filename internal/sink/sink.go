// Package sink mirrors stored reading records to optional external services.
// Mirroring is best effort: failures are logged and counted, never returned
// to the request that stored the record.
package sink

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"readinglog/internal/metrics"
)

// RecordEvent is a stored reading record flattened for external stores
type RecordEvent struct {
	RecordID           int64
	ChildName          string
	ChildGrade         string
	WordText           string
	WordListName       string
	CouldRead          bool
	ReadingTimeSeconds *float64
	MisreadAs          string
	Notes              string
	FontName           string
	CreatedAt          time.Time
}

// Notifier receives committed reading records. Submit must not fail the caller.
type Notifier interface {
	Submit(ctx context.Context, ev RecordEvent)
}

// Sink is one external destination
type Sink interface {
	Name() string
	Send(ctx context.Context, ev RecordEvent) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Submit(context.Context, RecordEvent) {}

// Fanout sends each event to all of its sinks concurrently and waits for them
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
}

// NewFanout returns a notifier over sinks. Each send is bounded by timeout.
func NewFanout(timeout time.Duration, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, timeout: timeout}
}

// Len returns the number of configured sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Submit awaits every sink. Sends outlive a cancelled request context so a
// client disconnect does not drop the mirror.
func (f *Fanout) Submit(ctx context.Context, ev RecordEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	var g errgroup.Group
	for _, s := range f.sinks {
		g.Go(func() error {
			err := s.Send(ctx, ev)
			metrics.ObserveSink(s.Name(), err)
			if err != nil {
				slog.Warn("sink submission failed", "sink", s.Name(), "record_id", ev.RecordID, "error", err)
			} else {
				slog.Debug("sink submission succeeded", "sink", s.Name(), "record_id", ev.RecordID)
			}
			return nil
		})
	}
	_ = g.Wait()
}
