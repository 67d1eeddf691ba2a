// Package audit records feature-flag decisions for support and debugging.
// Every evaluation produces one record; sinks decide what to do with it
// (structured log line, bounded in-memory ring for the debug endpoint).
package audit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ratewave/featuregate/internal/engine"
)

// Record is one evaluated decision with its timestamp.
type Record struct {
	Decision    engine.Decision `json:"decision"`
	EvaluatedAt time.Time       `json:"evaluatedAt"`
}

// Sink receives decision records. Implementations must be safe for
// concurrent use; Write must never block evaluation for long.
type Sink interface {
	Write(rec Record)
}

// Recorder fans decisions out to its sinks. It implements engine.Observer.
type Recorder struct {
	sinks []Sink
	now   func() time.Time
}

// NewRecorder creates a recorder writing to the given sinks.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, now: time.Now}
}

// ObserveDecision satisfies engine.Observer.
func (r *Recorder) ObserveDecision(d engine.Decision) {
	rec := Record{Decision: d, EvaluatedAt: r.now().UTC()}
	for _, sink := range r.sinks {
		sink.Write(rec)
	}
}

// SlogSink emits one structured line per decision.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink creates a sink logging at debug for allows and info for denies.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Write(rec Record) {
	attrs := []any{
		"feature", rec.Decision.Feature,
		"enabled", rec.Decision.Enabled,
		"reason", string(rec.Decision.Reason),
	}
	if rec.Decision.DeniedBy != "" {
		attrs = append(attrs, "deniedBy", rec.Decision.DeniedBy)
	}
	if rec.Decision.Enabled {
		s.log.Debug("flag decision", attrs...)
		return
	}
	s.log.Info("flag decision", attrs...)
}

// Ring keeps the most recent records in memory for the debug endpoint.
type Ring struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool
}

// NewRing creates a ring holding up to capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 128
	}
	return &Ring{records: make([]Record, capacity)}
}

func (r *Ring) Write(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the buffered records, oldest first.
func (r *Ring) Recent() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Record, r.next)
		copy(out, r.records[:r.next])
		return out
	}
	out := make([]Record, 0, len(r.records))
	out = append(out, r.records[r.next:]...)
	out = append(out, r.records[:r.next]...)
	return out
}
