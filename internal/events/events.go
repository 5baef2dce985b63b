// Package events carries structured records about matches and rating decisions to
// whoever wants them: the log, the event table, or nothing at all. Emitting never
// blocks on delivery and delivery failures never reach the emitter.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindMatchCreated           Kind = "match_created"
	KindPerformanceAnalysis    Kind = "performance_analysis"
	KindExceptionalPerformance Kind = "exceptional_performance"
	KindSafetyViolation        Kind = "safety_violation"
	KindRatingAdjustment       Kind = "rating_adjustment"
)

type Record struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"` // player or match id
	Payload   any       `json:"payload"`
}

func New(kind Kind, subject string, payload any) Record {
	return Record{Kind: kind, Timestamp: time.Now().UTC(), Subject: subject, Payload: payload}
}

type Sink interface {
	Emit(Record)
}

type discard struct{}

func (discard) Emit(Record) {}

// Discard drops every record.
var Discard Sink = discard{}

type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(rec Record) {
	ev := s.logger.Info()
	if rec.Kind == KindSafetyViolation {
		ev = s.logger.Warn()
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", string(rec.Kind)).Msg("failed to encode event payload")
		return
	}
	ev.Str("kind", string(rec.Kind)).
		Str("subject", rec.Subject).
		Time("event_time", rec.Timestamp).
		RawJSON("payload", payload).
		Msg("event")
}

// Store persists event records; repository.EventRepository satisfies it.
type Store interface {
	SaveEvent(ctx context.Context, rec Record) error
}

type StoreSink struct {
	store   Store
	timeout time.Duration
	logger  zerolog.Logger
}

func NewStoreSink(store Store, timeout time.Duration, logger zerolog.Logger) *StoreSink {
	return &StoreSink{store: store, timeout: timeout, logger: logger}
}

func (s *StoreSink) Emit(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.SaveEvent(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(rec.Kind)).Str("subject", rec.Subject).Msg("failed to store event")
	}
}

type Fanout []Sink

func (f Fanout) Emit(rec Record) {
	for _, s := range f {
		s.Emit(rec)
	}
}

// AsyncSink hands records to a single drain goroutine through a bounded buffer.
// When the buffer is full the record is dropped and counted.
type AsyncSink struct {
	next    Sink
	ch      chan Record
	dropped atomic.Int64
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAsyncSink(next Sink, buffer int) *AsyncSink {
	s := &AsyncSink{next: next, ch: make(chan Record, buffer)}
	s.wg.Add(1)
	go s.drain()
	return s
}

func (s *AsyncSink) drain() {
	defer s.wg.Done()
	for rec := range s.ch {
		s.next.Emit(rec)
	}
}

func (s *AsyncSink) Emit(rec Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- rec:
	default:
		s.dropped.Add(1)
	}
}

func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting records and waits until the buffer is delivered.
func (s *AsyncSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
