package events

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Sink receives diagnostic events.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// LogSink writes events as structured log entries.
type LogSink struct {
	log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, ev Event) error {
	fields := logrus.Fields{"kind": ev.Kind}
	if ev.Op != "" {
		fields["op"] = ev.Op
	}
	for k, v := range ev.Args {
		fields[k] = v
	}
	if ev.Stats != nil {
		fields["host"] = ev.Stats.Host
		fields["path"] = ev.Stats.Path
		fields["status_code"] = ev.Stats.StatusCode
		fields["duration_ms"] = ev.Stats.Duration.Milliseconds()
		fields["attempts"] = ev.Stats.Attempts
		if ev.Stats.Err != "" {
			fields["remote_err"] = ev.Stats.Err
		}
	}

	entry := s.log.WithFields(fields)
	switch {
	case ev.Err != "":
		entry.WithField("error", ev.Err).Error("diagnostic event")
	case ev.Kind == KindSeamlessStats && ev.Stats != nil && ev.Stats.Err != "":
		entry.Warn("diagnostic event")
	default:
		entry.Info("diagnostic event")
	}
	return nil
}

// AsyncSink decouples event delivery from the request path: events are
// queued on a bounded buffer and delivered by a worker with bounded retry.
// A delivery failure can never affect a transaction's outcome; when the
// buffer is full the event is dropped and counted.
type AsyncSink struct {
	next       Sink
	queue      chan Event
	retryDelay time.Duration
	maxTries   uint

	dropped uint64
	closed  bool
	mu      sync.Mutex

	done chan struct{}
	once sync.Once
}

// NewAsyncSink starts a worker delivering to next. buffer, retryDelay and
// maxTries bound the queue and the per-event delivery attempts.
func NewAsyncSink(next Sink, buffer int, retryDelay time.Duration, maxTries uint) *AsyncSink {
	if buffer <= 0 {
		buffer = 256
	}
	if maxTries == 0 {
		maxTries = 3
	}
	s := &AsyncSink{
		next:       next,
		queue:      make(chan Event, buffer),
		retryDelay: retryDelay,
		maxTries:   maxTries,
		done:       make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) Emit(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped++
		logrus.WithField("kind", ev.Kind).Warn("event sink closed, dropping event")
		return nil
	}
	select {
	case s.queue <- ev:
	default:
		s.dropped++
		logrus.WithField("kind", ev.Kind).Warn("event queue full, dropping event")
	}
	return nil
}

// Dropped reports how many events were discarded because the queue was full.
func (s *AsyncSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting events and drains the queue. Events emitted after
// Close are dropped, not delivered.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.queue)
		<-s.done
	})
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for ev := range s.queue {
		s.deliver(ev)
	}
}

func (s *AsyncSink) deliver(ev Event) {
	operation := func() (struct{}, error) {
		return struct{}{}, s.next.Emit(context.Background(), ev)
	}
	_, err := backoff.Retry(context.Background(), operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryDelay)),
		backoff.WithMaxTries(s.maxTries),
	)
	if err != nil {
		logrus.WithError(err).WithField("kind", ev.Kind).Warn("event delivery failed")
	}
}
