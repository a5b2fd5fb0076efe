// Package analytics defines the fire-and-forget event sink the HTTP edge
// reports to, plus a buffered-channel reference implementation that never
// blocks the request path.
package analytics

import (
	"go.uber.org/zap"
)

// Event is one recorded request outcome.
type Event struct {
	ProjectID string
	ChainID   string
	Provider  string
	Status    int
	Attempts  int
}

// Sink records events without blocking the caller.
type Sink interface {
	Record(e Event)
}

// AsyncSink buffers events on a channel drained by one background
// goroutine, dropping events rather than blocking when the buffer is
// full.
type AsyncSink struct {
	events chan Event
	log    *zap.Logger
	done   chan struct{}
}

// NewAsyncSink starts the drain goroutine and returns a ready Sink.
// Callers should call Close on shutdown to drain remaining events.
func NewAsyncSink(bufferSize int, log *zap.Logger) *AsyncSink {
	s := &AsyncSink{
		events: make(chan Event, bufferSize),
		log:    log,
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

// Record implements Sink. If the buffer is full, the event is dropped and
// logged at debug level rather than blocking the response path.
func (s *AsyncSink) Record(e Event) {
	select {
	case s.events <- e:
	default:
		s.log.Debug("analytics: buffer full, dropping event",
			zap.String("project_id", e.ProjectID), zap.String("chain_id", e.ChainID))
	}
}

// Close stops accepting new events and waits for the drain goroutine to
// flush what remains.
func (s *AsyncSink) Close() {
	close(s.events)
	<-s.done
}

func (s *AsyncSink) drain() {
	defer close(s.done)
	for e := range s.events {
		s.log.Info("analytics event",
			zap.String("project_id", e.ProjectID),
			zap.String("chain_id", e.ChainID),
			zap.String("provider", e.Provider),
			zap.Int("status", e.Status),
			zap.Int("attempts", e.Attempts),
		)
	}
}
