// Package bridge holds the per-token session state and the two update
// delivery disciplines: long-poll drains of a buffered backlog, and webhook
// pushes through a fixed worker pool.
package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grambridge/grambridge/internal/invoke"
	"github.com/grambridge/grambridge/internal/mtproto"
)

// Session is the full runtime state of one bot token: the underlying client
// (created once, never replaced), the poll buffer, and the optional webhook
// registration with its delivery queue.
type Session struct {
	token  string
	client mtproto.Client
	cfg    sessionConfig
	seq    atomic.Uint64

	mu         sync.Mutex
	buffer     []Envelope
	webhookURL string
	queue      chan Envelope
	stop       chan struct{}
	workersWG  sync.WaitGroup

	// notify wakes pollers on buffer append. Capacity one: a pending wake
	// is never lost and a flood of appends never blocks ingestion.
	notify chan struct{}
}

type sessionConfig struct {
	httpClient    *http.Client
	workers       int
	queueCapacity int
	logger        *slog.Logger
	metrics       DeliveryMetrics
}

// DeliveryMetrics receives webhook delivery outcomes. All methods may be
// called concurrently; a nil-valued implementation field is not allowed —
// use noopMetrics instead.
type DeliveryMetrics interface {
	Delivered()
	Dropped()
}

type noopMetrics struct{}

func (noopMetrics) Delivered() {}
func (noopMetrics) Dropped()   {}

func newSession(token string, cfg sessionConfig) *Session {
	return &Session{
		token:  token,
		cfg:    cfg,
		notify: make(chan struct{}, 1),
	}
}

// Client returns the underlying protocol client for direct invocation.
func (s *Session) Client() mtproto.Client {
	return s.client
}

// HandleEvent is the ingestion callback, invoked on the underlying client's
// event loop goroutine for every inbound event. It must never block: pushes
// onto a full delivery queue fall back to the poll buffer.
func (s *Session) HandleEvent(event mtproto.Event) {
	body, ok := invoke.NormalizeResponse(event.Body).(map[string]any)
	if !ok {
		body = event.Body
	}
	env := Envelope{
		Kind:     event.Kind,
		Body:     body,
		UpdateID: s.seq.Add(1),
	}

	s.mu.Lock()
	if s.queue != nil {
		select {
		case s.queue <- env:
			s.mu.Unlock()
			return
		default:
			// Queue full; buffering keeps the event loop moving.
		}
	}
	s.buffer = append(s.buffer, env)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Drain returns all buffered envelopes, waiting up to timeout for at least
// one to arrive. A zero timeout returns immediately. The drain is atomic:
// concurrent pollers never observe the same envelope twice, and envelopes
// appended during the wait are included in the flush.
func (s *Session) Drain(ctx context.Context, timeout time.Duration) []Envelope {
	s.mu.Lock()
	push := s.webhookURL != ""
	s.mu.Unlock()
	if push {
		// Push mode owns the backlog; pollers get nothing until the webhook
		// is deleted.
		return []Envelope{}
	}

	if timeout <= 0 {
		return s.flush()
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		if len(s.buffer) > 0 {
			out := s.buffer
			s.buffer = nil
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-deadline.C:
			return s.flush()
		case <-ctx.Done():
			return []Envelope{}
		}
	}
}

// flush atomically takes and clears the buffer.
func (s *Session) flush() []Envelope {
	s.mu.Lock()
	out := s.buffer
	s.buffer = nil
	s.mu.Unlock()
	if out == nil {
		out = []Envelope{}
	}
	return out
}

// Buffered returns the number of updates awaiting delivery.
func (s *Session) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.buffer)
	if s.queue != nil {
		n += len(s.queue)
	}
	return n
}

// WebhookURL returns the registered webhook URL, or "" in poll mode.
func (s *Session) WebhookURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhookURL
}

// Close tears down webhook workers and the underlying client. Only the
// registry calls this, and only at process shutdown.
func (s *Session) Close() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
		s.queue = nil
		s.webhookURL = ""
	}
	s.mu.Unlock()
	s.workersWG.Wait()
	if s.client != nil {
		s.client.Close()
	}
}
