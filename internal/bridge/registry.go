package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/grambridge/grambridge/internal/mtproto"
)

// RegistryConfig carries the tunables every session inherits.
type RegistryConfig struct {
	Factory        mtproto.Factory
	Workers        int
	QueueCapacity  int
	WebhookTimeout time.Duration
	Logger         *slog.Logger
	Metrics        DeliveryMetrics
}

// Registry owns all live sessions, one per bot token. The first request for
// a token creates its client; every later request reuses it. Creation is
// serialized per token so concurrent first requests never race into two
// clients for the same bot.
type Registry struct {
	cfg        RegistryConfig
	httpClient *http.Client

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	closed   bool
}

// sessionEntry is the per-token creation slot. ready closes once session and
// err are final; waiters block on it instead of holding the registry lock
// through the handshake.
type sessionEntry struct {
	ready   chan struct{}
	session *Session
	err     error
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 3 * time.Second
	}
	return &Registry{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.WebhookTimeout},
		sessions:   make(map[string]*sessionEntry),
	}
}

// GetOrCreate returns the session for token, creating and authenticating the
// underlying client on first use. A failed creation is not cached: the entry
// is removed so a later request can retry with a corrected token.
func (r *Registry) GetOrCreate(ctx context.Context, token string) (*Session, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if entry, ok := r.sessions[token]; ok {
		r.mu.Unlock()
		select {
		case <-entry.ready:
			return entry.session, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	entry := &sessionEntry{ready: make(chan struct{})}
	r.sessions[token] = entry
	r.mu.Unlock()

	session := newSession(token, sessionConfig{
		httpClient:    r.httpClient,
		workers:       r.cfg.Workers,
		queueCapacity: r.cfg.QueueCapacity,
		logger:        r.cfg.Logger.With("token", redactToken(token)),
		metrics:       r.cfg.Metrics,
	})
	client, err := r.cfg.Factory(ctx, token, session.HandleEvent)
	if err != nil {
		entry.err = err
		close(entry.ready)
		r.mu.Lock()
		delete(r.sessions, token)
		r.mu.Unlock()
		r.cfg.Logger.Warn("session creation failed", "token", redactToken(token), "error", err)
		return nil, err
	}
	session.client = client
	entry.session = session
	close(entry.ready)
	r.cfg.Logger.Info("session created", "token", redactToken(token))
	return session, nil
}

// Len reports the number of live sessions, counting in-flight creations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close tears down every session and refuses further creation.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		<-entry.ready
		if entry.session != nil {
			entry.session.Close()
		}
	}
}

// redactToken keeps the bot ID prefix for log correlation and hides the
// secret part after the colon.
func redactToken(token string) string {
	for i := range len(token) {
		if token[i] == ':' {
			return token[:i+1] + "..."
		}
	}
	if len(token) > 6 {
		return token[:6] + "..."
	}
	return "..."
}
