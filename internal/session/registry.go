package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-assistant/internal/conversation"
	"github.com/iliyamo/cinema-assistant/internal/results"
)

// Deps are shared by every session of a Registry.
type Deps struct {
	Sender       conversation.Sender
	Store        results.Store
	DismissDelay time.Duration
}

// Registry owns the live sessions.  Sessions idle for longer than the TTL
// are evicted and their resources released.
type Registry struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{deps: deps, ttl: ttl, now: time.Now, sessions: make(map[string]*Session)}
}

// NewID returns a fresh session id.
func NewID() string { return uuid.NewString() }

// Get returns the session for id, creating it when unknown, and marks it
// as recently used.
func (r *Registry) Get(id string) *Session {
	now := r.now()
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = newSession(id, r.deps, now)
		r.sessions[id] = s
	}
	r.mu.Unlock()
	s.touch(now)
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var evicted []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range evicted {
		s.close()
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Close releases every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}
