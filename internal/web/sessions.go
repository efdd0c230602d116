package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/emis-viewer/internal/logging"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// SessionCookie names the cookie carrying the viewer session id.
const SessionCookie = "emis_session"

// ControllerFactory builds the controller of a new session.
type ControllerFactory func(sessionID string) *viewer.Controller

type session struct {
	id       string
	ctrl     *viewer.Controller
	lastSeen time.Time
}

// SessionStore maps session ids to their controllers. Each browser session
// owns one controller; nothing is shared between sessions.
type SessionStore struct {
	newController ControllerFactory
	idleTimeout   time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// NewSessionStore creates an empty store. Sessions unused for idleTimeout
// are closed by Sweep.
func NewSessionStore(factory ControllerFactory, idleTimeout time.Duration) *SessionStore {
	return &SessionStore{
		newController: factory,
		idleTimeout:   idleTimeout,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Acquire returns the controller for id, creating a session when id is
// unknown or empty. The returned id is the one to hand back to the client.
func (st *SessionStore) Acquire(id string) (string, *viewer.Controller, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return "", nil, viewer.ErrClosed
	}

	if s, ok := st.sessions[id]; ok && id != "" {
		s.lastSeen = st.now()
		return s.id, s.ctrl, nil
	}

	s := &session{id: uuid.NewString(), lastSeen: st.now()}
	s.ctrl = st.newController(s.id)
	st.sessions[s.id] = s
	slog.Debug("session created", "session_id", s.id, "sessions", len(st.sessions))
	return s.id, s.ctrl, nil
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many it closed.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.idleTimeout)

	st.mu.Lock()
	var expired []*session
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.ctrl.Close()
		slog.Debug("session expired", "session_id", s.id)
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started", "interval", interval, "idle_timeout", st.idleTimeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("idle sessions closed", "closed", n, "remaining", st.Len())
			}
		}
	}
}

// CloseAll closes every session and rejects new ones.
func (st *SessionStore) CloseAll() {
	st.mu.Lock()
	st.closed = true
	all := make([]*session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	clear(st.sessions)
	st.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ctrl.Close()
		}()
	}
	wg.Wait()
}

// withSession resolves the session cookie, issuing a new one when needed,
// and stores the controller in the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		sid, ctrl, err := s.sessions.Acquire(id)
		if err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		if sid != id {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := logging.WithSessionID(r.Context(), sid)
		ctx = withController(ctx, ctrl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
