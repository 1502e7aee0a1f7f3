package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session domain.Session
	Signal  core.SignalConnection
	Cancel  context.CancelFunc
}

// Target is a session's outbound channel as seen by the dispatcher.
type Target struct {
	SID    domain.SessionID
	Signal core.SignalConnection
}

// Registry owns every connected session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*sessionEntry),
		now:      time.Now,
	}
}

// Register creates an unassigned session bound to its signal connection.
// cancel tears the connection down; it may be nil.
func (r *Registry) Register(sig core.SignalConnection, cancel context.CancelFunc) domain.SessionID {
	sid := domain.SessionID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Session: domain.Session{
			ID:          sid,
			Role:        domain.RoleUnassigned,
			Profile:     domain.NewProfile("", ""),
			ConnectedAt: r.now(),
		},
		Signal: sig,
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered session")
	return sid
}

func (r *Registry) SetProfile(sid domain.SessionID, p domain.Profile) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, fmt.Errorf("set profile %s: %w", sid, domain.ErrNotFound)
	}
	e.Session.Profile = p
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("name", p.Name).Msg("updated profile")
	return e.Session, nil
}

// AssignRole changes the role of sid. Taking the performer role fails with
// ErrRoleConflict while any other session holds it, whatever the show
// status, or while sid holds a seat. A show cycle therefore has exactly
// one performer from pre-show onwards.
func (r *Registry) AssignRole(sid domain.SessionID, role domain.Role, show domain.Show) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, fmt.Errorf("assign role %s: %w", sid, domain.ErrNotFound)
	}
	if e.Session.Role == role {
		return e.Session, nil
	}
	switch role {
	case domain.RolePerformer:
		if e.Session.Seated() {
			return domain.Session{}, fmt.Errorf("assign role %s: seated sessions cannot perform: %w", sid, domain.ErrRoleConflict)
		}
		for id, other := range r.sessions {
			if id != sid && other.Session.Role == domain.RolePerformer {
				return domain.Session{}, fmt.Errorf("assign role %s: %s holds the performer role: %w", sid, id, domain.ErrRoleConflict)
			}
		}
	default:
		if show.Status == domain.ShowLive && show.PerformerID == sid {
			return domain.Session{}, fmt.Errorf("assign role %s: performer is live: %w", sid, domain.ErrRoleConflict)
		}
		if role == domain.RoleUnassigned && e.Session.Seated() {
			return domain.Session{}, fmt.Errorf("assign role %s: seated sessions are audience: %w", sid, domain.ErrRoleConflict)
		}
	}
	e.Session.Role = role
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("role", string(role)).Msg("assigned role")
	return e.Session, nil
}

// SetSeat records (or clears, with "") the seat held by sid.
// A seated unassigned session becomes audience.
func (r *Registry) SetSeat(sid domain.SessionID, seat domain.SeatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return fmt.Errorf("set seat %s: %w", sid, domain.ErrNotFound)
	}
	e.Session.Seat = seat
	if seat != "" && e.Session.Role == domain.RoleUnassigned {
		e.Session.Role = domain.RoleAudience
	}
	return nil
}

// ClearSeats drops every session's seat association.
func (r *Registry) ClearSeats() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		e.Session.Seat = ""
	}
	log.Info().Str("module", "app.registry").Msg("cleared seat associations")
}

// Deregister removes sid and returns its last state. Unknown ids are a no-op.
func (r *Registry) Deregister(sid domain.SessionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("deregistered session")
	return e.Session, true
}

func (r *Registry) Exists(sid domain.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

func (r *Registry) Get(sid domain.SessionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return domain.Session{}, false
}

func (r *Registry) Signal(sid domain.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok && e.Signal != nil {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) Targets() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.Signal != nil {
			out = append(out, Target{SID: sid, Signal: e.Signal})
		}
	}
	return out
}

// Sessions returns every session ordered by connect time.
func (r *Registry) Sessions() []domain.Session {
	r.mu.RLock()
	out := make([]domain.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.Session)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.Session) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel tears down the connection of sid; the adapter then disconnects it.
func (r *Registry) Cancel(sid domain.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
