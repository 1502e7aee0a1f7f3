package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// SeatTable is the exclusive-ownership map of the nine front-row seats.
// Every claim and release is serialized by mu, so two concurrent claims on
// one seat always produce one winner.
type SeatTable struct {
	mu    sync.Mutex
	seats map[domain.SeatID]*domain.Seat
	now   func() time.Time
}

func NewSeatTable() *SeatTable {
	t := &SeatTable{
		seats: make(map[domain.SeatID]*domain.Seat, domain.SeatCount),
		now:   time.Now,
	}
	for _, id := range domain.SeatIDs() {
		t.seats[id] = &domain.Seat{ID: id}
	}
	return t
}

// Claim gives seatID to occ.SessionID. changed is false when the session
// already held that seat.
func (t *SeatTable) Claim(seatID domain.SeatID, occ domain.Occupant) (seat domain.Seat, changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.seats[seatID]
	if !ok {
		return domain.Seat{}, false, fmt.Errorf("claim %q: %w", seatID, domain.ErrInvalidSeat)
	}
	if s.Occupant != nil {
		if s.Occupant.SessionID == occ.SessionID {
			return copySeat(s), false, nil
		}
		return domain.Seat{}, false, fmt.Errorf("claim %s: %w", seatID, domain.ErrSeatTaken)
	}
	if held, ok := t.seatOfLocked(occ.SessionID); ok {
		return domain.Seat{}, false, fmt.Errorf("claim %s: holding %s: %w", seatID, held, domain.ErrAlreadySeated)
	}

	o := occ
	s.Occupant = &o
	s.ClaimedAt = t.now()
	log.Info().Str("module", "app.seats").Str("sid", string(occ.SessionID)).Str("seat", string(seatID)).Msg("seat claimed")
	return copySeat(s), true, nil
}

// Release frees seatID and returns the previous occupant.
// ok is false when the seat was already free.
func (t *SeatTable) Release(seatID domain.SeatID) (prev domain.Occupant, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, exists := t.seats[seatID]
	if !exists {
		return domain.Occupant{}, false, fmt.Errorf("release %q: %w", seatID, domain.ErrInvalidSeat)
	}
	if s.Occupant == nil {
		return domain.Occupant{}, false, nil
	}
	prev = *s.Occupant
	s.Occupant = nil
	s.ClaimedAt = time.Time{}
	log.Info().Str("module", "app.seats").Str("sid", string(prev.SessionID)).Str("seat", string(seatID)).Msg("seat released")
	return prev, true, nil
}

// ReleaseBySession frees whichever seat sid held.
func (t *SeatTable) ReleaseBySession(sid domain.SessionID) (domain.SeatID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.seatOfLocked(sid)
	if !ok {
		return "", false
	}
	s := t.seats[id]
	s.Occupant = nil
	s.ClaimedAt = time.Time{}
	log.Info().Str("module", "app.seats").Str("sid", string(sid)).Str("seat", string(id)).Msg("seat released by session")
	return id, true
}

func (t *SeatTable) SeatOf(sid domain.SessionID) (domain.SeatID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seatOfLocked(sid)
}

func (t *SeatTable) seatOfLocked(sid domain.SessionID) (domain.SeatID, bool) {
	for _, id := range domain.SeatIDs() {
		if o := t.seats[id].Occupant; o != nil && o.SessionID == sid {
			return id, true
		}
	}
	return "", false
}

// Clear frees every seat and returns the ids that were occupied.
func (t *SeatTable) Clear() []domain.SeatID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var freed []domain.SeatID
	for _, id := range domain.SeatIDs() {
		s := t.seats[id]
		if s.Occupant != nil {
			freed = append(freed, id)
		}
		s.Occupant = nil
		s.ClaimedAt = time.Time{}
	}
	log.Info().Str("module", "app.seats").Int("freed", len(freed)).Msg("all seats cleared")
	return freed
}

// Snapshot returns the nine seats in id order.
func (t *SeatTable) Snapshot() []domain.Seat {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Seat, 0, domain.SeatCount)
	for _, id := range domain.SeatIDs() {
		out = append(out, copySeat(t.seats[id]))
	}
	return out
}

// Occupants returns the session ids currently seated, in seat order.
func (t *SeatTable) Occupants() []domain.SessionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.SessionID
	for _, id := range domain.SeatIDs() {
		if o := t.seats[id].Occupant; o != nil {
			out = append(out, o.SessionID)
		}
	}
	return out
}

func copySeat(s *domain.Seat) domain.Seat {
	out := *s
	if s.Occupant != nil {
		o := *s.Occupant
		out.Occupant = &o
	}
	return out
}
