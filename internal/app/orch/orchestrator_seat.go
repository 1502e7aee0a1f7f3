package orch

import (
	"fmt"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
)

// SelectSeat claims seatID for sid. Re-claiming the seat sid already holds
// is a no-op success.
func (o *Orchestrator) SelectSeat(sid domain.SessionID, seatID, name, avatar string) (domain.Seat, error) {
	id, err := domain.ParseSeatID(seatID)
	if err != nil {
		return domain.Seat{}, err
	}
	var seat domain.Seat
	err = o.apply(func(out *outbox) error {
		var err error
		seat, err = o.claimLocked(out, id, sid, name, avatar)
		return err
	})
	return seat, err
}

func (o *Orchestrator) claimLocked(out *outbox, id domain.SeatID, sid domain.SessionID, name, avatar string) (domain.Seat, error) {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		return domain.Seat{}, fmt.Errorf("claim %s: session %s: %w", id, sid, domain.ErrNotFound)
	}
	if sess.Role == domain.RolePerformer {
		return domain.Seat{}, fmt.Errorf("claim %s: performers do not sit: %w", id, domain.ErrRoleConflict)
	}
	profile := domain.NewProfile(name, avatar)
	seat, changed, err := o.Seats.Claim(id, domain.Occupant{
		SessionID: sid,
		Name:      profile.Name,
		Avatar:    profile.Avatar,
	})
	if err != nil || !changed {
		return seat, err
	}
	if _, err := o.Registry.SetProfile(sid, profile); err != nil {
		return domain.Seat{}, err
	}
	if err := o.Registry.SetSeat(sid, id); err != nil {
		return domain.Seat{}, err
	}
	out.NotifyAll(core.SeatUpdate{SeatID: id, User: seat.Occupant})

	if show := o.Show.Snapshot(); show.Status == domain.ShowLive {
		o.Relay.Link(out, show.PerformerID, sid)
	}
	return seat, nil
}

// LeaveSeat releases the seat held by sid, if any.
func (o *Orchestrator) LeaveSeat(sid domain.SessionID) (domain.SeatID, bool) {
	var (
		id domain.SeatID
		ok bool
	)
	_ = o.apply(func(out *outbox) error {
		id, ok = o.Seats.ReleaseBySession(sid)
		if !ok {
			return nil
		}
		o.afterReleaseLocked(out, id, sid)
		return nil
	})
	return id, ok
}

// ReleaseSeat frees seatID whoever holds it. Releasing a free seat is a no-op.
func (o *Orchestrator) ReleaseSeat(seatID string) (bool, error) {
	id, err := domain.ParseSeatID(seatID)
	if err != nil {
		return false, err
	}
	var released bool
	err = o.apply(func(out *outbox) error {
		prev, ok, err := o.Seats.Release(id)
		if err != nil || !ok {
			return err
		}
		released = true
		o.afterReleaseLocked(out, id, prev.SessionID)
		return nil
	})
	return released, err
}

func (o *Orchestrator) afterReleaseLocked(out *outbox, id domain.SeatID, holder domain.SessionID) {
	_ = o.Registry.SetSeat(holder, "")
	out.NotifyAll(core.SeatUpdate{SeatID: id, User: nil})
	if show := o.Show.Snapshot(); show.Status == domain.ShowLive && show.PerformerID != "" {
		o.Relay.Unlink(out, holder, []domain.SessionID{show.PerformerID})
	}
}
