package orch

import (
	"fmt"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// Reset returns the show to idle with every seat free and the schedule
// empty. Sessions stay connected and keep their roles and profiles.
func (o *Orchestrator) Reset() core.State {
	var st core.State
	_ = o.apply(func(out *outbox) error {
		prev := o.Show.Snapshot()
		show := o.Show.Reset()
		if prev.Status == domain.ShowLive {
			o.Relay.Unlink(out, prev.PerformerID, o.Seats.Occupants())
		}
		o.clearSeatsLocked(out)
		out.NotifyAll(core.ShowStatusUpdate{Status: show.Status})
		if o.Schedule != nil {
			o.Schedule.Clear()
			out.NotifyAll(core.ShowsUpdated(o.Schedule.List()))
		}
		if o.Dispatch != nil && o.Dispatch.History != nil {
			o.Dispatch.History.Clear()
		}
		st = o.stateLocked()
		log.Warn().Str("module", "orch").Msg("state reset")
		return nil
	})
	return st
}

// ForceAssignSeat seats sid on seatID through the normal claim path.
func (o *Orchestrator) ForceAssignSeat(seatID string, sid domain.SessionID, name, avatar string) (domain.Seat, error) {
	seat, err := o.SelectSeat(sid, seatID, name, avatar)
	if err == nil {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("seat", seatID).Msg("seat force-assigned")
	}
	return seat, err
}

// ForceShowState sets the show status out of order. Forcing live needs a
// connected performer and still allows only one.
func (o *Orchestrator) ForceShowState(status domain.ShowStatus, performer domain.SessionID) (domain.Show, error) {
	var show domain.Show
	err := o.apply(func(out *outbox) error {
		prev := o.Show.Snapshot()
		if status == domain.ShowLive {
			if !o.Registry.Exists(performer) {
				return fmt.Errorf("force live: performer %q: %w", performer, domain.ErrNotFound)
			}
			if _, err := o.Registry.AssignRole(performer, domain.RolePerformer, prev); err != nil {
				return err
			}
		}
		var err error
		show, err = o.Show.Force(status, performer)
		if err != nil {
			return err
		}
		if prev.Status == domain.ShowLive && prev.PerformerID != show.PerformerID {
			o.Relay.Unlink(out, prev.PerformerID, o.Seats.Occupants())
		}
		if status == domain.ShowIdle {
			o.clearSeatsLocked(out)
		}
		out.NotifyAll(core.ShowStatusUpdate{Status: show.Status, ArtistID: show.PerformerID})
		if status == domain.ShowLive && prev.PerformerID != performer {
			o.Relay.LinkAll(out, performer, o.Seats.Occupants())
		}
		log.Warn().Str("module", "orch").Str("status", string(status)).Str("performer", string(performer)).Msg("show state forced")
		return nil
	})
	return show, err
}
