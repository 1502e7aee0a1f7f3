package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// PreShow opens the doors: idle → pre-show.
func (o *Orchestrator) PreShow() (domain.Show, error) {
	var show domain.Show
	err := o.apply(func(out *outbox) error {
		var err error
		show, err = o.preShowLocked(out)
		return err
	})
	return show, err
}

// PreShowBy is PreShow requested by a client; only a performer may ask.
func (o *Orchestrator) PreShowBy(sid domain.SessionID) (domain.Show, error) {
	var show domain.Show
	err := o.apply(func(out *outbox) error {
		sess, ok := o.Registry.Get(sid)
		if !ok {
			return fmt.Errorf("pre-show by %s: %w", sid, domain.ErrNotFound)
		}
		if sess.Role != domain.RolePerformer {
			return fmt.Errorf("pre-show by %s (%s): %w", sid, sess.Role, domain.ErrRoleConflict)
		}
		var err error
		show, err = o.preShowLocked(out)
		return err
	})
	return show, err
}

func (o *Orchestrator) preShowLocked(out *outbox) (domain.Show, error) {
	show, err := o.Show.PreShow()
	if err != nil {
		return show, err
	}
	out.NotifyAll(core.ShowStatusUpdate{Status: show.Status})
	return show, nil
}

// GoLive starts the show with sid as performer. An unassigned session is
// promoted to performer first, which still honours the one-performer rule.
// Every seated session is asked to link with the performer.
func (o *Orchestrator) GoLive(sid domain.SessionID) (domain.Show, error) {
	var show domain.Show
	err := o.apply(func(out *outbox) error {
		sess, ok := o.Registry.Get(sid)
		if !ok {
			return fmt.Errorf("go live %s: %w", sid, domain.ErrNotFound)
		}
		current := o.Show.Snapshot()
		if current.Status == domain.ShowLive {
			show = current
			return fmt.Errorf("go live %s: %s is live: %w", sid, current.PerformerID, domain.ErrInvalidTransition)
		}
		if sess.Role == domain.RoleUnassigned {
			if _, err := o.Registry.AssignRole(sid, domain.RolePerformer, current); err != nil {
				return err
			}
		} else if sess.Role != domain.RolePerformer {
			return fmt.Errorf("go live %s (%s): %w", sid, sess.Role, domain.ErrRoleConflict)
		}
		var err error
		show, err = o.goLiveLocked(out, sid)
		return err
	})
	return show, err
}

func (o *Orchestrator) goLiveLocked(out *outbox, sid domain.SessionID) (domain.Show, error) {
	show, err := o.Show.GoLive(sid)
	if err != nil {
		return show, err
	}
	out.NotifyAll(core.ShowStatusUpdate{Status: show.Status, ArtistID: sid})
	o.Relay.LinkAll(out, sid, o.Seats.Occupants())
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("performer is live")
	return show, nil
}

// EndShow moves the show of sid to post-show. Seats are cleared later by
// the deferred reset.
func (o *Orchestrator) EndShow(sid domain.SessionID) (domain.Show, error) {
	var show domain.Show
	err := o.apply(func(out *outbox) error {
		var err error
		show, err = o.endLocked(out, sid)
		return err
	})
	return show, err
}

func (o *Orchestrator) endLocked(out *outbox, sid domain.SessionID) (domain.Show, error) {
	show, err := o.Show.End(sid)
	if err != nil {
		return show, err
	}
	out.NotifyAll(core.ShowStatusUpdate{Status: show.Status})
	o.Relay.Unlink(out, sid, o.Seats.Occupants())
	log.Info().Str("module", "orch").Str("sid", string(sid)).Dur("reset_in", o.Show.ResetDelay()).Msg("show ended")
	return show, nil
}

// onResetDue runs on the show timer goroutine.
func (o *Orchestrator) onResetDue(gen uint64) {
	_ = o.apply(func(out *outbox) error {
		show, ok := o.Show.CompleteReset(gen)
		if !ok {
			return nil
		}
		o.clearSeatsLocked(out)
		if o.Schedule != nil && o.Schedule.EndLive() {
			out.NotifyAll(core.ShowsUpdated(o.Schedule.List()))
		}
		out.NotifyAll(core.ShowStatusUpdate{Status: show.Status})
		log.Info().Str("module", "orch").Uint64("gen", gen).Msg("show cycle reset to idle")
		return nil
	})
}

func (o *Orchestrator) clearSeatsLocked(out *outbox) {
	o.Seats.Clear()
	o.Registry.ClearSeats()
	out.NotifyAll(core.AllSeatsEmpty{})
}

// RunScheduler moves the show to pre-show when a scheduled show is within
// lead of its start. It returns when ctx is done.
func (o *Orchestrator) RunScheduler(ctx context.Context, poll, lead time.Duration) {
	if o.Schedule == nil || poll <= 0 {
		return
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("scheduler stopped")
			return
		case now := <-ticker.C:
			o.StartDue(now, lead)
		}
	}
}

// StartDue applies one scheduler tick.
func (o *Orchestrator) StartDue(now time.Time, lead time.Duration) bool {
	started := false
	_ = o.apply(func(out *outbox) error {
		if o.Show.Snapshot().Status != domain.ShowIdle {
			return nil
		}
		due, ok := o.Schedule.Due(now, lead)
		if !ok {
			return nil
		}
		if _, err := o.preShowLocked(out); err != nil {
			return err
		}
		out.NotifyAll(core.ShowsUpdated(o.Schedule.List()))
		started = true
		log.Info().Str("module", "orch").Str("show", due.ID).Str("title", due.Title).Msg("scheduled show opening")
		return nil
	})
	return started
}

// AddScheduledShow announces a show and tells every client.
func (o *Orchestrator) AddScheduledShow(artistID, title string, at time.Time) (domain.ScheduledShow, error) {
	var show domain.ScheduledShow
	err := o.apply(func(out *outbox) error {
		var err error
		show, err = o.Schedule.Add(artistID, title, at)
		if err != nil {
			return err
		}
		out.NotifyAll(core.ShowsUpdated(o.Schedule.List()))
		return nil
	})
	return show, err
}
