package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConnectOptions carries what a client may announce when it connects.
type ConnectOptions struct {
	Role   domain.Role
	Name   string
	Avatar string
}

// Connect registers a session and sends it a welcome snapshot.
// A rejected role leaves the session connected as unassigned; the error is
// returned for the adapter to report.
func (o *Orchestrator) Connect(sig core.SignalConnection, cancel context.CancelFunc, opts ConnectOptions) (domain.Session, error) {
	var (
		sess    domain.Session
		roleErr error
	)
	_ = o.apply(func(out *outbox) error {
		sid := o.Registry.Register(sig, cancel)
		sess, _ = o.Registry.SetProfile(sid, domain.NewProfile(opts.Name, opts.Avatar))
		if opts.Role != "" && opts.Role != domain.RoleUnassigned {
			if s, err := o.Registry.AssignRole(sid, opts.Role, o.Show.Snapshot()); err != nil {
				roleErr = err
			} else {
				sess = s
			}
		}
		out.NotifyOne(sid, core.Welcome{
			SessionID: sid,
			Role:      sess.Role,
			Profile:   sess.Profile,
			State:     o.stateLocked(),
		})
		return nil
	})
	log.Info().Str("module", "orch").Str("sid", string(sess.ID)).Str("role", string(sess.Role)).Msg("connected")
	return sess, roleErr
}

// Disconnect removes sid and cascades: its seat is released, a live
// performer's show is ended and its peers are told the links are gone.
// Safe to call more than once.
func (o *Orchestrator) Disconnect(sid domain.SessionID) {
	_ = o.apply(func(out *outbox) error {
		sess, ok := o.Registry.Deregister(sid)
		if !ok {
			return nil
		}
		show := o.Show.Snapshot()

		if seat, ok := o.Seats.ReleaseBySession(sid); ok {
			out.NotifyAll(core.SeatUpdate{SeatID: seat, User: nil})
			if show.Status == domain.ShowLive && show.PerformerID != "" {
				o.Relay.Unlink(out, sid, []domain.SessionID{show.PerformerID})
			}
		}

		if show.Status == domain.ShowLive && show.PerformerID == sid {
			ended, err := o.Show.End(sid)
			if err != nil {
				log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("forced show end")
				return nil
			}
			out.NotifyAll(core.ShowStatusUpdate{Status: ended.Status})
			o.Relay.Unlink(out, sid, o.Seats.Occupants())
			log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("performer left, show ended")
		}
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("role", string(sess.Role)).Msg("disconnected")
		return nil
	})
}

// SetProfile updates the display name and avatar of sid. A seat keeps the
// profile it was claimed with.
func (o *Orchestrator) SetProfile(sid domain.SessionID, name, avatar string) (domain.Session, error) {
	var sess domain.Session
	err := o.apply(func(out *outbox) error {
		var err error
		sess, err = o.Registry.SetProfile(sid, domain.NewProfile(name, avatar))
		return err
	})
	return sess, err
}

// AssignRole changes the role of sid, checked against the current show.
func (o *Orchestrator) AssignRole(sid domain.SessionID, role domain.Role) (domain.Session, error) {
	var sess domain.Session
	err := o.apply(func(out *outbox) error {
		var err error
		sess, err = o.Registry.AssignRole(sid, role, o.Show.Snapshot())
		return err
	})
	return sess, err
}

// Forward relays a negotiation envelope from sid. It does not touch shared
// state and is not serialized with mutations.
func (o *Orchestrator) Forward(sid domain.SessionID, env domain.Envelope) error {
	if err := o.Relay.Forward(sid, env); err != nil {
		return fmt.Errorf("forward: %w", err)
	}
	return nil
}
