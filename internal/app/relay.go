package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay routes negotiation envelopes between two sessions and computes
// the peer-link fan-out when the topology changes. It keeps no state.
type Relay struct {
	Registry *Registry
	Out      *Dispatcher
}

func NewRelay(reg *Registry, out *Dispatcher) *Relay {
	return &Relay{Registry: reg, Out: out}
}

// Forward delivers env to its target with Sender stamped as sender.
func (r *Relay) Forward(sender domain.SessionID, env domain.Envelope) error {
	if !env.Kind.Valid() {
		return fmt.Errorf("relay: unknown signal kind %q", env.Kind)
	}
	if !r.Registry.Exists(sender) {
		return fmt.Errorf("relay %s from %s: %w", env.Kind, sender, domain.ErrNotFound)
	}
	var sig core.SignalConnection
	ok := false
	if env.Target != "" && env.Target != sender {
		sig, ok = r.Registry.Signal(env.Target)
	}
	if !ok {
		return r.targetNotFound(sender, env)
	}
	env.Sender = sender
	err := r.Out.Send(Target{SID: env.Target, Signal: sig}, core.Signal{
		SignalKind: env.Kind,
		Sender:     env.Sender,
		Payload:    env.Payload,
	})
	if errors.Is(err, core.ErrConnClosed) {
		return r.targetNotFound(sender, env)
	}
	if err != nil {
		return fmt.Errorf("relay %s to %s: %w", env.Kind, env.Target, err)
	}
	log.Debug().
		Str("module", "app.relay").
		Str("sid", string(sender)).
		Str("target", string(env.Target)).
		Str("kind", string(env.Kind)).
		Msg("relayed")
	return nil
}

func (r *Relay) targetNotFound(sender domain.SessionID, env domain.Envelope) error {
	log.Warn().
		Str("module", "app.relay").
		Str("sid", string(sender)).
		Str("target", string(env.Target)).
		Str("kind", string(env.Kind)).
		Msg("target not found")
	return fmt.Errorf("relay %s to %q: %w", env.Kind, env.Target, domain.ErrTargetNotFound)
}

// Link tells performer and audience to open a peer link to each other.
// The performer initiates the offer.
func (r *Relay) Link(n core.Notifier, performer, audience domain.SessionID) {
	if performer == "" || audience == "" || performer == audience {
		return
	}
	n.NotifyOne(performer, core.NewPeerLink{Target: audience, Initiate: true})
	n.NotifyOne(audience, core.NewPeerLink{Target: performer, Initiate: false})
	log.Info().Str("module", "app.relay").Str("performer", string(performer)).Str("audience", string(audience)).Msg("peer link requested")
}

// LinkAll requests a link between performer and every seated session.
func (r *Relay) LinkAll(n core.Notifier, performer domain.SessionID, seated []domain.SessionID) {
	for _, sid := range seated {
		r.Link(n, performer, sid)
	}
}

// Unlink tells every peer of departed that its link is gone.
func (r *Relay) Unlink(n core.Notifier, departed domain.SessionID, peers []domain.SessionID) {
	for _, sid := range peers {
		if sid == departed {
			continue
		}
		n.NotifyOne(sid, core.PeerLinkClosed{SessionID: departed})
	}
	if len(peers) > 0 {
		log.Info().Str("module", "app.relay").Str("sid", string(departed)).Int("peers", len(peers)).Msg("peer links closed")
	}
}
