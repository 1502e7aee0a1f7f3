package app

import (
	"errors"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dispatcher fans events out to session signal connections.
// It never mutates shared state; delivery is best effort per connection.
type Dispatcher struct {
	Registry *Registry
	Policy   Policy
	History  *History
}

func NewDispatcher(reg *Registry, policy Policy, history *History) *Dispatcher {
	return &Dispatcher{Registry: reg, Policy: policy, History: history}
}

func (d *Dispatcher) NotifyAll(ev core.Event) {
	d.Broadcast(d.Registry.Targets(), ev)
}

// Broadcast delivers ev to a recipient list fixed by the caller, typically
// captured while the state that produced ev was still locked.
func (d *Dispatcher) Broadcast(targets []Target, ev core.Event) {
	f, err := core.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("encode")
		return
	}
	if d.History != nil {
		d.History.Add("*", f)
	}
	sent := 0
	for _, t := range targets {
		if d.deliver(t, ev.Kind(), f) == nil {
			sent++
		}
	}
	log.Debug().Str("module", "app.dispatch").Str("event", string(ev.Kind())).Int("sent_to", sent).Int("targets", len(targets)).Msg("broadcast result")
}

func (d *Dispatcher) NotifyOne(sid domain.SessionID, ev core.Event) {
	sig, ok := d.Registry.Signal(sid)
	if !ok {
		log.Warn().Str("module", "app.dispatch").Str("sid", string(sid)).Str("event", string(ev.Kind())).Msg("no session for notify")
		return
	}
	_ = d.Send(Target{SID: sid, Signal: sig}, ev)
}

// Send delivers ev to one connection and reports why it could not.
// Only delivered frames are kept in the history.
func (d *Dispatcher) Send(t Target, ev core.Event) error {
	f, err := core.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("encode")
		return err
	}
	if err := d.deliver(t, ev.Kind(), f); err != nil {
		return err
	}
	if d.History != nil {
		d.History.Add(string(t.SID), f)
	}
	return nil
}

func (d *Dispatcher) deliver(t Target, kind core.EventKind, f core.Frame) error {
	err := t.Signal.TrySend(f)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrBackpressure) || d.Policy == nil {
		return err
	}
	switch d.Policy.OnBackPressure(t.SID, kind) {
	case KickMember:
		log.Warn().Str("module", "app.dispatch").Str("sid", string(t.SID)).Str("event", string(kind)).Msg("slow session kicked")
		d.Registry.Cancel(t.SID)
	case DropFrame, NoAction:
	}
	return err
}
