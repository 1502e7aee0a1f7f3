// Package orch is the single owner of the shared show state.
//
// Every mutation runs under the state mutex. Events produced by a mutation
// are queued in an outbox and published after the state mutex is released,
// under a publish mutex taken before it is released, so clients see events
// in commit order and no state lock is held while sending.
package orch

import (
	"sync"

	"github.com/dkeye/FrontRow/internal/app"
	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
)

type Orchestrator struct {
	Registry *app.Registry
	Seats    *app.SeatTable
	Show     *app.ShowController
	Relay    *app.Relay
	Dispatch *app.Dispatcher
	Schedule *app.Schedule

	mu    sync.Mutex
	pubMu sync.Mutex
}

func New(
	reg *app.Registry,
	seats *app.SeatTable,
	show *app.ShowController,
	dispatch *app.Dispatcher,
	schedule *app.Schedule,
) *Orchestrator {
	o := &Orchestrator{
		Registry: reg,
		Seats:    seats,
		Show:     show,
		Relay:    app.NewRelay(reg, dispatch),
		Dispatch: dispatch,
		Schedule: schedule,
	}
	show.OnResetDue(o.onResetDue)
	return o
}

type delivery struct {
	all     bool
	targets []app.Target
	sid     domain.SessionID
	ev      core.Event
}

// outbox defers notifications until the mutation that produced them commits.
// Broadcast recipients are fixed when queued, so a session registered after
// the mutation never sees its events ahead of its own welcome.
type outbox struct {
	reg   *app.Registry
	items []delivery
}

func (b *outbox) NotifyAll(ev core.Event) {
	b.items = append(b.items, delivery{all: true, targets: b.reg.Targets(), ev: ev})
}

func (b *outbox) NotifyOne(sid domain.SessionID, ev core.Event) {
	b.items = append(b.items, delivery{sid: sid, ev: ev})
}

func (b *outbox) flush(d *app.Dispatcher) {
	for _, item := range b.items {
		if item.all {
			d.Broadcast(item.targets, item.ev)
		} else {
			d.NotifyOne(item.sid, item.ev)
		}
	}
}

func (o *Orchestrator) apply(fn func(out *outbox) error) error {
	out := outbox{reg: o.Registry}
	o.mu.Lock()
	err := fn(&out)
	o.pubMu.Lock()
	o.mu.Unlock()
	defer o.pubMu.Unlock()
	out.flush(o.Dispatch)
	return err
}

// State returns a consistent snapshot of show, seats and sessions.
func (o *Orchestrator) State() core.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() core.State {
	seats := o.Seats.Snapshot()
	occupied := 0
	for _, s := range seats {
		if !s.Free() {
			occupied++
		}
	}
	return core.State{
		Show:     o.Show.Snapshot(),
		Seats:    seats,
		Sessions: o.Registry.Sessions(),
		Occupied: occupied,
	}
}

// Close stops the pending reset timer.
func (o *Orchestrator) Close() {
	o.Show.Stop()
}
