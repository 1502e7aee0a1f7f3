package app

import (
	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a session whose outbound buffer is full.
type Policy interface {
	OnBackPressure(sid domain.SessionID, kind core.EventKind) BackpressureAction
}

// SimplePolicy kicks slow sessions. A kicked client reconnects and gets a
// fresh welcome snapshot, which is cheaper than replaying what it missed.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.SessionID, core.EventKind) BackpressureAction {
	return KickMember
}
