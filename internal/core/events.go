package core

import (
	"encoding/json"

	"github.com/dkeye/FrontRow/internal/domain"
)

type EventKind string

const (
	EventWelcome        EventKind = "welcome"
	EventState          EventKind = "state"
	EventSeatUpdate     EventKind = "seat-update"
	EventSeatSelected   EventKind = "seat-selected"
	EventAllSeatsEmpty  EventKind = "all-seats-empty"
	EventShowStatus     EventKind = "show-status-update"
	EventOffer          EventKind = "offer"
	EventAnswer         EventKind = "answer"
	EventICECandidate   EventKind = "ice-candidate"
	EventNewPeerLink    EventKind = "new-peer-link"
	EventPeerLinkClosed EventKind = "peer-link-closed"
	EventShowsUpdated   EventKind = "shows-updated"
	EventWhoAmI         EventKind = "whoami"
	EventPong           EventKind = "pong"
	EventError          EventKind = "error"
)

// Event is the closed set of outbound messages.
type Event interface {
	Kind() EventKind
}

// State is the full state snapshot used for sync and by the admin surface.
type State struct {
	Show     domain.Show      `json:"show"`
	Seats    []domain.Seat    `json:"seats"`
	Sessions []domain.Session `json:"sessions"`
	Occupied int              `json:"occupied"`
}

type Welcome struct {
	SessionID domain.SessionID `json:"sessionId"`
	Role      domain.Role      `json:"role"`
	Profile   domain.Profile   `json:"profile"`
	State     State            `json:"state"`
}

type StateSync struct {
	State
}

type SeatUpdate struct {
	SeatID domain.SeatID    `json:"seatId"`
	User   *domain.Occupant `json:"user"`
}

type SeatSelected struct {
	Success bool          `json:"success"`
	SeatID  domain.SeatID `json:"seatId,omitempty"`
	Code    domain.Code   `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

type AllSeatsEmpty struct{}

type ShowStatusUpdate struct {
	Status   domain.ShowStatus `json:"status"`
	ArtistID domain.SessionID  `json:"artistId,omitempty"`
}

// Signal is a relayed offer, answer or ICE candidate.
type Signal struct {
	SignalKind domain.SignalKind `json:"-"`
	Sender     domain.SessionID  `json:"senderSessionId"`
	Payload    json.RawMessage   `json:"payload"`
}

// NewPeerLink asks the receiver to set up a peer link towards Target.
// Initiate marks the side that generates the offer.
type NewPeerLink struct {
	Target   domain.SessionID `json:"targetSessionId"`
	Initiate bool             `json:"initiate"`
}

type PeerLinkClosed struct {
	SessionID domain.SessionID `json:"sessionId"`
}

// ShowsUpdated encodes as the bare list of scheduled shows.
type ShowsUpdated []domain.ScheduledShow

type WhoAmI struct {
	SessionID domain.SessionID `json:"sessionId"`
	Role      domain.Role      `json:"role"`
	Profile   domain.Profile   `json:"profile"`
	Seat      domain.SeatID    `json:"seatId,omitempty"`
}

type Pong struct{}

type ErrorReply struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
	Request string      `json:"request,omitempty"`
}

func (Welcome) Kind() EventKind          { return EventWelcome }
func (StateSync) Kind() EventKind        { return EventState }
func (SeatUpdate) Kind() EventKind       { return EventSeatUpdate }
func (SeatSelected) Kind() EventKind     { return EventSeatSelected }
func (AllSeatsEmpty) Kind() EventKind    { return EventAllSeatsEmpty }
func (ShowStatusUpdate) Kind() EventKind { return EventShowStatus }
func (NewPeerLink) Kind() EventKind      { return EventNewPeerLink }
func (PeerLinkClosed) Kind() EventKind   { return EventPeerLinkClosed }
func (ShowsUpdated) Kind() EventKind     { return EventShowsUpdated }
func (WhoAmI) Kind() EventKind           { return EventWhoAmI }
func (Pong) Kind() EventKind             { return EventPong }
func (ErrorReply) Kind() EventKind       { return EventError }

func (s Signal) Kind() EventKind {
	switch s.SignalKind {
	case domain.SignalAnswer:
		return EventAnswer
	case domain.SignalICECandidate:
		return EventICECandidate
	default:
		return EventOffer
	}
}

// Notifier is implemented by the dispatcher and by anything that defers
// delivery to it.
type Notifier interface {
	NotifyAll(ev Event)
	NotifyOne(sid domain.SessionID, ev Event)
}
