package domain

import "encoding/json"

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return true
	}
	return false
}

// Envelope is a negotiation message in flight. It is never stored.
// Sender is stamped by the relay; a client-supplied value is ignored.
type Envelope struct {
	Kind    SignalKind
	Target  SessionID
	Sender  SessionID
	Payload json.RawMessage
}
