package core

import (
	"encoding/json"
	"fmt"
)

// Wire is the frame layout in both directions.
type Wire struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode renders an event as {"type": kind, "payload": event}.
func Encode(ev Event) (Frame, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	b, err := json.Marshal(Wire{Type: string(ev.Kind()), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return b, nil
}

// Decode splits an inbound frame into its type and raw payload.
func Decode(data []byte) (Wire, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Wire{}, fmt.Errorf("decode frame: %w", err)
	}
	if w.Type == "" {
		return Wire{}, fmt.Errorf("decode frame: missing type")
	}
	return w, nil
}
