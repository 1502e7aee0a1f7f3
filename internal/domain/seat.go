package domain

import (
	"fmt"
	"time"
)

// SeatCount is the size of the front row.
const SeatCount = 9

type SeatID string

// Occupant is the full record broadcast with a seat-update.
type Occupant struct {
	SessionID SessionID `json:"socketId"`
	Name      string    `json:"name"`
	Avatar    string    `json:"imageUrl,omitempty"`
}

type Seat struct {
	ID        SeatID    `json:"seatId"`
	Occupant  *Occupant `json:"user"`
	ClaimedAt time.Time `json:"claimedAt,omitzero"`
}

func (s Seat) Free() bool { return s.Occupant == nil }

var seatIDs = func() []SeatID {
	ids := make([]SeatID, SeatCount)
	for i := range ids {
		ids[i] = SeatID(fmt.Sprintf("seat-%d", i))
	}
	return ids
}()

// SeatIDs returns seat-0 … seat-8 in order.
func SeatIDs() []SeatID {
	return append([]SeatID(nil), seatIDs...)
}

func ParseSeatID(s string) (SeatID, error) {
	for _, id := range seatIDs {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeat, s)
}
