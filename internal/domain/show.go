package domain

import "time"

type ShowStatus string

const (
	ShowIdle     ShowStatus = "idle"
	ShowPreShow  ShowStatus = "pre-show"
	ShowLive     ShowStatus = "live"
	ShowPostShow ShowStatus = "post-show"
)

func ParseShowStatus(s string) (ShowStatus, error) {
	switch st := ShowStatus(s); st {
	case ShowIdle, ShowPreShow, ShowLive, ShowPostShow:
		return st, nil
	}
	return "", ErrInvalidTransition
}

// Show is the process-wide show singleton.
// PerformerID and StartedAt are set only while live.
type Show struct {
	Status      ShowStatus `json:"status"`
	PerformerID SessionID  `json:"artistId,omitempty"`
	StartedAt   time.Time  `json:"startTime,omitzero"`
	Generation  uint64     `json:"generation"`
}

// Active reports whether a show cycle holds the performer slot.
func (s Show) Active() bool {
	return s.Status == ShowPreShow || s.Status == ShowLive
}
