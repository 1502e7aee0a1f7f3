package domain

import (
	"fmt"
	"strings"
	"time"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleLive      ScheduleStatus = "live"
	ScheduleEnded     ScheduleStatus = "ended"
)

type ScheduledShow struct {
	ID       string         `json:"id"`
	ArtistID string         `json:"artistId"`
	Title    string         `json:"title"`
	DateTime time.Time      `json:"dateTime"`
	Status   ScheduleStatus `json:"status"`
}

func NewScheduledShow(id, artistID, title string, at time.Time) (ScheduledShow, error) {
	artistID = strings.TrimSpace(artistID)
	title = strings.TrimSpace(title)
	if artistID == "" || title == "" || at.IsZero() {
		return ScheduledShow{}, fmt.Errorf("%w: artistId, title and dateTime are required", ErrInvalidSchedule)
	}
	return ScheduledShow{
		ID:       id,
		ArtistID: artistID,
		Title:    title,
		DateTime: at,
		Status:   ScheduleScheduled,
	}, nil
}
