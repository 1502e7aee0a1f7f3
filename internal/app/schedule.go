package app

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Schedule keeps the announced shows in memory.
type Schedule struct {
	mu    sync.RWMutex
	shows []domain.ScheduledShow
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

func (s *Schedule) Add(artistID, title string, at time.Time) (domain.ScheduledShow, error) {
	show, err := domain.NewScheduledShow(uuid.NewString(), artistID, title, at)
	if err != nil {
		return domain.ScheduledShow{}, err
	}
	s.mu.Lock()
	s.shows = append(s.shows, show)
	s.mu.Unlock()
	log.Info().Str("module", "app.schedule").Str("id", show.ID).Str("title", show.Title).Time("at", show.DateTime).Msg("show scheduled")
	return show, nil
}

// List returns the shows ordered by start time.
func (s *Schedule) List() []domain.ScheduledShow {
	s.mu.RLock()
	out := slices.Clone(s.shows)
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b domain.ScheduledShow) int {
		return a.DateTime.Compare(b.DateTime)
	})
	if out == nil {
		out = []domain.ScheduledShow{}
	}
	return out
}

// Due marks the earliest scheduled show starting within lead of now as
// live and returns it.
func (s *Schedule) Due(now time.Time, lead time.Duration) (domain.ScheduledShow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, sh := range s.shows {
		if sh.Status != domain.ScheduleScheduled || sh.DateTime.Sub(now) > lead {
			continue
		}
		if idx < 0 || sh.DateTime.Before(s.shows[idx].DateTime) {
			idx = i
		}
	}
	if idx < 0 {
		return domain.ScheduledShow{}, false
	}
	s.shows[idx].Status = domain.ScheduleLive
	return s.shows[idx], true
}

// EndLive marks every live entry as ended.
func (s *Schedule) EndLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for i := range s.shows {
		if s.shows[i].Status == domain.ScheduleLive {
			s.shows[i].Status = domain.ScheduleEnded
			changed = true
		}
	}
	return changed
}

// Clear drops every entry.
func (s *Schedule) Clear() {
	s.mu.Lock()
	s.shows = nil
	s.mu.Unlock()
}
