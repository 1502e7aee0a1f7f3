package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultResetDelay = 5 * time.Second

// ShowController owns the show singleton.
//
// Every transition bumps Show.Generation and stops the pending reset timer.
// The timer carries the generation it was armed with, and CompleteReset
// ignores any generation other than the current one.
type ShowController struct {
	mu      sync.Mutex
	show    domain.Show
	delay   time.Duration
	timer   *time.Timer
	onReset func(gen uint64)
	now     func() time.Time
}

func NewShowController(resetDelay time.Duration) *ShowController {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	return &ShowController{
		show:  domain.Show{Status: domain.ShowIdle},
		delay: resetDelay,
		now:   time.Now,
	}
}

// OnResetDue sets the callback run when the post-show delay elapses.
// It must call CompleteReset with the generation it receives.
func (c *ShowController) OnResetDue(fn func(gen uint64)) {
	c.mu.Lock()
	c.onReset = fn
	c.mu.Unlock()
}

func (c *ShowController) ResetDelay() time.Duration { return c.delay }

func (c *ShowController) Snapshot() domain.Show {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.show
}

// PreShow moves idle (or a finished post-show) into pre-show.
func (c *ShowController) PreShow() (domain.Show, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.show.Status {
	case domain.ShowIdle, domain.ShowPostShow:
	default:
		return c.show, c.invalid(domain.ShowPreShow)
	}
	c.transitionLocked(domain.ShowPreShow, "")
	return c.show, nil
}

// GoLive starts the show for performer.
func (c *ShowController) GoLive(performer domain.SessionID) (domain.Show, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if performer == "" {
		return c.show, c.invalid(domain.ShowLive)
	}
	switch c.show.Status {
	case domain.ShowIdle, domain.ShowPreShow, domain.ShowPostShow:
	default:
		return c.show, c.invalid(domain.ShowLive)
	}
	c.transitionLocked(domain.ShowLive, performer)
	return c.show, nil
}

// End moves live into post-show. Only the active performer may end it.
// The reset to idle is armed here.
func (c *ShowController) End(performer domain.SessionID) (domain.Show, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.show.Status != domain.ShowLive || c.show.PerformerID != performer {
		return c.show, c.invalid(domain.ShowPostShow)
	}
	c.transitionLocked(domain.ShowPostShow, "")
	c.armLocked()
	return c.show, nil
}

// CompleteReset applies the deferred post-show → idle transition.
// It is a no-op unless gen is still current.
func (c *ShowController) CompleteReset(gen uint64) (domain.Show, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.show.Status != domain.ShowPostShow || c.show.Generation != gen {
		log.Debug().Str("module", "app.show").Uint64("gen", gen).Uint64("current", c.show.Generation).Msg("stale reset ignored")
		return c.show, false
	}
	c.transitionLocked(domain.ShowIdle, "")
	return c.show, true
}

// Force sets the status directly. It skips the ordering rules but keeps
// the single-performer rule; forcing post-show arms the reset.
func (c *ShowController) Force(status domain.ShowStatus, performer domain.SessionID) (domain.Show, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch status {
	case domain.ShowLive:
		if performer == "" {
			return c.show, fmt.Errorf("force live without performer: %w", domain.ErrInvalidTransition)
		}
		if c.show.Status == domain.ShowLive && c.show.PerformerID != performer {
			return c.show, fmt.Errorf("force live: %s is live: %w", c.show.PerformerID, domain.ErrInvalidTransition)
		}
		c.transitionLocked(status, performer)
	case domain.ShowIdle, domain.ShowPreShow:
		c.transitionLocked(status, "")
	case domain.ShowPostShow:
		c.transitionLocked(status, "")
		c.armLocked()
	default:
		return c.show, c.invalid(status)
	}
	return c.show, nil
}

// Reset returns to idle and cancels any pending timer.
func (c *ShowController) Reset() domain.Show {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(domain.ShowIdle, "")
	return c.show
}

// Stop cancels the pending reset without changing state.
func (c *ShowController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *ShowController) transitionLocked(next domain.ShowStatus, performer domain.SessionID) {
	c.stopTimerLocked()
	prev := c.show.Status
	c.show.Status = next
	c.show.Generation++
	c.show.PerformerID = performer
	c.show.StartedAt = time.Time{}
	if next == domain.ShowLive {
		c.show.StartedAt = c.now()
	}
	log.Info().
		Str("module", "app.show").
		Str("from", string(prev)).
		Str("to", string(next)).
		Str("performer", string(performer)).
		Uint64("gen", c.show.Generation).
		Msg("show transition")
}

func (c *ShowController) armLocked() {
	gen := c.show.Generation
	fn := c.onReset
	if fn == nil {
		return
	}
	c.timer = time.AfterFunc(c.delay, func() { fn(gen) })
	log.Info().Str("module", "app.show").Uint64("gen", gen).Dur("delay", c.delay).Msg("reset armed")
}

func (c *ShowController) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *ShowController) invalid(to domain.ShowStatus) error {
	return fmt.Errorf("%s -> %s: %w", c.show.Status, to, domain.ErrInvalidTransition)
}
