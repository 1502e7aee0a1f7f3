package http

import (
	"net/http"
	"time"

	"github.com/dkeye/FrontRow/internal/adapters/rtc"
	"github.com/dkeye/FrontRow/internal/app/orch"
	"github.com/dkeye/FrontRow/internal/config"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// API serves the public HTTP endpoints next to the signal socket.
type API struct {
	Orch    *orch.Orchestrator
	Cfg     *config.Config
	Started time.Time
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"mode":        a.Cfg.Mode,
		"uptime":      time.Since(a.Started).Round(time.Second).String(),
		"connections": a.Orch.Registry.Count(),
		"show":        a.Orch.Show.Snapshot().Status,
	})
}

func (a *API) ListShows(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.Schedule.List())
}

type createShowRequest struct {
	ArtistID string    `json:"artistId"`
	Title    string    `json:"title"`
	DateTime time.Time `json:"dateTime"`
}

func (a *API) CreateShow(c *gin.Context) {
	var req createShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	show, err := a.Orch.AddScheduledShow(req.ArtistID, req.Title, req.DateTime)
	if err != nil {
		abortWith(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("show", show.ID).Str("title", show.Title).Msg("show scheduled")
	c.JSON(http.StatusCreated, show)
}

// RTCConfig hands browsers the ICE servers for RTCPeerConnection.
func (a *API) RTCConfig(c *gin.Context) {
	conf := rtc.ICEConfiguration(a.Cfg.ICEServers)
	c.JSON(http.StatusOK, gin.H{"iceServers": conf.ICEServers})
}

func (a *API) GetProfile(c *gin.Context) {
	name, _ := sessions.Default(c).Get("name").(string)
	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (a *API) SaveProfile(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := domain.NewProfile(req.Name, "")
	s := sessions.Default(c)
	s.Set("name", p.Name)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save profile session")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": domain.CodeInternal, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": p.Name})
}
