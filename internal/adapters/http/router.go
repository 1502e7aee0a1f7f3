package http

import (
	"context"
	"time"

	"github.com/dkeye/FrontRow/internal/adapters/signal"
	"github.com/dkeye/FrontRow/internal/app/orch"
	"github.com/dkeye/FrontRow/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware tags each browser with a long-lived token so log
// lines of one visitor can be correlated across reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("FrontRowSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := &API{Orch: o, Cfg: cfg, Started: time.Now()}
	r.GET("/health", api.Health)

	g := r.Group("/api")
	g.GET("/shows", api.ListShows)
	g.POST("/shows", api.CreateShow)
	g.GET("/rtc-config", api.RTCConfig)
	g.GET("/profile", api.GetProfile)
	g.POST("/profile", api.SaveProfile)

	ctrl := signal.NewSignalWSController(o, cfg)
	g.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	if cfg.Admin.Enabled {
		admin := &Admin{Orch: o}
		t := g.Group("/test")
		t.GET("/state", admin.State)
		t.POST("/reset", admin.Reset)
		t.POST("/seats/:seatId/assign", admin.AssignSeat)
		t.POST("/seats/:seatId/release", admin.ReleaseSeat)
		t.POST("/show/state", admin.ShowState)
		t.GET("/events", admin.Events)
		log.Warn().Str("module", "adapters.http").Msg("admin test endpoints enabled")
	}

	return r
}
