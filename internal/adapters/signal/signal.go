// Package signal is the websocket front of the coordination server: it
// turns inbound frames into orchestrator calls and writes outbound events.
package signal

import (
	"context"
	"net/http"
	"sync"

	"github.com/dkeye/FrontRow/internal/app/orch"
	"github.com/dkeye/FrontRow/internal/config"
	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type SignalWSController struct {
	Orch   *orch.Orchestrator
	Cfg    *config.Config
	Claims *SessionRateLimiter

	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:   o,
		Cfg:    cfg,
		Claims: NewSessionRateLimiter(cfg.SeatClaims.Limit, cfg.SeatClaims.Interval),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// WsSignalConn queues frames for the write pump. TrySend never blocks.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// connectOptions reads ?role= and ?name= from the upgrade request. A name
// remembered in the cookie session fills in when the query has none.
func connectOptions(c *gin.Context) orch.ConnectOptions {
	var opts orch.ConnectOptions
	if raw := c.Query("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			log.Warn().Str("module", "signal").Str("role", raw).Msg("ignoring unknown role")
		} else {
			opts.Role = role
		}
	}
	opts.Name = c.Query("name")
	if opts.Name == "" {
		if name, ok := sessions.Default(c).Get("name").(string); ok {
			opts.Name = name
		}
	}
	return opts
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	opts := connectOptions(c)

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	sess, err := ctl.Orch.Connect(conn, cancel, opts)
	if err != nil {
		ctl.sendError(conn, "connect", err)
	}
	log.Info().Str("module", "signal").Str("sid", string(sess.ID)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess.ID, conn)
}
