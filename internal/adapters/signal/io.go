package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errBadPayload = errors.New("bad payload")

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		ctl.Claims.Forget(sid)
		cancel()
		c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid domain.SessionID, c *WsSignalConn, data []byte) {
	w, err := core.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		ctl.sendError(c, "", errBadPayload)
		return
	}

	switch w.Type {
	case "select-seat":
		ctl.handleSelectSeat(sid, c, w)
	case "leave-seat":
		ctl.handleLeaveSeat(sid)
	case "set-profile":
		ctl.handleSetProfile(sid, c, w)
	case "set-role":
		ctl.handleSetRole(sid, c, w)
	case "offer", "answer", "ice-candidate":
		ctl.handleRelay(sid, c, w)
	case "artist-pre-show":
		ctl.handlePreShow(sid, c, w.Type)
	case "artist-go-live":
		ctl.handleGoLive(sid, c, w.Type)
	case "artist-end-show":
		ctl.handleEndShow(sid, c, w.Type)
	case "sync":
		ctl.send(c, core.StateSync{State: ctl.Orch.State()})
	case "whoami":
		ctl.handleWhoAmI(sid, c)
	case "ping":
		ctl.send(c, core.Pong{})
	default:
		log.Warn().Str("module", "signal").Str("type", w.Type).Msg("unknown signal")
		ctl.sendError(c, w.Type, errBadPayload)
	}
}

// decodePayload unmarshals the frame payload into v. A missing payload
// leaves v at its zero value.
func decodePayload(w core.Wire, v any) error {
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(w.Payload, v); err != nil {
		return errors.Join(errBadPayload, err)
	}
	return nil
}

func (ctl *SignalWSController) send(c *WsSignalConn, ev core.Event) {
	f, err := core.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send encode")
		return
	}
	if err := c.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", string(ev.Kind())).Msg("send")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, request string, err error) {
	code := domain.CodeOf(err)
	if errors.Is(err, errBadPayload) {
		code = domain.CodeBadPayload
	}
	ctl.send(c, core.ErrorReply{Code: code, Message: err.Error(), Request: request})
}
