package signal

import (
	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

type profilePayload struct {
	UserName  string `json:"userName"`
	UserImage string `json:"userImage"`
}

func (ctl *SignalWSController) handleSetProfile(sid domain.SessionID, conn *WsSignalConn, w core.Wire) {
	var p profilePayload
	if err := decodePayload(w, &p); err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	if _, err := ctl.Orch.SetProfile(sid, p.UserName, p.UserImage); err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.UserName).Msg("profile updated")
	ctl.handleWhoAmI(sid, conn)
}

func (ctl *SignalWSController) handleSetRole(sid domain.SessionID, conn *WsSignalConn, w core.Wire) {
	var p struct {
		Role string `json:"role"`
	}
	if err := decodePayload(w, &p); err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	if _, err := ctl.Orch.AssignRole(sid, role); err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	ctl.handleWhoAmI(sid, conn)
}

func (ctl *SignalWSController) handleWhoAmI(sid domain.SessionID, conn *WsSignalConn) {
	sess, ok := ctl.Orch.Registry.Get(sid)
	if !ok {
		ctl.sendError(conn, "whoami", domain.ErrNotFound)
		return
	}
	ctl.send(conn, core.WhoAmI{
		SessionID: sess.ID,
		Role:      sess.Role,
		Profile:   sess.Profile,
		Seat:      sess.Seat,
	})
}
