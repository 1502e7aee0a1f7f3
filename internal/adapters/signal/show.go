package signal

import (
	"github.com/dkeye/FrontRow/internal/domain"
)

func (ctl *SignalWSController) handlePreShow(sid domain.SessionID, conn *WsSignalConn, request string) {
	if _, err := ctl.Orch.PreShowBy(sid); err != nil {
		ctl.sendError(conn, request, err)
	}
}

func (ctl *SignalWSController) handleGoLive(sid domain.SessionID, conn *WsSignalConn, request string) {
	if _, err := ctl.Orch.GoLive(sid); err != nil {
		ctl.sendError(conn, request, err)
	}
}

func (ctl *SignalWSController) handleEndShow(sid domain.SessionID, conn *WsSignalConn, request string) {
	if _, err := ctl.Orch.EndShow(sid); err != nil {
		ctl.sendError(conn, request, err)
	}
}
