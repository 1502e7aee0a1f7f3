package signal

import (
	"errors"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

var errRateLimited = errors.New("too many seat requests")

type selectSeatPayload struct {
	SeatID    string `json:"seatId"`
	UserName  string `json:"userName"`
	UserImage string `json:"userImage"`
}

func (ctl *SignalWSController) handleSelectSeat(sid domain.SessionID, conn *WsSignalConn, w core.Wire) {
	var p selectSeatPayload
	if err := decodePayload(w, &p); err != nil {
		ctl.send(conn, core.SeatSelected{Success: false, Code: domain.CodeBadPayload, Message: err.Error()})
		return
	}
	if !ctl.Claims.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("seat claim rate limited")
		ctl.send(conn, core.SeatSelected{
			Success: false,
			SeatID:  domain.SeatID(p.SeatID),
			Code:    domain.CodeRateLimited,
			Message: errRateLimited.Error(),
		})
		return
	}

	seat, err := ctl.Orch.SelectSeat(sid, p.SeatID, p.UserName, p.UserImage)
	if err != nil {
		ctl.send(conn, core.SeatSelected{
			Success: false,
			SeatID:  domain.SeatID(p.SeatID),
			Code:    domain.CodeOf(err),
			Message: err.Error(),
		})
		return
	}
	ctl.send(conn, core.SeatSelected{Success: true, SeatID: seat.ID})
}

func (ctl *SignalWSController) handleLeaveSeat(sid domain.SessionID) {
	if _, ok := ctl.Orch.LeaveSeat(sid); !ok {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("leave-seat without a seat")
	}
}
