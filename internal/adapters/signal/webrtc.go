package signal

import (
	"encoding/json"

	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/rs/zerolog/log"
)

// relayPayload is what a client sends for offer, answer and ice-candidate.
// The inner payload is opaque to the server.
type relayPayload struct {
	Target  domain.SessionID `json:"targetSessionId"`
	Payload json.RawMessage  `json:"payload"`
}

func (ctl *SignalWSController) handleRelay(sid domain.SessionID, conn *WsSignalConn, w core.Wire) {
	var p relayPayload
	if err := decodePayload(w, &p); err != nil {
		ctl.sendError(conn, w.Type, err)
		return
	}
	env := domain.Envelope{
		Kind:    domain.SignalKind(w.Type),
		Target:  p.Target,
		Payload: p.Payload,
	}
	if err := ctl.Orch.Forward(sid, env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", w.Type).Msg("relay rejected")
		ctl.sendError(conn, w.Type, err)
	}
}
