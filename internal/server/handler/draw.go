package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
	"github.com/palemoky/draw-and-guess/internal/types"
)

// handleDrawData 转发笔画，非法数据丢弃
func (h *Handler) handleDrawData(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.DrawDataPayload](msg)
	if err != nil {
		return
	}
	if !payload.Data.Valid() {
		log.Debug().Str("player", client.GetID()).Str("stroke", payload.Data.Type).Msg("invalid draw data dropped")
		return
	}
	h.rounds.Draw(payload.RoomID, client.GetID(), payload.Data)
}

// handleDrawClear 清空画布
func (h *Handler) handleDrawClear(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		return
	}
	h.rounds.ClearDrawing(payload.RoomID, client.GetID())
}
