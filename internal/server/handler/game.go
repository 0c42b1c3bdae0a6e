package handler

import (
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
	"github.com/palemoky/draw-and-guess/internal/types"
)

// handleGameStart 处理开始游戏，失败时直接发送 error 给房主
func (h *Handler) handleGameStart(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.rounds.StartGame(payload.RoomID, client.GetID()); err != nil {
		sendError(client, err)
	}
}

// handleGameRestart 处理重新开始
func (h *Handler) handleGameRestart(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.rounds.RestartGame(payload.RoomID, client.GetID()); err != nil {
		sendError(client, err)
	}
}

// handleWordChosen 画手选词
func (h *Handler) handleWordChosen(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.WordChosenPayload](msg)
	if err != nil {
		return
	}
	h.rounds.ChooseWord(payload.RoomID, client.GetID(), payload.Word)
}
