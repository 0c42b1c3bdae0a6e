package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
	"github.com/palemoky/draw-and-guess/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		ackError(client, msg, protocol.ErrorMessages[protocol.ErrCodeServerMaintenance])
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return
	}

	room, err := h.roomManager.CreateRoom(client.GetID(), payload.PlayerName)
	if err != nil {
		ackError(client, msg, err.Error())
		return
	}

	info := room.Info(client.GetID())
	ackOK(client, msg, protocol.AckPayload{RoomID: room.Code, Room: &info})
}

// handleJoinRequest 处理加入申请，结果通过应答返回给申请者
func (h *Handler) handleJoinRequest(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		ackError(client, msg, protocol.ErrorMessages[protocol.ErrCodeServerMaintenance])
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRequestPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return
	}

	if err := h.roomManager.RequestJoin(payload.RoomID, client.GetID(), payload.PlayerName); err != nil {
		log.Debug().Err(err).Str("room", payload.RoomID).Str("player", client.GetID()).Msg("join request refused")
		ackError(client, msg, err.Error())
		return
	}
	ackOK(client, msg, protocol.AckPayload{RoomID: payload.RoomID})
}

// handleJoinApprove 房主同意申请，非房主静默忽略
func (h *Handler) handleJoinApprove(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinDecisionPayload](msg)
	if err != nil {
		return
	}
	if !h.roomManager.IsHost(payload.RoomID, client.GetID()) {
		return
	}
	h.roomManager.ApproveJoin(payload.RoomID, client.GetID(), payload.PlayerID)
}

// handleJoinReject 房主拒绝申请，非房主静默忽略
func (h *Handler) handleJoinReject(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinDecisionPayload](msg)
	if err != nil {
		return
	}
	if !h.roomManager.IsHost(payload.RoomID, client.GetID()) {
		return
	}
	h.roomManager.RejectJoin(payload.RoomID, client.GetID(), payload.PlayerID)
}

// handleRoomState 查询房间快照
func (h *Handler) handleRoomState(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return
	}

	info, err := h.roomManager.RoomState(payload.RoomID, client.GetID())
	if err != nil {
		ackError(client, msg, err.Error())
		return
	}
	ackOK(client, msg, protocol.AckPayload{RoomID: info.ID, Room: info})
}
