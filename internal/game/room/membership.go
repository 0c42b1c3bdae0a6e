package room

import (
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/apperrors"
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
)

// RequestJoin 申请加入房间，通知房主审批
func (rm *RoomManager) RequestJoin(code, playerID, playerName string) error {
	room := rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}
	if len(room.Players) >= MaxPlayers {
		return apperrors.ErrRoomFull
	}
	if room.State != GameStateWaiting {
		return apperrors.ErrGameStarted
	}
	if room.Player(playerID) != nil {
		return apperrors.ErrAlreadyInRoom
	}
	name := sanitizeName(playerName)
	if name == "" {
		return apperrors.ErrInvalidName
	}

	// 同一连接重复申请只更新昵称
	if i := slices.IndexFunc(room.JoinRequests, func(jr *JoinRequest) bool { return jr.ID == playerID }); i >= 0 {
		room.JoinRequests[i].Name = name
	} else {
		room.JoinRequests = append(room.JoinRequests, &JoinRequest{
			ID:          playerID,
			Name:        name,
			RequestedAt: rm.now(),
		})
	}

	rm.notifier.Send(room.Host, codec.MustNewMessage(protocol.MsgJoinRequested, protocol.JoinRequestedPayload{
		PlayerID:   playerID,
		PlayerName: name,
	}))
	rm.persist(room)

	log.Debug().Str("room", room.Code).Str("player", name).Msg("🙋 join requested")
	return nil
}

// ApproveJoin 房主同意加入申请，非房主或申请不存在时静默忽略
func (rm *RoomManager) ApproveJoin(code, requesterID, playerID string) {
	room := rm.GetRoom(code)
	if room == nil || !room.IsHost(requesterID) {
		return
	}
	req := room.takeJoinRequest(playerID)
	if req == nil {
		return
	}

	// 申请期间房间可能已满
	if len(room.Players) >= MaxPlayers {
		rm.notifier.Send(req.ID, codec.MustNewMessage(protocol.MsgJoinRejected, protocol.JoinRejectedPayload{
			Reason: protocol.ErrorMessages[protocol.ErrCodeRoomFull],
		}))
		rm.persist(room)
		return
	}

	player := &Player{ID: req.ID, Name: req.Name}
	room.Players = append(room.Players, player)

	rm.notifier.Send(player.ID, codec.MustNewMessage(protocol.MsgJoinApproved, protocol.JoinApprovedPayload{
		Room: room.Info(player.ID),
	}))
	room.Broadcast(rm.notifier, codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player:  toPlayerInfo(player),
		Players: room.PlayersInfo(),
	}))
	rm.persist(room)

	log.Info().Str("room", room.Code).Str("player", player.Name).Int("players", len(room.Players)).Msg("👤 player joined")
}

// RejectJoin 房主拒绝加入申请，非房主或申请不存在时静默忽略
func (rm *RoomManager) RejectJoin(code, requesterID, playerID string) {
	room := rm.GetRoom(code)
	if room == nil || !room.IsHost(requesterID) {
		return
	}
	req := room.takeJoinRequest(playerID)
	if req == nil {
		return
	}

	rm.notifier.Send(req.ID, codec.MustNewMessage(protocol.MsgJoinRejected, protocol.JoinRejectedPayload{}))
	rm.persist(room)
}

// RemovePlayer 连接断开：从所有房间移除该玩家及其加入申请
// 房主离开或房间清空时解散房间；画手离开时提前结束本回合
func (rm *RoomManager) RemovePlayer(playerID string) {
	for _, code := range rm.roomCodes() {
		room := rm.rooms[code]

		hadRequest := room.takeJoinRequest(playerID) != nil
		idx := room.indexOf(playerID)
		if idx < 0 {
			if hadRequest {
				rm.persist(room)
			}
			continue
		}

		player := room.Players[idx]
		room.Players = slices.Delete(room.Players, idx, idx+1)
		wasDrawer := room.IsDrawer(playerID)
		if wasDrawer {
			room.CurrentDrawer = ""
		}

		log.Info().Str("room", code).Str("player", player.Name).Msg("👋 player left")

		if room.IsHost(playerID) || len(room.Players) == 0 {
			room.Broadcast(rm.notifier, codec.MustNewMessage(protocol.MsgRoomClosed, nil))
			rm.DeleteRoom(code)
			continue
		}

		room.Broadcast(rm.notifier, codec.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Players:    room.PlayersInfo(),
		}))
		if wasDrawer {
			rm.rounds.abortRound(room)
		}
		rm.persist(room)
	}
}
