package room

import (
	"cmp"
	"slices"
	"time"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/server/storage"
)

func toPlayerInfo(p *Player) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:       p.ID,
		Name:     p.Name,
		Score:    p.Score,
		IsHost:   p.IsHost,
		HasDrawn: p.HasDrawn,
	}
}

// PlayersInfo 按加入顺序返回所有玩家信息
func (r *Room) PlayersInfo() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, len(r.Players))
	for i, p := range r.Players {
		infos[i] = toPlayerInfo(p)
	}
	return infos
}

// Ranking 按分数降序排列，同分保持加入顺序；不改变房间内的顺序
func (r *Room) Ranking() []protocol.PlayerInfo {
	infos := r.PlayersInfo()
	slices.SortStableFunc(infos, func(a, b protocol.PlayerInfo) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return infos
}

// Info 生成房间快照，答案只对当前画手可见
func (r *Room) Info(viewerID string) protocol.RoomInfo {
	info := protocol.RoomInfo{
		ID:           r.Code,
		Host:         r.Host,
		Players:      r.PlayersInfo(),
		GameState:    r.State.String(),
		RoundNumber:  r.RoundNumber,
		RoundTimer:   r.RoundTimer,
		JoinRequests: make([]protocol.JoinRequestInfo, 0, len(r.JoinRequests)),
		DrawingData:  append(make([]protocol.DrawData, 0, len(r.DrawingLog)), r.DrawingLog...),
		ChatMessages: append(make([]protocol.ChatMessage, 0, len(r.ChatLog)), r.ChatLog...),
	}
	if r.CurrentDrawer != "" {
		drawer := r.CurrentDrawer
		info.CurrentDrawer = &drawer
	}
	if r.CurrentWord != "" && r.IsDrawer(viewerID) {
		word := r.CurrentWord
		info.CurrentWord = &word
	}
	for _, jr := range r.JoinRequests {
		info.JoinRequests = append(info.JoinRequests, protocol.JoinRequestInfo{ID: jr.ID, Name: jr.Name})
	}
	return info
}

// ToRoomData 将 Room 转换为可序列化的 RoomData
func (r *Room) ToRoomData(now time.Time) *storage.RoomData {
	data := &storage.RoomData{
		Code:          r.Code,
		Host:          r.Host,
		State:         r.State.String(),
		Players:       make([]storage.PlayerData, 0, len(r.Players)),
		CurrentDrawer: r.CurrentDrawer,
		RoundNumber:   r.RoundNumber,
		PendingJoins:  len(r.JoinRequests),
		CreatedAt:     r.CreatedAt.Unix(),
		UpdatedAt:     now.Unix(),
	}

	for _, p := range r.Players {
		data.Players = append(data.Players, storage.PlayerData{
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			IsHost:   p.IsHost,
			HasDrawn: p.HasDrawn,
		})
	}

	return data
}
