package protocol

import "math"

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
}

// JoinRequestPayload 申请加入房间
type JoinRequestPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// JoinDecisionPayload 房主审批（同意/拒绝）
type JoinDecisionPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RoomPayload 只携带房间号的请求（开始、重开、清屏、查询）
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// WordChosenPayload 画手选词
type WordChosenPayload struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

// DrawDataPayload 笔画数据
type DrawDataPayload struct {
	RoomID string   `json:"roomId"`
	Data   DrawData `json:"data"`
}

// ChatRequestPayload 聊天/猜词
type ChatRequestPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// AckPayload 请求应答
type AckPayload struct {
	Success bool      `json:"success"`
	RoomID  string    `json:"roomId,omitempty"`
	Room    *RoomInfo `json:"room,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// JoinRequestedPayload 通知房主有新的加入申请
type JoinRequestedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// JoinApprovedPayload 加入申请通过
type JoinApprovedPayload struct {
	Room RoomInfo `json:"room"`
}

// JoinRejectedPayload 加入申请被拒绝
type JoinRejectedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// PlayerJoinedPayload 新玩家加入
type PlayerJoinedPayload struct {
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

// PlayerLeftPayload 玩家离开
type PlayerLeftPayload struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Players    []PlayerInfo `json:"players"`
}

// GameRestartedPayload 游戏已重置
type GameRestartedPayload struct {
	Room RoomInfo `json:"room"`
}

// RoundStartPayload 新回合开始
type RoundStartPayload struct {
	DrawerID    string `json:"drawerId"`
	DrawerName  string `json:"drawerName"`
	RoundNumber int    `json:"roundNumber"`
	Timer       int    `json:"timer"`
}

// WordOptionsPayload 候选词
type WordOptionsPayload struct {
	Options []string `json:"options"`
}

// WordAssignedPayload 选词确认
type WordAssignedPayload struct {
	Word string `json:"word"`
}

// TimerUpdatePayload 倒计时
type TimerUpdatePayload struct {
	Timer int `json:"timer"`
}

// DrawUpdatePayload 笔画转发
type DrawUpdatePayload struct {
	Data DrawData `json:"data"`
}

// GuessCorrectPayload 猜中
type GuessCorrectPayload struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Word       string       `json:"word"`
	Players    []PlayerInfo `json:"players"`
}

// RoundEndPayload 回合结束，揭晓答案
type RoundEndPayload struct {
	Word        string `json:"word"`
	WordGuessed bool   `json:"wordGuessed"`
}

// GameOverPayload 游戏结束，按分数降序
type GameOverPayload struct {
	Players []PlayerInfo `json:"players"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 共享数据结构 ---

// 笔画类型
const (
	StrokeStart = "start"
	StrokeDraw  = "draw"
	StrokeEnd   = "end"
)

// DrawData 单个笔画点
type DrawData struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

// Valid 校验笔画类型和坐标
func (d DrawData) Valid() bool {
	switch d.Type {
	case StrokeStart, StrokeDraw, StrokeEnd:
	default:
		return false
	}
	for _, v := range []float64{d.X, d.Y, d.Size} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return d.Size >= 0
}

// ChatMessage 聊天记录
type ChatMessage struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"` // 毫秒
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"isHost"`
	HasDrawn bool   `json:"hasDrawn"`
}

// JoinRequestInfo 待审批的加入申请
type JoinRequestInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomInfo 房间快照
type RoomInfo struct {
	ID            string            `json:"id"`
	Host          string            `json:"host"`
	Players       []PlayerInfo      `json:"players"`
	GameState     string            `json:"gameState"`
	CurrentDrawer *string           `json:"currentDrawer"`
	CurrentWord   *string           `json:"currentWord"` // 仅画手可见
	RoundNumber   int               `json:"roundNumber"`
	RoundTimer    int               `json:"roundTimer"`
	JoinRequests  []JoinRequestInfo `json:"joinRequests"`
	DrawingData   []DrawData        `json:"drawingData"`
	ChatMessages  []ChatMessage     `json:"chatMessages"`
}
