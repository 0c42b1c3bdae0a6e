package room

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/palemoky/draw-and-guess/internal/protocol"
)

const (
	MaxPlayers    = 6   // 房间人数上限
	MinPlayers    = 2   // 开局最少人数
	GuesserPoints = 100 // 猜中者得分
	DrawerPoints  = 50  // 画手得分

	maxNameLength  = 20
	roomCodeLength = 6                                      // 房间号长度
	roomCodeChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" // 房间号字符集
)

// Player 房间中的玩家，ID 即连接 ID
type Player struct {
	ID       string
	Name     string
	Score    int
	IsHost   bool
	HasDrawn bool // 本局是否已当过画手
}

// JoinRequest 待房主审批的加入申请
type JoinRequest struct {
	ID          string
	Name        string
	RequestedAt time.Time
}

// Room 游戏房间
// 所有字段只在事件循环协程中读写
type Room struct {
	Code          string        // 房间号
	Host          string        // 房主连接 ID
	Players       []*Player     // 按加入顺序，也是轮流作画的顺序
	State         GameState     // 游戏状态
	CurrentDrawer string        // 当前画手，空表示无
	CurrentWord   string        // 当前答案，空表示未选词
	RoundNumber   int           // 本局回合数
	RoundTimer    int           // 剩余秒数
	JoinRequests  []*JoinRequest
	DrawingLog    []protocol.DrawData
	ChatLog       []protocol.ChatMessage
	CreatedAt     time.Time

	phase       RoundPhase
	wordOptions []string
	generation  int // 每次开局/重开递增，用于识别过期的定时任务
}

// Player 按 ID 查找玩家
func (r *Room) Player(id string) *Player {
	if i := r.indexOf(id); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// IsHost 房主权限检查
func (r *Room) IsHost(id string) bool {
	return id != "" && r.Host == id
}

// IsDrawer 当前画手检查
func (r *Room) IsDrawer(id string) bool {
	return id != "" && r.CurrentDrawer == id
}

// PlayerCount 玩家数量
func (r *Room) PlayerCount() int {
	return len(r.Players)
}

// Phase 当前回合阶段
func (r *Room) Phase() RoundPhase {
	return r.phase
}

// WordOptions 当前画手的候选词
func (r *Room) WordOptions() []string {
	return slices.Clone(r.wordOptions)
}

func (r *Room) indexOf(id string) int {
	return slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == id })
}

// takeJoinRequest 取出并移除加入申请
func (r *Room) takeJoinRequest(id string) *JoinRequest {
	i := slices.IndexFunc(r.JoinRequests, func(jr *JoinRequest) bool { return jr.ID == id })
	if i < 0 {
		return nil
	}
	req := r.JoinRequests[i]
	r.JoinRequests = slices.Delete(r.JoinRequests, i, i+1)
	return req
}

// nextDrawer 按加入顺序找到第一个还没画过的玩家
func (r *Room) nextDrawer() *Player {
	for _, p := range r.Players {
		if !p.HasDrawn {
			return p
		}
	}
	return nil
}

// isCurrent 定时任务触发时校验房间仍处于预期的局、回合和阶段
func (r *Room) isCurrent(generation, round int, phase RoundPhase) bool {
	return r.State == GameStatePlaying &&
		r.generation == generation &&
		r.RoundNumber == round &&
		r.phase == phase
}

// canGuess 是否可以对该玩家的聊天进行猜词判定
func (r *Room) canGuess(playerID string) bool {
	return r.State == GameStatePlaying &&
		r.phase == PhaseDrawing &&
		r.CurrentWord != "" &&
		!r.IsDrawer(playerID)
}

// resetForRestart 清空分数和回合数据
func (r *Room) resetForRestart() {
	r.CurrentDrawer = ""
	r.CurrentWord = ""
	r.RoundNumber = 0
	r.RoundTimer = 0
	r.DrawingLog = nil
	r.ChatLog = nil
	r.phase = PhaseIdle
	r.wordOptions = nil
	for _, p := range r.Players {
		p.Score = 0
		p.HasDrawn = false
	}
}

// Broadcast 广播消息给房间内所有玩家
func (r *Room) Broadcast(n Notifier, msg *protocol.Message) {
	for _, p := range r.Players {
		n.Send(p.ID, msg)
	}
}

// BroadcastExcept 广播消息给除指定玩家外的所有玩家
func (r *Room) BroadcastExcept(n Notifier, exceptID string, msg *protocol.Message) {
	for _, p := range r.Players {
		if p.ID != exceptID {
			n.Send(p.ID, msg)
		}
	}
}

// sanitizeName 去掉首尾空白并截断过长的昵称
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:maxNameLength]))
	}
	return name
}

// normalizeCode 房间号不区分大小写
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
