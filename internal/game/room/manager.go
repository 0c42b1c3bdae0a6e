package room

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/apperrors"
	"github.com/palemoky/draw-and-guess/internal/game/word"
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/server/storage"
)

// Notifier 向单个连接投递消息，实现方不能阻塞
type Notifier interface {
	Send(playerID string, msg *protocol.Message)
}

// Scheduler 按 key 管理的延时任务，同 key 重复调度会替换旧任务
// 任务必须在事件循环中执行
type Scheduler interface {
	Schedule(key string, after time.Duration, task func())
	Cancel(key string)
}

// WordSource 候选词来源
type WordSource interface {
	Random(n int) []string
}

// SnapshotSink 房间快照镜像（可选）
type SnapshotSink interface {
	Save(data *storage.RoomData)
	Delete(code string)
}

// Settings 回合节奏
type Settings struct {
	RoundDuration int           // 每回合秒数
	RevealDelay   time.Duration // 揭晓后到下一回合
	RestartDelay  time.Duration // 重开后到第一回合
	WordOptions   int           // 候选词数量
}

// DefaultSettings 默认回合节奏
func DefaultSettings() Settings {
	return Settings{
		RoundDuration: 75,
		RevealDelay:   3 * time.Second,
		RestartDelay:  time.Second,
		WordOptions:   4,
	}
}

// Deps 房间管理器依赖，Notifier 和 Scheduler 必填
type Deps struct {
	Notifier  Notifier
	Scheduler Scheduler
	Words     WordSource
	Snapshots SnapshotSink
	Settings  Settings
	Now       func() time.Time
	NewID     func() string // 聊天消息 ID
	NewCode   func() string // 房间号候选
}

// RoomManager 房间管理器（房间注册表）
// 不加锁：所有方法都必须在同一个事件循环协程中调用
type RoomManager struct {
	notifier  Notifier
	scheduler Scheduler
	words     WordSource
	snapshots SnapshotSink
	settings  Settings
	now       func() time.Time
	newID     func() string
	newCode   func() string

	rooms  map[string]*Room
	rounds *RoundController
}

// NewRoomManager 创建房间管理器
func NewRoomManager(deps Deps) *RoomManager {
	rm := &RoomManager{
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		words:     deps.Words,
		snapshots: deps.Snapshots,
		settings:  deps.Settings,
		now:       deps.Now,
		newID:     deps.NewID,
		newCode:   deps.NewCode,
		rooms:     make(map[string]*Room),
	}

	defaults := DefaultSettings()
	if rm.settings.RoundDuration <= 0 {
		rm.settings.RoundDuration = defaults.RoundDuration
	}
	if rm.settings.RevealDelay <= 0 {
		rm.settings.RevealDelay = defaults.RevealDelay
	}
	if rm.settings.RestartDelay <= 0 {
		rm.settings.RestartDelay = defaults.RestartDelay
	}
	if rm.settings.WordOptions <= 0 {
		rm.settings.WordOptions = defaults.WordOptions
	}
	if rm.words == nil {
		rm.words = word.Default()
	}
	if rm.now == nil {
		rm.now = time.Now
	}
	if rm.newID == nil {
		rm.newID = uuid.NewString
	}
	if rm.newCode == nil {
		rm.newCode = randomRoomCode
	}

	rm.rounds = &RoundController{rm: rm}
	return rm
}

// Rounds 回合控制器
func (rm *RoomManager) Rounds() *RoundController {
	return rm.rounds
}

// CreateRoom 创建房间，创建者成为房主
func (rm *RoomManager) CreateRoom(hostID, hostName string) (*Room, error) {
	name := sanitizeName(hostName)
	if name == "" {
		return nil, apperrors.ErrInvalidName
	}

	room := &Room{
		Code:  rm.generateRoomCode(),
		Host:  hostID,
		State: GameStateWaiting,
		Players: []*Player{
			{ID: hostID, Name: name, IsHost: true},
		},
		CreatedAt: rm.now(),
	}
	rm.rooms[room.Code] = room
	rm.persist(room)

	log.Info().Str("room", room.Code).Str("host", name).Msg("🏠 room created")
	return room, nil
}

// GetRoom 获取房间，房间号不区分大小写
func (rm *RoomManager) GetRoom(code string) *Room {
	return rm.rooms[normalizeCode(code)]
}

// IsHost 房主权限检查
func (rm *RoomManager) IsHost(code, playerID string) bool {
	room := rm.GetRoom(code)
	return room != nil && room.IsHost(playerID)
}

// DeleteRoom 删除房间并取消其定时任务
func (rm *RoomManager) DeleteRoom(code string) {
	code = normalizeCode(code)
	if _, ok := rm.rooms[code]; !ok {
		return
	}
	delete(rm.rooms, code)
	rm.rounds.cancelTasks(code)
	if rm.snapshots != nil {
		rm.snapshots.Delete(code)
	}
	log.Info().Str("room", code).Msg("🏠 room closed")
}

// RoomState 房间快照
func (rm *RoomManager) RoomState(code, viewerID string) (*protocol.RoomInfo, error) {
	room := rm.GetRoom(code)
	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	info := room.Info(viewerID)
	return &info, nil
}

// RoomCount 房间数量
func (rm *RoomManager) RoomCount() int {
	return len(rm.rooms)
}

// ActiveGamesCount 进行中的游戏数量
func (rm *RoomManager) ActiveGamesCount() int {
	count := 0
	for _, room := range rm.rooms {
		if room.State == GameStatePlaying {
			count++
		}
	}
	return count
}

// roomCodes 按字典序返回所有房间号，保证遍历顺序稳定
func (rm *RoomManager) roomCodes() []string {
	codes := make([]string, 0, len(rm.rooms))
	for code := range rm.rooms {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// persist 镜像房间快照
func (rm *RoomManager) persist(room *Room) {
	if rm.snapshots != nil {
		rm.snapshots.Save(room.ToRoomData(rm.now()))
	}
}

// generateRoomCode 生成未被占用的房间号
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := normalizeCode(rm.newCode())
		if _, exists := rm.rooms[code]; !exists && code != "" {
			return code
		}
	}
}

func randomRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
	}
	return string(code)
}
