package room

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/apperrors"
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
)

// 定时任务类型
const (
	taskTick    = "tick"
	taskAdvance = "advance"
)

// taskKey 定时任务 key，按房间隔离
func taskKey(code, kind string) string {
	return code + "/" + kind
}

// RoundController 回合控制器，负责轮流作画、倒计时和计分
// 与 RoomManager 共用事件循环
type RoundController struct {
	rm *RoomManager
}

// StartGame 房主开始游戏
func (rc *RoundController) StartGame(code, callerID string) error {
	room := rc.rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}
	if !room.IsHost(callerID) {
		return apperrors.ErrNotAuthorized
	}
	if room.State != GameStateWaiting {
		return apperrors.ErrGameStarted
	}
	if len(room.Players) < MinPlayers {
		return apperrors.ErrInsufficientPlayers
	}

	room.State = GameStatePlaying
	room.generation++
	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgGameStarted, nil))

	log.Info().Str("room", room.Code).Int("players", len(room.Players)).Msg("🎮 game started")
	rc.advance(room)
	return nil
}

// RestartGame 房主重开游戏，清空分数和回合数据后延迟开始第一回合
func (rc *RoundController) RestartGame(code, callerID string) error {
	room := rc.rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}
	if !room.IsHost(callerID) {
		return apperrors.ErrNotAuthorized
	}
	if room.State == GameStateWaiting {
		return apperrors.ErrGameNotStarted
	}
	if len(room.Players) < MinPlayers {
		return apperrors.ErrInsufficientPlayers
	}

	rc.cancelTasks(room.Code)
	room.resetForRestart()
	room.State = GameStatePlaying
	room.generation++

	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgGameRestarted, protocol.GameRestartedPayload{
		Room: room.Info(""),
	}))
	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgGameStarted, nil))
	rc.rm.persist(room)

	rc.scheduleAdvance(room, rc.rm.settings.RestartDelay)
	log.Info().Str("room", room.Code).Msg("🔄 game restarted")
	return nil
}

// advance 选出下一位画手；所有人都画过则结束游戏
func (rc *RoundController) advance(room *Room) {
	drawer := room.nextDrawer()
	if drawer == nil {
		rc.finishGame(room)
		return
	}

	drawer.HasDrawn = true
	room.CurrentDrawer = drawer.ID
	room.CurrentWord = ""
	room.RoundNumber++
	room.RoundTimer = rc.rm.settings.RoundDuration
	room.DrawingLog = nil
	room.State = GameStatePlaying
	room.phase = PhaseChoosing
	room.wordOptions = rc.rm.words.Random(rc.rm.settings.WordOptions)

	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgRoundStart, protocol.RoundStartPayload{
		DrawerID:    drawer.ID,
		DrawerName:  drawer.Name,
		RoundNumber: room.RoundNumber,
		Timer:       room.RoundTimer,
	}))
	rc.rm.notifier.Send(drawer.ID, codec.MustNewMessage(protocol.MsgWordOptions, protocol.WordOptionsPayload{
		Options: room.WordOptions(),
	}))
	rc.rm.persist(room)

	log.Debug().Str("room", room.Code).Int("round", room.RoundNumber).Str("drawer", drawer.Name).Msg("🖌️ round started")
}

// finishGame 所有玩家都画过，公布最终排名
func (rc *RoundController) finishGame(room *Room) {
	room.State = GameStateFinished
	room.CurrentDrawer = ""
	room.CurrentWord = ""
	room.RoundTimer = 0
	room.phase = PhaseIdle
	room.wordOptions = nil

	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{
		Players: room.Ranking(),
	}))
	rc.rm.persist(room)

	log.Info().Str("room", room.Code).Int("rounds", room.RoundNumber).Msg("🏁 game over")
}

// ChooseWord 画手选词，其他人调用或不在选词阶段时忽略
func (rc *RoundController) ChooseWord(code, callerID, word string) {
	room := rc.rm.GetRoom(code)
	if room == nil || !room.IsDrawer(callerID) {
		return
	}
	if room.State != GameStatePlaying || room.phase != PhaseChoosing {
		return
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}

	room.CurrentWord = word
	room.phase = PhaseDrawing
	room.wordOptions = nil

	// 答案只发给画手
	rc.rm.notifier.Send(callerID, codec.MustNewMessage(protocol.MsgWordAssigned, protocol.WordAssignedPayload{
		Word: word,
	}))
	rc.scheduleTick(room)
}

func (rc *RoundController) scheduleTick(room *Room) {
	code, gen, round := room.Code, room.generation, room.RoundNumber
	rc.rm.scheduler.Schedule(taskKey(code, taskTick), time.Second, func() {
		rc.tick(code, gen, round)
	})
}

// tick 倒计时，每秒一次；房间已变化则什么都不做
func (rc *RoundController) tick(code string, generation, round int) {
	room := rc.rm.GetRoom(code)
	if room == nil || !room.isCurrent(generation, round, PhaseDrawing) {
		return
	}

	if room.RoundTimer > 0 {
		room.RoundTimer--
	}
	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgTimerUpdate, protocol.TimerUpdatePayload{
		Timer: room.RoundTimer,
	}))

	if room.RoundTimer <= 0 {
		rc.endRound(room, false)
		return
	}
	rc.scheduleTick(room)
}

// endRound 揭晓答案，延迟后进入下一回合
func (rc *RoundController) endRound(room *Room, wordGuessed bool) {
	rc.rm.scheduler.Cancel(taskKey(room.Code, taskTick))

	word := room.CurrentWord
	room.CurrentWord = ""
	room.phase = PhaseReveal
	room.wordOptions = nil

	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgRoundEnd, protocol.RoundEndPayload{
		Word:        word,
		WordGuessed: wordGuessed,
	}))
	rc.rm.persist(room)

	rc.scheduleAdvance(room, rc.rm.settings.RevealDelay)
}

func (rc *RoundController) scheduleAdvance(room *Room, after time.Duration) {
	code, gen, round, phase := room.Code, room.generation, room.RoundNumber, room.phase
	rc.rm.scheduler.Schedule(taskKey(code, taskAdvance), after, func() {
		room := rc.rm.GetRoom(code)
		if room == nil || !room.isCurrent(gen, round, phase) {
			return
		}
		rc.advance(room)
	})
}

// abortRound 画手离开，本回合按未猜中结束
func (rc *RoundController) abortRound(room *Room) {
	if room.State != GameStatePlaying {
		return
	}
	if room.phase == PhaseChoosing || room.phase == PhaseDrawing {
		rc.endRound(room, false)
	}
}

// cancelTasks 取消房间的所有定时任务
func (rc *RoundController) cancelTasks(code string) {
	rc.rm.scheduler.Cancel(taskKey(code, taskTick))
	rc.rm.scheduler.Cancel(taskKey(code, taskAdvance))
}

// HandleChat 聊天消息：先判定猜词，未猜中则作为普通聊天广播
func (rc *RoundController) HandleChat(code, senderID, text string) {
	room := rc.rm.GetRoom(code)
	if room == nil {
		return
	}
	sender := room.Player(senderID)
	if sender == nil || strings.TrimSpace(text) == "" {
		return
	}

	if room.canGuess(senderID) && strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(room.CurrentWord)) {
		rc.scoreGuess(room, sender)
		return
	}

	msg := protocol.ChatMessage{
		ID:         rc.rm.newID(),
		PlayerID:   sender.ID,
		PlayerName: sender.Name,
		Message:    text,
		Timestamp:  rc.rm.now().UnixMilli(),
	}
	room.ChatLog = append(room.ChatLog, msg)
	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgChat, msg))
}

// scoreGuess 猜中：猜中者和画手加分，然后结束本回合
func (rc *RoundController) scoreGuess(room *Room, guesser *Player) {
	guesser.Score += GuesserPoints
	if drawer := room.Player(room.CurrentDrawer); drawer != nil {
		drawer.Score += DrawerPoints
	}

	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgGuessCorrect, protocol.GuessCorrectPayload{
		PlayerID:   guesser.ID,
		PlayerName: guesser.Name,
		Word:       room.CurrentWord,
		Players:    room.PlayersInfo(),
	}))

	log.Debug().Str("room", room.Code).Str("player", guesser.Name).Msg("🎯 correct guess")
	rc.endRound(room, true)
}

// Draw 转发画手的笔画给其他玩家
func (rc *RoundController) Draw(code, callerID string, data protocol.DrawData) {
	room := rc.rm.GetRoom(code)
	if room == nil || room.State != GameStatePlaying || !room.IsDrawer(callerID) {
		return
	}

	room.DrawingLog = append(room.DrawingLog, data)
	room.BroadcastExcept(rc.rm.notifier, callerID, codec.MustNewMessage(protocol.MsgDrawUpdate, protocol.DrawUpdatePayload{
		Data: data,
	}))
}

// ClearDrawing 画手清空画布
func (rc *RoundController) ClearDrawing(code, callerID string) {
	room := rc.rm.GetRoom(code)
	if room == nil || !room.IsDrawer(callerID) {
		return
	}

	room.DrawingLog = nil
	room.Broadcast(rc.rm.notifier, codec.MustNewMessage(protocol.MsgDrawCleared, nil))
}
