package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/draw-and-guess/internal/apperrors"
	"github.com/palemoky/draw-and-guess/internal/protocol"
)

func TestRound_AliceBobScenario(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	rc := env.rm.Rounds()

	// 创建房间并申请加入
	room, err := env.rm.CreateRoom("H", "Alice")
	require.NoError(t, err)
	require.Equal(t, "ABC123", room.Code)
	require.NoError(t, env.rm.RequestJoin("ABC123", "P1", "Bob"))
	assert.NotNil(t, env.notifier.Last("H", protocol.MsgJoinRequested))

	// 房主同意
	env.rm.ApproveJoin("ABC123", "H", "P1")
	assert.NotNil(t, env.notifier.Last("P1", protocol.MsgJoinApproved))
	joined := payloadOf[protocol.PlayerJoinedPayload](t, env.notifier.Last("H", protocol.MsgPlayerJoined))
	assert.Len(t, joined.Players, 2)

	// 开始游戏，H 先画
	require.NoError(t, rc.StartGame("ABC123", "H"))
	start := payloadOf[protocol.RoundStartPayload](t, env.notifier.Last("P1", protocol.MsgRoundStart))
	assert.Equal(t, protocol.RoundStartPayload{DrawerID: "H", DrawerName: "Alice", RoundNumber: 1, Timer: 75}, *start)
	options := payloadOf[protocol.WordOptionsPayload](t, env.notifier.Last("H", protocol.MsgWordOptions))
	assert.Equal(t, []string{"apple", "banana", "cat", "dog"}, options.Options)
	assert.Nil(t, env.notifier.Last("P1", protocol.MsgWordOptions))

	// 选词只通知画手
	rc.ChooseWord("ABC123", "H", "apple")
	assigned := payloadOf[protocol.WordAssignedPayload](t, env.notifier.Last("H", protocol.MsgWordAssigned))
	assert.Equal(t, "apple", assigned.Word)
	assert.Nil(t, env.notifier.Last("P1", protocol.MsgWordAssigned))

	// P1 猜中
	rc.HandleChat("ABC123", "P1", "APPLE")
	correct := payloadOf[protocol.GuessCorrectPayload](t, env.notifier.Last("H", protocol.MsgGuessCorrect))
	assert.Equal(t, "P1", correct.PlayerID)
	assert.Equal(t, "apple", correct.Word)
	assert.Equal(t, 50, correct.Players[0].Score)
	assert.Equal(t, 100, correct.Players[1].Score)
	end := payloadOf[protocol.RoundEndPayload](t, env.notifier.Last("P1", protocol.MsgRoundEnd))
	assert.Equal(t, protocol.RoundEndPayload{Word: "apple", WordGuessed: true}, *end)
	assert.Nil(t, env.notifier.Last("P1", protocol.MsgChat))

	// 3 秒后轮到 P1
	require.True(t, env.scheduler.Pending("ABC123/advance"))
	assert.Equal(t, 3*time.Second, env.scheduler.Delay("ABC123/advance"))
	require.True(t, env.scheduler.Fire("ABC123/advance"))
	start = payloadOf[protocol.RoundStartPayload](t, env.notifier.Last("H", protocol.MsgRoundStart))
	assert.Equal(t, "P1", start.DrawerID)
	assert.Equal(t, 2, start.RoundNumber)

	// P1 的回合超时，随后游戏结束
	rc.ChooseWord("ABC123", "P1", "banana")
	room.RoundTimer = 1
	require.True(t, env.scheduler.Fire("ABC123/tick"))
	require.True(t, env.scheduler.Fire("ABC123/advance"))

	assert.Equal(t, GameStateFinished, room.State)
	over := payloadOf[protocol.GameOverPayload](t, env.notifier.Last("H", protocol.MsgGameOver))
	require.Len(t, over.Players, 2)
	assert.Equal(t, "P1", over.Players[0].ID)
	assert.Equal(t, 100, over.Players[0].Score)
	assert.Equal(t, "H", over.Players[1].ID)
	assert.Equal(t, 50, over.Players[1].Score)

	// 房间内的顺序不变
	assert.Equal(t, "H", room.Players[0].ID)
}

func TestStartGame_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "SOLO00", "ABC123")
	env.newRoomWithPlayers(t, "s1")
	env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()

	assert.ErrorIs(t, rc.StartGame("NOPE00", "h1"), apperrors.ErrRoomNotFound)
	assert.ErrorIs(t, rc.StartGame("SOLO00", "s1"), apperrors.ErrInsufficientPlayers)
	assert.ErrorIs(t, rc.StartGame("ABC123", "p1"), apperrors.ErrNotAuthorized)

	require.NoError(t, rc.StartGame("ABC123", "h1"))
	assert.ErrorIs(t, rc.StartGame("ABC123", "h1"), apperrors.ErrGameStarted)
	assert.Equal(t, 1, env.notifier.Count("p1", protocol.MsgGameStarted))
}

func TestRound_RotationVisitsEveryPlayerOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "a", "b", "c", "d")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "a"))

	var drawers []string
	for room.State == GameStatePlaying {
		drawers = append(drawers, room.CurrentDrawer)
		rc.ChooseWord("ABC123", room.CurrentDrawer, "apple")
		rc.endRound(room, false)
		require.True(t, env.scheduler.Fire("ABC123/advance"))
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, drawers)
	assert.Equal(t, GameStateFinished, room.State)
	assert.Equal(t, 4, room.RoundNumber)
	assert.Empty(t, room.CurrentDrawer)
	assert.Equal(t, 1, env.notifier.Count("a", protocol.MsgGameOver))
}

func TestRound_PlayerJoiningMidGameGetsATurn(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	room.JoinRequests = append(room.JoinRequests, &JoinRequest{ID: "late", Name: "Late"})
	require.NoError(t, rc.StartGame("ABC123", "h1"))

	env.rm.ApproveJoin("ABC123", "h1", "late")
	require.Len(t, room.Players, 3)

	var drawers []string
	for room.State == GameStatePlaying {
		drawers = append(drawers, room.CurrentDrawer)
		rc.endRound(room, false)
		require.True(t, env.scheduler.Fire("ABC123/advance"))
	}
	assert.Equal(t, []string{"h1", "p1", "late"}, drawers)
}

func TestRound_TimerCountdown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))

	// 选词前没有倒计时
	assert.False(t, env.scheduler.Pending("ABC123/tick"))
	rc.ChooseWord("ABC123", "h1", "apple")
	require.True(t, env.scheduler.Pending("ABC123/tick"))
	assert.Equal(t, time.Second, env.scheduler.Delay("ABC123/tick"))

	for i := 74; i >= 1; i-- {
		require.True(t, env.scheduler.Fire("ABC123/tick"))
		assert.Equal(t, i, room.RoundTimer)
	}
	update := payloadOf[protocol.TimerUpdatePayload](t, env.notifier.Last("p1", protocol.MsgTimerUpdate))
	assert.Equal(t, 1, update.Timer)

	require.True(t, env.scheduler.Fire("ABC123/tick"))
	assert.Zero(t, room.RoundTimer)
	assert.False(t, env.scheduler.Pending("ABC123/tick"))
	assert.Equal(t, PhaseReveal, room.Phase())
	assert.Equal(t, 75, env.notifier.Count("p1", protocol.MsgTimerUpdate))

	end := payloadOf[protocol.RoundEndPayload](t, env.notifier.Last("p1", protocol.MsgRoundEnd))
	assert.Equal(t, protocol.RoundEndPayload{Word: "apple", WordGuessed: false}, *end)
}

func TestRound_StaleTickIsIgnored(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "apple")

	// 捕获旧回合的 tick，然后回合提前结束
	staleGen, staleRound := room.generation, room.RoundNumber
	rc.HandleChat("ABC123", "p1", "apple")
	env.notifier.Reset()

	rc.tick("ABC123", staleGen, staleRound)
	rc.tick("NOPE00", staleGen, staleRound)

	assert.Empty(t, env.notifier.All())
	assert.Equal(t, 75, room.RoundTimer)
}

func TestRound_ChooseWordRules(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()

	// 未开局
	rc.ChooseWord("ABC123", "h1", "apple")
	assert.Empty(t, room.CurrentWord)

	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "p1", "apple")
	rc.ChooseWord("ABC123", "h1", "   ")
	assert.Empty(t, room.CurrentWord)
	assert.Equal(t, PhaseChoosing, room.Phase())

	rc.ChooseWord("ABC123", "h1", " custom ")
	assert.Equal(t, "custom", room.CurrentWord)

	// 已选过词
	rc.ChooseWord("ABC123", "h1", "apple")
	assert.Equal(t, "custom", room.CurrentWord)
	assert.Equal(t, 1, env.notifier.Count("h1", protocol.MsgWordAssigned))
}

func TestHandleChat_GuessScoresOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1", "p2")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "Apple")

	rc.HandleChat("ABC123", "p1", "  aPPle ")
	rc.HandleChat("ABC123", "p2", "apple")

	assert.Equal(t, 100, room.Player("p1").Score)
	assert.Zero(t, room.Player("p2").Score)
	assert.Equal(t, 50, room.Player("h1").Score)
	assert.Equal(t, 1, env.notifier.Count("h1", protocol.MsgGuessCorrect))
	assert.Equal(t, 1, env.notifier.Count("h1", protocol.MsgRoundEnd))

	// 第二次猜测作为普通聊天
	chat := payloadOf[protocol.ChatMessage](t, env.notifier.Last("h1", protocol.MsgChat))
	assert.Equal(t, "p2", chat.PlayerID)
	assert.Equal(t, "apple", chat.Message)
}

func TestHandleChat_DrawerCannotGuess(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "apple")

	rc.HandleChat("ABC123", "h1", "apple")

	assert.Zero(t, room.Player("h1").Score)
	assert.Equal(t, PhaseDrawing, room.Phase())
	assert.Equal(t, 1, env.notifier.Count("p1", protocol.MsgChat))
}

func TestHandleChat_DrawerLeftOnlyGuesserScores(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "apple")

	// 画手不在玩家列表中（例如被移出）时只给猜中者加分
	room.Players = room.Players[1:]
	rc.HandleChat("ABC123", "p1", "apple")

	assert.Equal(t, 100, room.Player("p1").Score)
}

func TestHandleChat_PlainMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()

	rc.HandleChat("ABC123", "p1", "hello <b>")
	rc.HandleChat("ABC123", "p1", "   ")      // 空消息
	rc.HandleChat("ABC123", "stranger", "hi") // 非房间成员
	rc.HandleChat("NOPE00", "p1", "hi")       // 无此房间

	require.Len(t, room.ChatLog, 1)
	want := protocol.ChatMessage{
		ID:         "msg-1",
		PlayerID:   "p1",
		PlayerName: "Player p1",
		Message:    "hello <b>",
		Timestamp:  testNow.UnixMilli(),
	}
	assert.Equal(t, want, room.ChatLog[0])

	got := payloadOf[protocol.ChatMessage](t, env.notifier.Last("h1", protocol.MsgChat))
	assert.Equal(t, want, *got)
	assert.Equal(t, 1, env.notifier.Count("p1", protocol.MsgChat))
}

func TestRestartGame_ResetsEverything(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "apple")
	rc.HandleChat("ABC123", "p1", "nope")
	rc.HandleChat("ABC123", "p1", "apple")
	require.True(t, env.scheduler.Fire("ABC123/advance"))
	require.Equal(t, 2, room.RoundNumber)
	oldGen := room.generation

	// 非房主
	assert.ErrorIs(t, rc.RestartGame("ABC123", "p1"), apperrors.ErrNotAuthorized)
	assert.ErrorIs(t, rc.RestartGame("NOPE00", "h1"), apperrors.ErrRoomNotFound)
	env.notifier.Reset()

	require.NoError(t, rc.RestartGame("ABC123", "h1"))

	assert.Equal(t, GameStatePlaying, room.State)
	assert.Zero(t, room.RoundNumber)
	assert.Zero(t, room.RoundTimer)
	assert.Empty(t, room.CurrentDrawer)
	assert.Empty(t, room.CurrentWord)
	assert.Empty(t, room.ChatLog)
	assert.Empty(t, room.DrawingLog)
	assert.Equal(t, oldGen+1, room.generation)
	for _, p := range room.Players {
		assert.Zero(t, p.Score)
		assert.False(t, p.HasDrawn)
	}

	assert.Equal(t, []protocol.MessageType{protocol.MsgGameRestarted, protocol.MsgGameStarted}, env.notifier.Types("p1"))
	restarted := payloadOf[protocol.GameRestartedPayload](t, env.notifier.Last("p1", protocol.MsgGameRestarted))
	assert.Equal(t, "playing", restarted.Room.GameState)
	assert.Zero(t, restarted.Room.RoundNumber)

	// 延迟后开始第一回合
	assert.Equal(t, time.Second, env.scheduler.Delay("ABC123/advance"))
	require.True(t, env.scheduler.Fire("ABC123/advance"))
	assert.Equal(t, "h1", room.CurrentDrawer)
	assert.Equal(t, 1, room.RoundNumber)
}

func TestRestartGame_AfterFinished(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	for room.State == GameStatePlaying {
		rc.endRound(room, false)
		require.True(t, env.scheduler.Fire("ABC123/advance"))
	}
	require.Equal(t, GameStateFinished, room.State)

	require.NoError(t, rc.RestartGame("ABC123", "h1"))
	require.True(t, env.scheduler.Fire("ABC123/advance"))
	assert.Equal(t, GameStatePlaying, room.State)
	assert.Equal(t, 1, room.RoundNumber)
}

func TestRestartGame_Preconditions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()

	assert.ErrorIs(t, rc.RestartGame("ABC123", "h1"), apperrors.ErrGameNotStarted)

	require.NoError(t, rc.StartGame("ABC123", "h1"))
	room.Players = room.Players[:1]
	assert.ErrorIs(t, rc.RestartGame("ABC123", "h1"), apperrors.ErrInsufficientPlayers)
}

func TestRestartGame_InvalidatesPendingTasks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.ChooseWord("ABC123", "h1", "apple")
	staleGen := room.generation

	require.NoError(t, rc.RestartGame("ABC123", "h1"))
	assert.False(t, env.scheduler.Pending("ABC123/tick"))

	// 旧局的 tick 即使被执行也什么都不做
	env.notifier.Reset()
	rc.tick("ABC123", staleGen, 1)
	assert.Empty(t, env.notifier.All())
}

func TestDraw_RelayToOthers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1", "p2")
	rc := env.rm.Rounds()
	point := protocol.DrawData{Type: protocol.StrokeStart, X: 10, Y: 20, Color: "#000", Size: 3}

	// 未开局
	rc.Draw("ABC123", "h1", point)
	assert.Empty(t, room.DrawingLog)

	require.NoError(t, rc.StartGame("ABC123", "h1"))
	env.notifier.Reset()

	rc.Draw("ABC123", "p1", point) // 非画手
	rc.Draw("NOPE00", "h1", point)
	rc.Draw("ABC123", "h1", point)

	assert.Equal(t, []protocol.DrawData{point}, room.DrawingLog)
	assert.Empty(t, env.notifier.Types("h1"))
	update := payloadOf[protocol.DrawUpdatePayload](t, env.notifier.Last("p2", protocol.MsgDrawUpdate))
	assert.Equal(t, point, update.Data)
	assert.Equal(t, 1, env.notifier.Count("p1", protocol.MsgDrawUpdate))
}

func TestClearDrawing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.Draw("ABC123", "h1", protocol.DrawData{Type: protocol.StrokeDraw, X: 1, Y: 1})
	env.notifier.Reset()

	rc.ClearDrawing("ABC123", "p1")
	assert.Len(t, room.DrawingLog, 1)

	rc.ClearDrawing("ABC123", "h1")
	assert.Empty(t, room.DrawingLog)
	assert.Equal(t, []protocol.MessageType{protocol.MsgDrawCleared}, env.notifier.Types("h1"))
	assert.Equal(t, []protocol.MessageType{protocol.MsgDrawCleared}, env.notifier.Types("p1"))
}

func TestRound_NewRoundClearsDrawing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "ABC123")
	room := env.newRoomWithPlayers(t, "h1", "p1")
	rc := env.rm.Rounds()
	require.NoError(t, rc.StartGame("ABC123", "h1"))
	rc.Draw("ABC123", "h1", protocol.DrawData{Type: protocol.StrokeDraw, X: 1, Y: 1})

	rc.endRound(room, false)
	require.True(t, env.scheduler.Fire("ABC123/advance"))

	assert.Empty(t, room.DrawingLog)
	assert.Equal(t, PhaseChoosing, room.Phase())
	assert.Equal(t, []string{"apple", "banana", "cat", "dog"}, room.WordOptions())
}
