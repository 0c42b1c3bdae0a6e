package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/apperrors"
	"github.com/palemoky/draw-and-guess/internal/game/room"
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
	"github.com/palemoky/draw-and-guess/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
	ChatLimiter types.ChatLimiter
}

// Handler 消息处理器
// 所有方法都在事件循环中调用
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	rounds      *room.RoundController
	chatLimiter types.ChatLimiter
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
		rounds:      deps.RoomManager.Rounds(),
		chatLimiter: deps.ChatLimiter,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgRoomCreate:  h.handleCreateRoom,
		protocol.MsgJoinRequest: h.handleJoinRequest,
		protocol.MsgJoinApprove: h.handleJoinApprove,
		protocol.MsgJoinReject:  h.handleJoinReject,
		protocol.MsgRoomState:   h.handleRoomState,

		// 游戏操作
		protocol.MsgGameStart:   h.handleGameStart,
		protocol.MsgGameRestart: h.handleGameRestart,
		protocol.MsgWordChosen:  h.handleWordChosen,

		// 画布
		protocol.MsgDrawData:  h.handleDrawData,
		protocol.MsgDrawClear: h.handleDrawClear,

		// 聊天/猜词
		protocol.MsgChat: h.handleChat,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warn().
		Str("type", string(msg.Type)).
		Str("player", client.GetID()).
		Int("payload_bytes", len(msg.Payload)).
		Msg("⚠️ unknown message type")
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// ackOK 请求成功应答
func ackOK(client types.ClientInterface, msg *protocol.Message, payload protocol.AckPayload) {
	payload.Success = true
	client.SendMessage(codec.NewAck(msg.Ack, payload))
}

// ackError 请求失败应答
func ackError(client types.ClientInterface, msg *protocol.Message, text string) {
	client.SendMessage(codec.NewAck(msg.Ack, protocol.AckPayload{Error: text}))
}

// sendError 把业务错误作为 error 消息发给调用者
func sendError(client types.ClientInterface, err error) {
	code := apperrors.CodeOf(err)
	if code == protocol.ErrCodeUnknown {
		client.SendMessage(codec.NewErrorMessageWithText(code, err.Error()))
		return
	}
	client.SendMessage(codec.NewErrorMessage(code))
}
