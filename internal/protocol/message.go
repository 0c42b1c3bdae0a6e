package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ack     uint64          `json:"ack,omitempty"` // 请求/应答关联 ID
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgRoomCreate  MessageType = "room:create"        // 创建房间
	MsgJoinRequest MessageType = "room:join:request"  // 申请加入房间
	MsgJoinApprove MessageType = "room:join:approve"  // 房主同意加入
	MsgJoinReject  MessageType = "room:join:reject"   // 房主拒绝加入
	MsgRoomState   MessageType = "room:state"         // 查询房间快照

	// 游戏操作
	MsgGameStart   MessageType = "game:start"   // 开始游戏
	MsgGameRestart MessageType = "game:restart" // 重新开始
	MsgWordChosen  MessageType = "word:chosen"  // 画手选词
	MsgDrawData    MessageType = "draw:data"    // 笔画数据
	MsgDrawClear   MessageType = "draw:clear"   // 清空画布

	// 聊天（双向）
	MsgChat MessageType = "chat:message"
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgAck       MessageType = "ack"       // 请求应答
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgJoinRequested MessageType = "join:request"  // 通知房主有人申请
	MsgJoinApproved  MessageType = "join:approved" // 申请已通过
	MsgJoinRejected  MessageType = "join:rejected" // 申请被拒绝
	MsgPlayerJoined  MessageType = "player:joined" // 新玩家加入
	MsgPlayerLeft    MessageType = "player:left"   // 玩家离开
	MsgRoomClosed    MessageType = "room:closed"   // 房间已解散

	// 游戏流程
	MsgGameStarted   MessageType = "game:started"   // 游戏开始
	MsgGameRestarted MessageType = "game:restarted" // 游戏重置
	MsgRoundStart    MessageType = "round:start"    // 新回合
	MsgWordOptions   MessageType = "word:options"   // 候选词（仅画手）
	MsgWordAssigned  MessageType = "word:assigned"  // 选词确认（仅画手）
	MsgTimerUpdate   MessageType = "timer:update"   // 倒计时
	MsgDrawUpdate    MessageType = "draw:update"    // 笔画转发
	MsgDrawCleared   MessageType = "draw:cleared"   // 画布已清空
	MsgGuessCorrect  MessageType = "guess:correct"  // 猜中
	MsgRoundEnd      MessageType = "round:end"      // 回合结束
	MsgGameOver      MessageType = "game:over"      // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)
