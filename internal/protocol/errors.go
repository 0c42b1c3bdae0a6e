package protocol

// 错误码
const (
	ErrCodeUnknown             = 1000
	ErrCodeInvalidMsg          = 1001
	ErrCodeRateLimit           = 1002 // 速率限制
	ErrCodeInvalidName         = 1003
	ErrCodeRoomNotFound        = 2001
	ErrCodeRoomFull            = 2002
	ErrCodeAlreadyInRoom       = 2003
	ErrCodeGameStarted         = 2004 // 游戏已开始
	ErrCodeGameNotStart        = 3001
	ErrCodeNotAuthorized       = 3002 // 仅房主可操作
	ErrCodeInsufficientPlayers = 3003
	ErrCodeServerMaintenance   = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:             "Unknown error",
	ErrCodeInvalidMsg:          "Invalid message",
	ErrCodeRateLimit:           "Too many requests",
	ErrCodeInvalidName:         "Player name is required",
	ErrCodeRoomNotFound:        "Room not found",
	ErrCodeRoomFull:            "Room is full",
	ErrCodeAlreadyInRoom:       "Already in this room",
	ErrCodeGameStarted:         "Game already started",
	ErrCodeGameNotStart:        "Game has not started",
	ErrCodeNotAuthorized:       "Only the host can do that",
	ErrCodeInsufficientPlayers: "Need at least 2 players to start",
	ErrCodeServerMaintenance:   "Server is under maintenance",
}
