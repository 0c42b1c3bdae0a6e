package apperrors

import (
	"errors"

	"github.com/palemoky/draw-and-guess/internal/protocol"
)

// GameError 游戏错误（房间和回合共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrInvalidName         = newGameError(protocol.ErrCodeInvalidName)
	ErrRoomNotFound        = newGameError(protocol.ErrCodeRoomNotFound)
	ErrRoomFull            = newGameError(protocol.ErrCodeRoomFull)
	ErrAlreadyInRoom       = newGameError(protocol.ErrCodeAlreadyInRoom)
	ErrGameStarted         = newGameError(protocol.ErrCodeGameStarted)
	ErrGameNotStarted      = newGameError(protocol.ErrCodeGameNotStart)
	ErrNotAuthorized       = newGameError(protocol.ErrCodeNotAuthorized)
	ErrInsufficientPlayers = newGameError(protocol.ErrCodeInsufficientPlayers)
)

func newGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// CodeOf 提取错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}
