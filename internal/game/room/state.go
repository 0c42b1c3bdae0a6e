package room

// GameState 房间游戏状态
type GameState int

const (
	GameStateWaiting GameState = iota
	GameStatePlaying
	GameStateFinished
)

func (s GameState) String() string {
	switch s {
	case GameStatePlaying:
		return "playing"
	case GameStateFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// RoundPhase 回合内阶段，不对外暴露
type RoundPhase int

const (
	PhaseIdle     RoundPhase = iota // 无进行中的回合
	PhaseChoosing                   // 画手选词
	PhaseDrawing                    // 作画倒计时，可猜词
	PhaseReveal                     // 已揭晓答案，等待下一回合
)

func (p RoundPhase) String() string {
	switch p {
	case PhaseChoosing:
		return "choosing"
	case PhaseDrawing:
		return "drawing"
	case PhaseReveal:
		return "reveal"
	default:
		return "idle"
	}
}
