//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/draw-and-guess/internal/protocol"
)

// Delivery 一次投递记录
type Delivery struct {
	To  string
	Msg *protocol.Message
}

// RecordingNotifier 按投递顺序记录所有消息
type RecordingNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (n *RecordingNotifier) Send(playerID string, msg *protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, Delivery{To: playerID, Msg: msg})
}

// All 所有投递记录
func (n *RecordingNotifier) All() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Delivery(nil), n.deliveries...)
}

// Messages 发给某个玩家的消息
func (n *RecordingNotifier) Messages(playerID string) []*protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var msgs []*protocol.Message
	for _, d := range n.deliveries {
		if d.To == playerID {
			msgs = append(msgs, d.Msg)
		}
	}
	return msgs
}

// Types 发给某个玩家的消息类型序列
func (n *RecordingNotifier) Types(playerID string) []protocol.MessageType {
	var types []protocol.MessageType
	for _, msg := range n.Messages(playerID) {
		types = append(types, msg.Type)
	}
	return types
}

// Last 发给某个玩家的最后一条指定类型消息，没有时返回 nil
func (n *RecordingNotifier) Last(playerID string, msgType protocol.MessageType) *protocol.Message {
	msgs := n.Messages(playerID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i]
		}
	}
	return nil
}

// Count 发给某个玩家的指定类型消息数量
func (n *RecordingNotifier) Count(playerID string, msgType protocol.MessageType) int {
	count := 0
	for _, msg := range n.Messages(playerID) {
		if msg.Type == msgType {
			count++
		}
	}
	return count
}

// Reset 清空记录
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = nil
}
