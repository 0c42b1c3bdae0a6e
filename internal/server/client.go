package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小，笔画批量数据需要稍大一些
	maxMessageSize = 16 * 1024

	// 发送缓冲区大小
	sendBufferSize = 256

	// 超速次数达到该值后断开连接
	maxRateViolations = 5
)

// Client 代表一个 WebSocket 连接
type Client struct {
	ID     string // 连接 ID，同时作为玩家 ID
	IP     string // 客户端 IP 地址
	format codec.Format

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	limiter    *rate.Limiter
	violations int

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, format codec.Format) *Client {
	limit := s.config.Security.MessageLimit
	return &Client{
		ID:      uuid.NewString(),
		format:  format,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(limit.MaxPerSecond), limit.Burst),
	}
}

// GetID 返回玩家 ID
func (c *Client) GetID() string {
	return c.ID
}

// ReadPump 从 WebSocket 读取消息并投递到事件循环
func (c *Client) ReadPump() {
	defer func() {
		c.server.disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("client", c.ID).Msg("websocket read error")
			}
			return
		}

		if !c.limiter.Allow() {
			c.violations++
			log.Warn().Str("client", c.ID).Str("ip", c.IP).Int("violations", c.violations).Msg("client sending too fast")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if c.violations > maxRateViolations {
				log.Warn().Str("client", c.ID).Msg("disconnecting client after repeated rate violations")
				return
			}
			continue
		}

		msg, err := codec.Decode(data, c.format)
		if err != nil {
			log.Debug().Err(err).Str("client", c.ID).Msg("invalid message")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		if !c.server.loop.Post(func() {
			c.server.handler.Handle(c, msg)
			codec.PutMessage(msg)
		}) {
			return
		}
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.format == codec.FormatBinary {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，缓冲区满时断开连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg, c.format)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("encode message failed")
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
		return
	default:
	}
	c.mu.RUnlock()

	log.Warn().Str("client", c.ID).Msg("send buffer full, closing client")
	c.Close()
}

// Close 关闭客户端发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
