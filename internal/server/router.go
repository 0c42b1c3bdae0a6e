package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
)

// StatsResponse /stats 接口返回
type StatsResponse struct {
	Online      int  `json:"online"`
	Rooms       int  `json:"rooms"`
	ActiveGames int  `json:"activeGames"`
	Maintenance bool `json:"maintenance"`
}

func (s *Server) newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在升级前已经检查过
		CheckOrigin: func(*http.Request) bool { return true },
		// 笔画消息小而频繁，压缩收益不抵 CPU 开销
		EnableCompression: false,
	}
}

// newRouter 创建 HTTP 路由
func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}
	if s.originChecker.AllowAll() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.Security.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
	r.GET("/ws", s.handleWebSocket)
	return r
}

// requestLogger 记录非 WebSocket 请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handleStats 服务器统计
func (s *Server) handleStats(c *gin.Context) {
	stats := StatsResponse{
		Online:      s.GetOnlineCount(),
		Maintenance: s.IsMaintenanceMode(),
	}
	err := s.inLoop(func() {
		stats.Rooms = s.roomManager.RoomCount()
		stats.ActiveGames = s.roomManager.ActiveGamesCount()
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(c *gin.Context) {
	w, r := c.Writer, c.Request
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("ip", clientIP).Msg("maintenance mode, rejecting connection")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制检查，连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn().Int("max", s.maxConnections).Str("ip", clientIP).Msg("connection limit reached")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	accepted := false
	defer func() {
		if !accepted {
			<-s.semaphore
		}
	}()

	if !s.originChecker.Check(r) {
		log.Warn().Str("origin", r.Header.Get("Origin")).Str("ip", clientIP).Msg("origin rejected")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.newUpgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("ip", clientIP).Msg("websocket upgrade failed")
		return
	}
	accepted = true

	client := NewClient(s, conn, codec.ParseFormat(c.Query("format")))
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	log.Info().Str("client", client.ID).Str("ip", clientIP).Str("format", client.format.String()).Msg("client connected")

	go client.ReadPump()
	go client.WritePump()
}
