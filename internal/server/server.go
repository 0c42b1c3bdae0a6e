package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/config"
	"github.com/palemoky/draw-and-guess/internal/game/room"
	"github.com/palemoky/draw-and-guess/internal/game/word"
	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/server/handler"
	"github.com/palemoky/draw-and-guess/internal/server/loop"
	"github.com/palemoky/draw-and-guess/internal/server/storage"
)

const (
	loopBuffer          = 1024
	snapshotBuffer      = 256
	redisConnectTimeout = 5 * time.Second
)

// Server WebSocket 服务器
type Server struct {
	config *config.Config

	// 可选的房间快照存储
	redis     *redis.Client
	snapshots *storage.SnapshotWriter

	// 所有房间状态只在事件循环中读写
	loop        *loop.Loop
	scheduler   *loop.Scheduler
	roomManager *room.RoomManager
	handler     *handler.Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter   *RateLimiter
	originChecker *OriginChecker
	chatLimiter   *ChatRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	words := word.Default()
	if cfg.Game.WordsFile != "" {
		pool, err := word.LoadFile(cfg.Game.WordsFile)
		if err != nil {
			return nil, fmt.Errorf("load words: %w", err)
		}
		words = pool
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  cfg,
		clients: make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker: NewOriginChecker(cfg.Security.AllowedOrigins),
		chatLimiter: NewChatRateLimiter(
			cfg.Security.ChatLimit.MaxPerSecond,
			cfg.Security.ChatLimit.MaxPerMinute,
			cfg.Security.ChatLimit.CooldownDuration(),
		),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		ctx:            ctx,
		cancel:         cancel,
	}

	if cfg.Redis.Enabled {
		if err := s.connectRedis(); err != nil {
			cancel()
			return nil, err
		}
	}

	s.loop = loop.New(loopBuffer)
	s.scheduler = loop.NewScheduler(s.loop)

	deps := room.Deps{
		Notifier:  s,
		Scheduler: s.scheduler,
		Words:     words,
		Settings: room.Settings{
			RoundDuration: cfg.Game.RoundDuration,
			RevealDelay:   cfg.Game.RevealDelayDuration(),
			RestartDelay:  cfg.Game.RestartDelayDuration(),
			WordOptions:   cfg.Game.WordOptions,
		},
	}
	if s.snapshots != nil {
		deps.Snapshots = s.snapshots
	}
	s.roomManager = room.NewRoomManager(deps)

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
		ChatLimiter: s.chatLimiter,
	})

	log.Info().
		Int("connPerSecond", cfg.Security.RateLimit.MaxPerSecond).
		Int("msgPerSecond", cfg.Security.MessageLimit.MaxPerSecond).
		Int("chatPerSecond", cfg.Security.ChatLimit.MaxPerSecond).
		Int("maxConnections", cfg.Server.MaxConnections).
		Int("words", words.Size()).
		Bool("redis", cfg.Redis.Enabled).
		Msg("server configured")

	return s, nil
}

// connectRedis 连接 Redis 并清理上次运行遗留的房间快照
func (s *Server) connectRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis 连接失败: %w", err)
	}

	store := storage.NewRedisStore(rdb)
	// 房间只存在于内存中，重启后旧快照已无意义
	if n, err := store.PurgeRooms(ctx); err != nil {
		log.Warn().Err(err).Msg("purge stale room snapshots failed")
	} else if n > 0 {
		log.Info().Int("rooms", n).Msg("purged stale room snapshots")
	}

	s.redis = rdb
	s.snapshots = storage.NewSnapshotWriter(store, snapshotBuffer)
	return nil
}

// Send 将消息投递给指定玩家，玩家不在线时丢弃
func (s *Server) Send(playerID string, msg *protocol.Message) {
	s.clientsMu.RLock()
	client := s.clients[playerID]
	s.clientsMu.RUnlock()

	if client != nil {
		client.SendMessage(msg)
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// broadcastAll 广播消息给所有在线客户端
func (s *Server) broadcastAll(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; !ok {
		return false
	}
	delete(s.clients, client.ID)
	return true
}

// disconnect 连接断开后的清理，由 ReadPump 退出时调用
func (s *Server) disconnect(c *Client) {
	if !s.unregisterClient(c) {
		return
	}
	<-s.semaphore

	// 循环已停止时房间也随之消失，无需再处理
	s.loop.Post(func() { s.handler.HandleDisconnect(c) })
	c.Close()

	log.Info().Str("client", c.ID).Str("ip", c.IP).Msg("client disconnected")
}

// Handler 返回 HTTP 处理器，供 Start 和测试使用
func (s *Server) Handler() http.Handler {
	return s.newRouter()
}

// Run 启动事件循环和后台任务，直到 Shutdown 被调用
func (s *Server) Run() {
	go s.loop.Run(s.ctx)
	go s.rateLimiter.Run(s.ctx)
	if s.snapshots != nil {
		go s.snapshots.Run(s.ctx)
	}
	go s.monitorStats(s.ctx)
}

// Start 启动服务器并阻塞直到 HTTP 服务退出
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.Run()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", "ws://"+addr+"/ws").Int("cpus", runtime.NumCPU()).Msg("server started")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// inLoop 在事件循环中同步执行 fn，供 HTTP 接口读取房间统计
func (s *Server) inLoop(fn func()) error {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	return s.loop.Call(ctx, fn)
}
