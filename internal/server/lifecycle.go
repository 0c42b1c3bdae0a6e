package server

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/draw-and-guess/internal/protocol"
	"github.com/palemoky/draw-and-guess/internal/protocol/codec"
)

const statsInterval = 30 * time.Second

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		var rooms, games int
		_ = s.inLoop(func() {
			rooms = s.roomManager.RoomCount()
			games = s.roomManager.ActiveGamesCount()
		})

		log.Info().
			Int("online", s.GetOnlineCount()).
			Int("rooms", rooms).
			Int("games", games).
			Int("goroutines", runtime.NumGoroutine()).
			Int("conns", len(s.semaphore)).
			Int("maxConns", s.maxConnections).
			Float64("memMB", float64(m.Alloc)/1024/1024).
			Msg("stats")
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新房间，已有房间继续
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.broadcastAll(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))

	log.Info().Msg("entered maintenance mode")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// activeGames 进行中的游戏数，循环不可用时返回 0
func (s *Server) activeGames() int {
	var n int
	if err := s.inLoop(func() { n = s.roomManager.ActiveGamesCount() }); err != nil {
		return 0
	}
	return n
}

// GracefulShutdown 进入维护模式，等待进行中的游戏结束后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		games := s.activeGames()
		if games == 0 {
			log.Info().Msg("all games finished")
			break
		}
		log.Info().Int("games", games).Msg("waiting for games to finish")
		<-ticker.C
	}

	if games := s.activeGames(); games > 0 {
		log.Warn().Int("games", games).Msg("shutdown timeout, closing with games in progress")
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("http shutdown")
			}
			cancel()
		}

		// 关闭所有客户端连接
		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		s.cancel()

		if s.snapshots != nil {
			s.snapshots.Close()
		}
		if s.redis != nil {
			_ = s.redis.Close()
		}

		log.Info().Msg("server stopped")
	})
}
