package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTTL         = 10 * time.Minute
)

// RateLimiter 单 IP 建连速率限制器，超限后封禁一段时间
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipRate
	now     func() time.Time

	perSecond   int
	perMinute   int
	banDuration time.Duration
}

// ipRate 单个 IP 的令牌桶
type ipRate struct {
	second      *rate.Limiter
	minute      *rate.Limiter
	lastSeen    time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器，需要调用 Run 定期清理
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:     make(map[string]*ipRate),
		now:         time.Now,
		perSecond:   maxPerSecond,
		perMinute:   maxPerMinute,
		banDuration: banDuration,
	}
}

// Allow 检查是否允许建立连接
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	r, ok := rl.clients[ip]
	if !ok {
		r = &ipRate{
			second: rate.NewLimiter(rate.Limit(rl.perSecond), rl.perSecond),
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute),
		}
		rl.clients[ip] = r
	}
	r.lastSeen = now

	if now.Before(r.bannedUntil) {
		return false
	}

	// 两个桶都要检查，避免短路导致分钟桶不扣减
	okSecond := r.second.AllowN(now, 1)
	okMinute := r.minute.AllowN(now, 1)
	if okSecond && okMinute {
		return true
	}

	r.bannedUntil = now.Add(rl.banDuration)
	log.Warn().Str("ip", ip).Dur("ban", rl.banDuration).Msg("ip temporarily banned for connecting too often")
	return false
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	r, ok := rl.clients[ip]
	return ok && rl.now().Before(r.bannedUntil)
}

// Run 定期清理长时间不活跃的记录，直到 ctx 取消
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, r := range rl.clients {
		if now.Sub(r.lastSeen) > limiterIdleTTL && now.After(r.bannedUntil) {
			delete(rl.clients, ip)
		}
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，包含 "*" 时允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}

	return oc
}

// AllowAll 是否允许所有来源
func (oc *OriginChecker) AllowAll() bool {
	return oc.allowAll
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 非浏览器客户端不带 Origin
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- 聊天速率限制 ---

// ChatRateLimiter 聊天速率限制器，超限后禁言一段时间
type ChatRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*chatRate
	now     func() time.Time

	perSecond int
	perMinute int
	cooldown  time.Duration
}

type chatRate struct {
	second     *rate.Limiter
	minute     *rate.Limiter
	mutedUntil time.Time
}

// NewChatRateLimiter 创建聊天速率限制器
func NewChatRateLimiter(maxPerSecond, maxPerMinute int, cooldown time.Duration) *ChatRateLimiter {
	return &ChatRateLimiter{
		clients:   make(map[string]*chatRate),
		now:       time.Now,
		perSecond: maxPerSecond,
		perMinute: maxPerMinute,
		cooldown:  cooldown,
	}
}

// AllowChat 检查是否允许发送聊天，拒绝时返回原因
func (cl *ChatRateLimiter) AllowChat(clientID string) (bool, string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	r, ok := cl.clients[clientID]
	if !ok {
		r = &chatRate{
			second: rate.NewLimiter(rate.Limit(cl.perSecond), cl.perSecond),
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cl.perMinute)), cl.perMinute),
		}
		cl.clients[clientID] = r
	}

	if now.Before(r.mutedUntil) {
		remaining := r.mutedUntil.Sub(now).Round(time.Second)
		return false, "You are muted for " + remaining.String()
	}

	okSecond := r.second.AllowN(now, 1)
	okMinute := r.minute.AllowN(now, 1)
	if okSecond && okMinute {
		return true, ""
	}

	r.mutedUntil = now.Add(cl.cooldown)
	return false, "Sending messages too fast, muted for " + cl.cooldown.String()
}

// RemoveClient 移除客户端记录
func (cl *ChatRateLimiter) RemoveClient(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	delete(cl.clients, clientID)
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
