package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour

	scanBatch = 100
)

// RoomData 房间快照（用于 Redis 序列化，仅供运维查看，不用于恢复）
type RoomData struct {
	Code          string       `json:"code"`
	Host          string       `json:"host"`
	State         string       `json:"state"`
	Players       []PlayerData `json:"players"`
	CurrentDrawer string       `json:"current_drawer,omitempty"`
	RoundNumber   int          `json:"round_number"`
	PendingJoins  int          `json:"pending_joins"`
	CreatedAt     int64        `json:"created_at"`
	UpdatedAt     int64        `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"is_host"`
	HasDrawn bool   `json:"has_drawn"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomCode string, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", roomCode, err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+roomCode, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间快照，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", code, err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	return rs.client.Del(ctx, roomKeyPrefix+code).Err()
}

// GetAllRoomCodes 获取所有房间号
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// PurgeRooms 清除上一个进程留下的房间快照，返回删除数量
// 房间不会跨进程恢复，启动时旧快照只会误导运维
func (rs *RedisStore) PurgeRooms(ctx context.Context) (int, error) {
	codes, err := rs.GetAllRoomCodes(ctx)
	if err != nil || len(codes) == 0 {
		return 0, err
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = roomKeyPrefix + code
	}
	n, err := rs.client.Del(ctx, keys...).Result()
	return int(n), err
}
