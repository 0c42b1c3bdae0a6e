package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const writeTimeout = 2 * time.Second

type snapshotOp struct {
	code string
	data *RoomData // nil 表示删除
}

// SnapshotWriter 在后台串行写入房间快照
// 保存和删除走同一个队列，不会出现删除后又被旧快照覆盖的情况；队列满时丢弃并记录日志，调用方永不阻塞
type SnapshotWriter struct {
	store *RedisStore
	ops   chan snapshotOp

	closeOnce sync.Once
	done      chan struct{}
}

// NewSnapshotWriter 创建快照写入器，需要调用 Run 启动
func NewSnapshotWriter(store *RedisStore, buffer int) *SnapshotWriter {
	return &SnapshotWriter{
		store: store,
		ops:   make(chan snapshotOp, buffer),
		done:  make(chan struct{}),
	}
}

// Save 异步保存房间快照
func (w *SnapshotWriter) Save(data *RoomData) {
	if data == nil {
		return
	}
	w.enqueue(snapshotOp{code: data.Code, data: data})
}

// Delete 异步删除房间快照
func (w *SnapshotWriter) Delete(code string) {
	w.enqueue(snapshotOp{code: code})
}

func (w *SnapshotWriter) enqueue(op snapshotOp) {
	select {
	case <-w.done:
		return
	default:
	}

	select {
	case w.ops <- op:
	default:
		log.Warn().Str("room", op.code).Msg("snapshot queue full, dropping write")
	}
}

// Run 处理写入队列直到 ctx 取消或 Close 被调用，退出前写完已入队的操作
func (w *SnapshotWriter) Run(ctx context.Context) {
	for {
		select {
		case op := <-w.ops:
			w.apply(op)
		case <-ctx.Done():
			w.drain()
			return
		case <-w.done:
			w.drain()
			return
		}
	}
}

// Close 停止接收新的写入
func (w *SnapshotWriter) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

func (w *SnapshotWriter) drain() {
	for {
		select {
		case op := <-w.ops:
			w.apply(op)
		default:
			return
		}
	}
}

func (w *SnapshotWriter) apply(op snapshotOp) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if op.data == nil {
		err = w.store.DeleteRoom(ctx, op.code)
	} else {
		err = w.store.SaveRoom(ctx, op.code, op.data)
	}
	if err != nil {
		log.Warn().Err(err).Str("room", op.code).Msg("room snapshot write failed")
	}
}
