//go:build !production

package testutil

import (
	"slices"
	"time"
)

type scheduledTask struct {
	after time.Duration
	task  func()
}

// ManualScheduler 手动触发的定时器，测试中代替真实时间
type ManualScheduler struct {
	tasks map[string]scheduledTask
}

// NewManualScheduler 创建手动定时器
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[string]scheduledTask)}
}

func (s *ManualScheduler) Schedule(key string, after time.Duration, task func()) {
	s.tasks[key] = scheduledTask{after: after, task: task}
}

func (s *ManualScheduler) Cancel(key string) {
	delete(s.tasks, key)
}

// Fire 执行并移除指定任务，任务不存在时返回 false
func (s *ManualScheduler) Fire(key string) bool {
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	delete(s.tasks, key)
	t.task()
	return true
}

// Pending 任务是否在等待中
func (s *ManualScheduler) Pending(key string) bool {
	_, ok := s.tasks[key]
	return ok
}

// Delay 任务的延迟
func (s *ManualScheduler) Delay(key string) time.Duration {
	return s.tasks[key].after
}

// Keys 所有等待中的任务
func (s *ManualScheduler) Keys() []string {
	keys := make([]string, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
