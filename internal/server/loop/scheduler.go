package loop

import (
	"time"
)

type entry struct {
	id    uint64
	timer *time.Timer
}

// Scheduler 按 key 管理的延时任务，到期后任务被投递到事件循环执行
// Schedule 和 Cancel 只能在事件循环中调用
type Scheduler struct {
	loop    *Loop
	entries map[string]*entry
	seq     uint64
}

// NewScheduler 创建定时器
func NewScheduler(l *Loop) *Scheduler {
	return &Scheduler{
		loop:    l,
		entries: make(map[string]*entry),
	}
}

// Schedule 在 after 之后执行 task，同 key 的旧任务被替换
func (s *Scheduler) Schedule(key string, after time.Duration, task func()) {
	s.Cancel(key)

	s.seq++
	id := s.seq
	s.entries[key] = &entry{
		id: id,
		timer: time.AfterFunc(after, func() {
			s.loop.Post(func() {
				// 到期与取消/替换之间存在竞争，以当前登记的任务为准
				if cur, ok := s.entries[key]; !ok || cur.id != id {
					return
				}
				delete(s.entries, key)
				task()
			})
		}),
	}
}

// Cancel 取消任务，不存在时忽略
func (s *Scheduler) Cancel(key string) {
	if e, ok := s.entries[key]; ok {
		e.timer.Stop()
		delete(s.entries, key)
	}
}

// Pending 等待中的任务数量
func (s *Scheduler) Pending() int {
	return len(s.entries)
}
