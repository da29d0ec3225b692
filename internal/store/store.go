// Package store 提供进程内状态存储实现（reducer + 中间件 + keyPath 订阅）
package store

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/core"
)

// ErrClosed 存储已关闭
var ErrClosed = eris.New("store: closed")

// subsSnapshot 订阅 CoW 快照（pattern → 订阅者）
type subsSnapshot struct {
	byPattern map[string][]*sub
	byID      map[uint64]*sub
}

func buildSnapshot(byPattern map[string][]*sub) *subsSnapshot {
	snap := &subsSnapshot{
		byPattern: byPattern,
		byID:      make(map[uint64]*sub),
	}
	for _, subs := range byPattern {
		for _, s := range subs {
			snap.byID[s.id] = s
		}
	}
	return snap
}

// sub 订阅者
type sub struct {
	pattern string
	fn      core.Listener
	id      uint64
}

// Store 状态存储（实现 core.Store）
//
// 状态以不可变快照保存于 atomic.Pointer，State() 无锁读取。
// Dispatch 的 reduce+swap 由 mu 串行化；订阅回调在锁外同步执行，
// 回调内可再次 Dispatch。
type Store struct {
	state   atomic.Pointer[core.State]
	subs    atomic.Pointer[subsSnapshot]
	matcher *core.KeyMatcher
	closed  atomic.Bool

	dispatch core.DispatchFunc

	mu    sync.Mutex // reduce + swap
	subMu sync.Mutex // Subscribe/Unsubscribe

	nextID atomic.Uint64
	log    zerolog.Logger

	dispatched atomic.Int64
	notified   atomic.Int64
	panics     atomic.Int64
}

// Dispatch 派发 Action（中间件链 → reducer → 通知订阅者），错误仅记录日志
func (s *Store) Dispatch(action core.Action) {
	if action == nil {
		return
	}
	if err := s.dispatch(action); err != nil {
		s.log.Error().Err(err).Str("action", action.Name()).Msg("dispatch failed")
	}
}

// apply 中间件链最内层：reduce、交换快照、通知变化的 keyPath
func (s *Store) apply(action core.Action) error {
	if s.closed.Load() {
		return eris.Wrapf(ErrClosed, "dispatch %s", action.Name())
	}

	s.mu.Lock()
	old := s.state.Load()
	next := Reduce(*old, action)
	keys := core.ChangedKeys(*old, next)
	if len(keys) > 0 {
		s.state.Store(&next)
	}
	s.mu.Unlock()

	s.dispatched.Add(1)
	if len(keys) > 0 {
		s.notify(keys, next)
	}
	return nil
}

// notify 收集匹配 keys 的订阅者（每个订阅者至多一次），按订阅顺序回调
func (s *Store) notify(keys []string, state core.State) {
	snap := s.subs.Load()
	if len(snap.byID) == 0 {
		return
	}

	seen := make(map[uint64]struct{}, len(snap.byID))
	var targets []*sub
	for _, key := range keys {
		for _, pattern := range s.matcher.Match(key) {
			for _, sb := range snap.byPattern[pattern] {
				if _, ok := seen[sb.id]; ok {
					continue
				}
				seen[sb.id] = struct{}{}
				targets = append(targets, sb)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, sb := range targets {
		s.invoke(sb, state)
	}
}

// invoke 执行单个回调，panic 被恢复并计数
func (s *Store) invoke(sb *sub, state core.State) {
	defer func() {
		if r := recover(); r != nil {
			s.panics.Add(1)
			s.log.Error().
				Uint64("subscription", sb.id).
				Str("pattern", sb.pattern).
				Str("panic", fmt.Sprint(r)).
				Msg("listener panic")
		}
	}()
	s.notified.Add(1)
	sb.fn(state)
}

// State 返回当前状态快照
func (s *Store) State() core.State {
	return *s.state.Load()
}

// Subscribe 订阅 keyPath - 使用CoW（Copy-on-Write）机制
func (s *Store) Subscribe(keyPath string, fn core.Listener) uint64 {
	if fn == nil || s.closed.Load() {
		return 0
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if err := s.matcher.Add(keyPath); err != nil {
		s.log.Error().Err(err).Str("key_path", keyPath).Msg("subscribe rejected")
		return 0
	}
	id := s.nextID.Add(1)
	nsub := &sub{id: id, pattern: keyPath, fn: fn}

	old := s.subs.Load()
	byPattern := make(map[string][]*sub, len(old.byPattern)+1)
	for k, v := range old.byPattern {
		byPattern[k] = v
	}
	byPattern[keyPath] = append(append([]*sub(nil), byPattern[keyPath]...), nsub)
	s.subs.Store(buildSnapshot(byPattern))
	return id
}

// Unsubscribe 取消订阅（幂等）
func (s *Store) Unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	old := s.subs.Load()
	target, ok := old.byID[id]
	if !ok {
		return
	}

	byPattern := make(map[string][]*sub, len(old.byPattern))
	for k, v := range old.byPattern {
		if k != target.pattern {
			byPattern[k] = v
			continue
		}
		filtered := make([]*sub, 0, len(v))
		for _, sb := range v {
			if sb.id != id {
				filtered = append(filtered, sb)
			}
		}
		if len(filtered) > 0 {
			byPattern[k] = filtered
		}
	}
	s.matcher.Remove(target.pattern)
	s.subs.Store(buildSnapshot(byPattern))
}

// Stats 返回运行时统计
func (s *Store) Stats() core.Stats {
	return core.Stats{
		Dispatched: s.dispatched.Load(),
		Notified:   s.notified.Load(),
		Panics:     s.panics.Load(),
	}
}

// Close 关闭存储：拒绝后续 Dispatch 并清空订阅（幂等）
func (s *Store) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.subMu.Lock()
	old := s.subs.Load()
	for _, sb := range old.byID {
		s.matcher.Remove(sb.pattern)
	}
	s.subs.Store(buildSnapshot(make(map[string][]*sub)))
	s.subMu.Unlock()
}
