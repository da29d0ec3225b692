// Package manager 提供单条应用内消息的生命周期协调器。
//
// Manager 持有一条消息：启动渲染引擎、订阅 store 的当前消息状态、
// 将引擎回调转换为 store action 与宿主副作用（打开链接、深链路由）。
//
//	m, err := manager.New(msg, manager.Deps{
//	    Store:     store,
//	    Scheduler: ui,
//	    Engines:   provider,
//	    Platform:  platform,
//	    Presenter: manager.NewModalPresenter(view),
//	    Logger:    logger,
//	    Config:    cfg,
//	})
//	defer m.Close()
package manager

import (
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/codec"
	"github.com/uniyakcom/gist/config"
	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/engine"
	"github.com/uniyakcom/gist/host"
	"github.com/uniyakcom/gist/message"
)

var (
	ErrNoStore     = eris.New("manager: store is required")
	ErrNoScheduler = eris.New("manager: scheduler is required")
	ErrNoEngine    = eris.New("manager: engine provider is required")
	ErrNoPlatform  = eris.New("manager: platform is required")
	ErrNoPresenter = eris.New("manager: presenter is required")
)

// Deps 显式注入的依赖
type Deps struct {
	Store     core.Store
	Scheduler core.Scheduler // UI 调度上下文
	Engines   engine.Provider
	Platform  host.Platform
	Presenter Presenter
	Delegate  Delegate // 可选
	Logger    zerolog.Logger
	Codec     *codec.Codec // nil 时基于 Logger 创建
	Config    config.Config
}

func (d Deps) validate() error {
	switch {
	case d.Store == nil:
		return ErrNoStore
	case d.Scheduler == nil:
		return ErrNoScheduler
	case d.Engines == nil:
		return ErrNoEngine
	case d.Platform == nil:
		return ErrNoPlatform
	case d.Presenter == nil:
		return ErrNoPresenter
	}
	return nil
}

// Option 协调器选项
type Option func(*options)

type options struct {
	onClose   func(*Manager)
	autoClose bool
}

// WithOnClose Close 完成后回调（用于持有方移除引用）
func WithOnClose(fn func(*Manager)) Option {
	return func(o *options) { o.onClose = fn }
}

// WithAutoClose 消息被关闭或状态重置后是否自动 Close（默认 true）
func WithAutoClose(enabled bool) Option {
	return func(o *options) { o.autoClose = enabled }
}

// Manager 消息生命周期协调器（实现 engine.Delegate）
type Manager struct {
	msg      message.Message
	embedded bool
	deps     Deps
	opts     options
	log      zerolog.Logger

	routeMu      sync.RWMutex
	currentRoute string

	// 引擎回调可能来自非 UI 上下文，与订阅回调竞争
	loaded atomic.Bool

	engMu        sync.Mutex
	eng          engine.Engine
	pendingClean bool // NewEngine 返回前已请求清理
	detached     bool

	subID  atomic.Uint64
	closed atomic.Bool
}

// New 创建协调器：构建引擎配置、创建引擎（自身作为回调接收方）、订阅当前消息状态
func New(msg message.Message, deps Deps, opts ...Option) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	o := options{autoClose: true}
	for _, opt := range opts {
		opt(&o)
	}
	if deps.Codec == nil {
		deps.Codec = codec.New(deps.Logger)
	}
	if msg.InstanceID == "" {
		msg.InstanceID = message.NewInstanceID()
	}

	m := &Manager{
		msg:          msg,
		embedded:     msg.IsEmbedded(),
		deps:         deps,
		opts:         o,
		currentRoute: msg.MessageID,
		log: deps.Logger.With().
			Str("component", "manager").
			Str("message_id", msg.MessageID).
			Str("instance_id", msg.InstanceID).
			Logger(),
	}

	cfg := engine.Configuration{
		SiteID:     deps.Config.SiteID,
		DataCenter: deps.Config.DataCenter,
		InstanceID: msg.InstanceID,
		Endpoint:   deps.Config.Endpoint(),
		MessageID:  msg.MessageID,
		Properties: msg.Properties,
	}
	if raw, ok := cfg.JSON(deps.Codec); ok {
		m.log.Debug().RawJSON("engine_config", []byte(raw)).Msg("starting engine")
	}

	eng, err := deps.Engines.NewEngine(cfg, m)
	if err != nil {
		return nil, eris.Wrapf(err, "manager: create engine for message %q", msg.MessageID)
	}
	m.engMu.Lock()
	m.eng = eng
	clean := m.pendingClean
	m.engMu.Unlock()
	if clean {
		eng.CleanEngineWeb()
	}

	id := deps.Store.Subscribe(core.KeyCurrentMessage, m.onState)
	m.subID.Store(id)
	if m.closed.Load() {
		deps.Store.Unsubscribe(id)
	}
	return m, nil
}

// onState store 订阅回调，转投 UI 调度上下文
func (m *Manager) onState(state core.State) {
	ms := state.CurrentMessageState
	switch ms.Kind {
	case core.StateDisplayed, core.StateDismissed, core.StateInitial:
	default:
		return
	}
	m.deps.Scheduler.Async(func() { m.handleState(ms) })
}

func (m *Manager) handleState(ms core.MessageState) {
	if m.closed.Load() {
		return
	}
	switch ms.Kind {
	case core.StateDisplayed:
		m.deps.Presenter.OnMessageDisplayed(m.msg, ms)
	case core.StateDismissed, core.StateInitial:
		m.deps.Presenter.OnMessageDismissed(m.msg, ms)
		if m.opts.autoClose && ms.Concerns(m.msg) {
			m.Close()
		}
	}
}

// cleanEngine 通知引擎释放 web 资源
func (m *Manager) cleanEngine() {
	m.engMu.Lock()
	eng := m.eng
	if eng == nil && !m.detached {
		m.pendingClean = true
	}
	m.engMu.Unlock()
	if eng != nil {
		eng.CleanEngineWeb()
	}
}

// Close 取消订阅并释放、解除引擎（幂等）
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	if id := m.subID.Load(); id != 0 {
		m.deps.Store.Unsubscribe(id)
	}

	m.engMu.Lock()
	eng := m.eng
	m.eng = nil
	m.detached = true
	m.engMu.Unlock()
	if eng != nil {
		eng.CleanEngineWeb()
	}

	m.log.Debug().Msg("manager closed")
	if m.opts.onClose != nil {
		m.opts.onClose(m)
	}
}

// Message 返回持有的消息
func (m *Manager) Message() message.Message { return m.msg }

// IsEmbedded 是否为内嵌消息
func (m *Manager) IsEmbedded() bool { return m.embedded }

// IsMessageLoaded 消息是否已加载完成
func (m *Manager) IsMessageLoaded() bool { return m.loaded.Load() }

// IsClosed 是否已 Close
func (m *Manager) IsClosed() bool { return m.closed.Load() }

// CurrentRoute 最近一次加载完成的路由（默认为消息 ID）
func (m *Manager) CurrentRoute() string {
	m.routeMu.RLock()
	defer m.routeMu.RUnlock()
	return m.currentRoute
}

func (m *Manager) setRoute(route string) {
	m.routeMu.Lock()
	m.currentRoute = route
	m.routeMu.Unlock()
}
