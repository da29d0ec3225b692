// Package gist 统一API入口
//
// SDK 组装状态存储、UI 调度器与消息生命周期协调器：
// 每当 store 进入 Loading / Embedded，SDK 为该消息创建一个 manager.Manager，
// 消息关闭后 manager 自行释放并从 SDK 移除。
//
//	sdk, err := gist.New(gist.Options{
//	    Config:     cfg,
//	    Engines:    provider,
//	    Platform:   platform,
//	    Presenters: gist.Presenters(modalView, inlineView),
//	})
//	if err != nil {
//	    return err
//	}
//	defer sdk.Close(time.Second)
//	sdk.ShowMessage(gist.NewMessage("welcome", nil))
package gist

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/codec"
	"github.com/uniyakcom/gist/config"
	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/engine"
	"github.com/uniyakcom/gist/host"
	"github.com/uniyakcom/gist/internal/store"
	gistlog "github.com/uniyakcom/gist/log"
	"github.com/uniyakcom/gist/manager"
	"github.com/uniyakcom/gist/message"
	"github.com/uniyakcom/gist/middleware/logging"
	"github.com/uniyakcom/gist/middleware/metrics"
	"github.com/uniyakcom/gist/middleware/recoverer"
	"github.com/uniyakcom/gist/sched"
)

// Message 导出Message类型
type Message = message.Message

// Properties 导出Properties类型
type Properties = message.Properties

// State 导出State类型
type State = core.State

// Action 导出Action接口
type Action = core.Action

// NewMessage 创建消息（实例 ID 自动生成）
func NewMessage(messageID string, props Properties) Message {
	return message.New(messageID, props)
}

// ErrNoPresenters 缺少展示工厂
var ErrNoPresenters = eris.New("gist: presenter factory is required")

// PresenterFactory 为消息选择展示模式
type PresenterFactory func(msg Message) manager.Presenter

// Presenters 内嵌消息使用 inline，其余使用 modal
func Presenters(modal manager.ModalView, inline manager.InlineView) PresenterFactory {
	return func(msg Message) manager.Presenter {
		if msg.IsEmbedded() && inline != nil {
			return manager.NewInlinePresenter(inline)
		}
		return manager.NewModalPresenter(modal)
	}
}

// Options SDK 选项
type Options struct {
	Config      config.Config
	Logger      *zerolog.Logger // nil 时按 Config 创建
	Engines     engine.Provider
	Platform    host.Platform
	Presenters  PresenterFactory
	Delegate    manager.Delegate // 可选
	Scheduler   core.Scheduler   // nil 时创建 sched.Main
	Metrics     metrics.Counter  // 可选，启用埋点中间件
	Middlewares []core.Middleware
	IDs         message.IDGenerator // nil 时使用 uuid
}

// SDK 应用内消息入口
type SDK struct {
	log        zerolog.Logger
	store      *store.Store
	scheduler  core.Scheduler
	ownSched   *sched.Main
	deps       manager.Deps
	presenters PresenterFactory
	ids        message.IDGenerator

	mu       sync.Mutex
	managers map[string]*manager.Manager // instance id → manager
	pending  map[string]struct{}

	subID  uint64
	closed atomic.Bool
}

// New 创建 SDK
func New(opts Options) (*SDK, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Presenters == nil {
		return nil, ErrNoPresenters
	}

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = gistlog.New(opts.Config, nil)
	}

	s := &SDK{
		log:        logger.With().Str("component", "sdk").Logger(),
		presenters: opts.Presenters,
		ids:        opts.IDs,
		managers:   make(map[string]*manager.Manager),
		pending:    make(map[string]struct{}),
	}

	if s.ids == nil {
		s.ids = message.DefaultIDGenerator()
	}

	s.scheduler = opts.Scheduler
	if s.scheduler == nil {
		m, err := sched.NewMain(logger)
		if err != nil {
			return nil, err
		}
		s.ownSched = m
		s.scheduler = m
	}

	mws := []core.Middleware{recoverer.New(), logging.New(logger)}
	if opts.Metrics != nil {
		mws = append(mws, metrics.New(opts.Metrics))
	}
	mws = append(mws, opts.Middlewares...)
	s.store = store.New(&store.Config{Logger: logger, Middlewares: mws})

	s.deps = manager.Deps{
		Store:     s.store,
		Scheduler: s.scheduler,
		Engines:   opts.Engines,
		Platform:  opts.Platform,
		Delegate:  opts.Delegate,
		Logger:    logger,
		Codec:     codec.New(logger),
		Config:    opts.Config,
	}

	s.subID = s.store.Subscribe(core.KeyCurrentMessage, s.onState)
	return s, nil
}

// onState 消息进入 Loading / Embedded 时在 UI 上下文创建协调器
func (s *SDK) onState(state core.State) {
	ms := state.CurrentMessageState
	switch ms.Kind {
	case core.StateLoading, core.StateEmbedded:
		msg := ms.Message
		s.scheduler.Async(func() { s.ensureManager(msg) })
	}
}

func (s *SDK) ensureManager(msg Message) {
	if s.closed.Load() {
		return
	}
	id := msg.InstanceID
	s.mu.Lock()
	if _, ok := s.managers[id]; ok {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return
	}
	s.pending[id] = struct{}{}
	s.mu.Unlock()

	deps := s.deps
	deps.Presenter = s.presenters(msg)
	m, err := manager.New(msg, deps, manager.WithOnClose(s.remove))

	s.mu.Lock()
	delete(s.pending, id)
	if err == nil && !m.IsClosed() {
		s.managers[id] = m
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("message_id", msg.MessageID).Msg("unable to start message")
		s.store.Dispatch(core.MessageLoadingFailed{Message: msg})
	}
}

func (s *SDK) remove(m *manager.Manager) {
	s.mu.Lock()
	delete(s.managers, m.Message().InstanceID)
	s.mu.Unlock()
}

// ShowMessage 加载消息（缺少实例 ID 时补全），返回实际派发的消息
func (s *SDK) ShowMessage(msg Message) Message {
	if msg.InstanceID == "" {
		msg.InstanceID = s.ids.NewInstanceID()
	}
	s.store.Dispatch(core.LoadMessage{Message: msg})
	return msg
}

// DismissMessage 关闭消息（记录埋点）
func (s *SDK) DismissMessage(msg Message) {
	s.store.Dispatch(core.Dismiss(msg))
}

// SetPageRoute 更新宿主页面路由
func (s *SDK) SetPageRoute(route string) {
	s.store.Dispatch(core.SetPageRoute{Route: route})
}

// Reset 重置状态（所有协调器随之关闭）
func (s *SDK) Reset() {
	s.store.Dispatch(core.ResetState{})
}

// Store 返回状态存储
func (s *SDK) Store() core.Store { return s.store }

// Stats 返回状态存储统计
func (s *SDK) Stats() core.Stats { return s.store.Stats() }

// Manager 按实例 ID 查找活跃协调器
func (s *SDK) Manager(instanceID string) (*manager.Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[instanceID]
	return m, ok
}

// ActiveManagers 活跃协调器数量
func (s *SDK) ActiveManagers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}

// Close 关闭全部协调器与状态存储；自建调度器在 timeout 内排空（幂等）
func (s *SDK) Close(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.store.Unsubscribe(s.subID)

	s.mu.Lock()
	active := make([]*manager.Manager, 0, len(s.managers))
	for _, m := range s.managers {
		active = append(active, m)
	}
	s.mu.Unlock()
	for _, m := range active {
		m.Close()
	}

	var err error
	if s.ownSched != nil {
		err = s.ownSched.Drain(timeout)
	}
	s.store.Close()
	return err
}
