package store

import (
	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/core"
)

// Config 状态存储配置
type Config struct {
	Logger      zerolog.Logger    // 日志器（零值时丢弃日志）
	Middlewares []core.Middleware // 中间件（按声明顺序由外向内执行）
	Initial     *core.State       // 初始状态（nil 时为 Initial）
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{Logger: zerolog.Nop()}
}

// New 使用配置创建状态存储
func New(cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Store{
		matcher: core.NewKeyMatcher(),
		log:     cfg.Logger.With().Str("component", "store").Logger(),
	}

	initial := core.State{CurrentMessageState: core.Initial()}
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}
	s.state.Store(&initial)
	s.subs.Store(buildSnapshot(make(map[string][]*sub)))

	// 洋葱模型：第一个中间件位于最外层
	dispatch := core.DispatchFunc(s.apply)
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		if mw := cfg.Middlewares[i]; mw != nil {
			dispatch = mw(dispatch)
		}
	}
	s.dispatch = dispatch
	return s
}
