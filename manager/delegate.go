package manager

import (
	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/engine"
	"github.com/uniyakcom/gist/host"
	"github.com/uniyakcom/gist/message"
)

var _ engine.Delegate = (*Manager)(nil)

// Bootstrapped 引擎启动完成；消息 ID 为空时立即释放引擎
func (m *Manager) Bootstrapped() {
	m.log.Debug().Msg("engine bootstrapped")
	if m.msg.MessageID == "" {
		m.cleanEngine()
	}
}

// RouteChanged 仅记录日志
func (m *Manager) RouteChanged(route string) {
	m.log.Info().Str("route", route).Msg("engine route changed")
}

// SizeChanged 转交展示委托
func (m *Manager) SizeChanged(width, height float64) {
	m.log.Debug().Float64("width", width).Float64("height", height).Msg("engine size changed")
	if d := m.deps.Delegate; d != nil {
		d.SizeChanged(m.msg, width, height)
	}
}

// RouteError 路由加载失败
func (m *Manager) RouteError(route string) {
	m.log.Error().Str("route", route).Msg("engine route error")
	m.deps.Store.Dispatch(core.MessageLoadingFailed{Message: m.msg})
}

// Error 引擎错误
func (m *Manager) Error() {
	m.log.Error().Msg("engine error")
	m.deps.Store.Dispatch(core.MessageLoadingFailed{Message: m.msg})
}

// RouteLoaded 更新当前路由；消息自身路由首次加载时展示（后台时静默关闭）
func (m *Manager) RouteLoaded(route string) {
	m.log.Info().Str("route", route).Msg("engine route loaded")
	m.setRoute(route)

	if route != m.msg.MessageID || !m.loaded.CompareAndSwap(false, true) {
		return
	}
	switch {
	case m.embedded:
		m.deps.Store.Dispatch(core.DisplayMessage{Message: m.msg})
	case m.deps.Platform.IsForeground():
		m.deps.Store.Dispatch(core.DisplayMessage{Message: m.msg})
	default:
		m.log.Info().Msg("host in background, message suppressed")
		m.deps.Store.Dispatch(core.DismissSilently(m.msg))
	}
}

// Tap 用户点击：先上报埋点与展示委托，再按动作路由
func (m *Manager) Tap(name, action string, system bool) {
	route := m.CurrentRoute()
	m.log.Info().
		Str("name", name).
		Str("action", action).
		Bool("system", system).
		Msg("action tapped")

	m.deps.Store.Dispatch(core.EngineTap{Message: m.msg, Route: route, TapName: name, Action: action})
	if d := m.deps.Delegate; d != nil {
		d.Action(m.msg, route, action, name)
	}

	act, _ := ParseAction(action)
	switch act.Kind {
	case ActionExternal:
		if !system {
			return
		}
		m.deps.Store.Dispatch(core.DismissSilently(m.msg))
		if act.URL != nil && act.URL.Scheme != "" {
			host.Open(m.deps.Platform, act.URL, m.log)
		}

	case ActionClose:
		m.log.Info().Msg("dismissing from close action")
		m.deps.Store.Dispatch(core.DismissViaClose(m.msg))

	case ActionLoadPage:
		if act.URL == nil {
			return
		}
		link := act.URL.String()
		m.deps.Platform.OpenURL(act.URL, func(ok bool) {
			if ok {
				m.log.Info().Str("url", link).Msg("opened page")
			} else {
				m.log.Warn().Str("url", link).Msg("unable to open page")
			}
		})

	case ActionShowMessage:
		if act.MessageID == "" {
			return
		}
		if !m.embedded {
			m.deps.Store.Dispatch(core.DismissSilently(m.msg))
		}
		m.deps.Store.Dispatch(core.LoadMessage{Message: message.New(act.MessageID, act.Properties)})

	default:
		m.log.Debug().Str("action", action).Msg("unhandled gist action")
	}
}
