package core

import (
	"github.com/uniyakcom/gist/message"
)

// Action 状态变更动作（封闭集合，仅本包内类型实现）
type Action interface {
	// Name 动作名称（日志与埋点使用）
	Name() string
	isAction()
}

// LoadMessage 请求加载消息
type LoadMessage struct {
	Message message.Message
}

// DisplayMessage 消息加载完成，请求展示
type DisplayMessage struct {
	Message message.Message
}

// DismissMessage 关闭消息
//
// ShouldLog=false 为静默关闭：不产生面向用户的关闭埋点。
// ViaCloseAction 标记是否由消息内的显式关闭动作（gist://close）触发。
type DismissMessage struct {
	Message        message.Message
	ShouldLog      bool
	ViaCloseAction bool
}

// EngineTap 渲染引擎上报的点击事件（埋点用，不改变状态）
type EngineTap struct {
	Message message.Message
	Route   string
	TapName string
	Action  string
}

// MessageLoadingFailed 渲染引擎加载失败
type MessageLoadingFailed struct {
	Message message.Message
}

// SetPageRoute 宿主应用页面路由变化
type SetPageRoute struct {
	Route string
}

// ResetState 重置为初始状态
type ResetState struct{}

// Dismiss 创建普通关闭动作（记录埋点）。
func Dismiss(msg message.Message) DismissMessage {
	return DismissMessage{Message: msg, ShouldLog: true}
}

// DismissSilently 创建静默关闭动作。
func DismissSilently(msg message.Message) DismissMessage {
	return DismissMessage{Message: msg}
}

// DismissViaClose 创建由 gist://close 触发的关闭动作。
func DismissViaClose(msg message.Message) DismissMessage {
	return DismissMessage{Message: msg, ShouldLog: true, ViaCloseAction: true}
}

func (LoadMessage) Name() string          { return "loadMessage" }
func (DisplayMessage) Name() string       { return "displayMessage" }
func (DismissMessage) Name() string       { return "dismissMessage" }
func (EngineTap) Name() string            { return "engineTap" }
func (MessageLoadingFailed) Name() string { return "messageLoadingFailed" }
func (SetPageRoute) Name() string         { return "setPageRoute" }
func (ResetState) Name() string           { return "resetState" }

func (LoadMessage) isAction()          {}
func (DisplayMessage) isAction()       {}
func (DismissMessage) isAction()       {}
func (EngineTap) isAction()            {}
func (MessageLoadingFailed) isAction() {}
func (SetPageRoute) isAction()         {}
func (ResetState) isAction()           {}
