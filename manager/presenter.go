package manager

import (
	"sync/atomic"

	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/message"
)

// Presenter 展示模式（模态 / 内嵌）。回调均在 UI 调度上下文中执行。
type Presenter interface {
	// OnMessageDisplayed 状态进入 Displayed
	OnMessageDisplayed(msg message.Message, state core.MessageState)
	// OnMessageDismissed 状态进入 Dismissed 或 Initial
	OnMessageDismissed(msg message.Message, state core.MessageState)
}

// Delegate 展示委托（布局与点击回报给宿主）
type Delegate interface {
	SizeChanged(msg message.Message, width, height float64)
	Action(msg message.Message, currentRoute, action, name string)
}

// ModalView 宿主模态视图
type ModalView interface {
	ShowModal(msg message.Message, position string)
	DismissModal(msg message.Message)
}

// InlineView 宿主内嵌视图
type InlineView interface {
	Embed(msg message.Message, elementID string)
	Remove(msg message.Message, elementID string)
}

// ModalPresenter 模态展示：同一消息至多展示一次、关闭一次
type ModalPresenter struct {
	View  ModalView
	shown atomic.Bool
}

// NewModalPresenter 创建模态展示
func NewModalPresenter(v ModalView) *ModalPresenter {
	return &ModalPresenter{View: v}
}

// OnMessageDisplayed 展示模态（忽略其他消息的状态）
func (p *ModalPresenter) OnMessageDisplayed(msg message.Message, state core.MessageState) {
	if !state.Message.Equal(msg) {
		return
	}
	if p.shown.CompareAndSwap(false, true) {
		p.View.ShowModal(msg, msg.Gist().Position)
	}
}

// OnMessageDismissed 关闭模态（仅在已展示时）
func (p *ModalPresenter) OnMessageDismissed(msg message.Message, state core.MessageState) {
	if !state.Concerns(msg) {
		return
	}
	if p.shown.CompareAndSwap(true, false) {
		p.View.DismissModal(msg)
	}
}

// InlinePresenter 内嵌展示：消息渲染到目标元素
type InlinePresenter struct {
	View     InlineView
	embedded atomic.Bool
}

// NewInlinePresenter 创建内嵌展示
func NewInlinePresenter(v InlineView) *InlinePresenter {
	return &InlinePresenter{View: v}
}

// OnMessageDisplayed 嵌入目标元素
func (p *InlinePresenter) OnMessageDisplayed(msg message.Message, state core.MessageState) {
	if !state.Message.Equal(msg) {
		return
	}
	if p.embedded.CompareAndSwap(false, true) {
		p.View.Embed(msg, msg.ElementID())
	}
}

// OnMessageDismissed 从目标元素移除
func (p *InlinePresenter) OnMessageDismissed(msg message.Message, state core.MessageState) {
	if !state.Concerns(msg) {
		return
	}
	if p.embedded.CompareAndSwap(true, false) {
		p.View.Remove(msg, msg.ElementID())
	}
}
