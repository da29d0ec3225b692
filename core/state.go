package core

import (
	"github.com/uniyakcom/gist/message"
)

// 订阅 keyPath 常量
const (
	KeyCurrentMessage   = "message.current"
	KeyShownMessages    = "message.shown"
	KeyEmbeddedMessages = "message.embedded"
	KeyCurrentRoute     = "route.current"
)

// MessageStateKind 消息状态变体
type MessageStateKind uint8

const (
	StateInitial MessageStateKind = iota
	StateLoading
	StateDisplayed
	StateEmbedded
	StateDismissed
)

func (k MessageStateKind) String() string {
	switch k {
	case StateInitial:
		return "initial"
	case StateLoading:
		return "loading"
	case StateDisplayed:
		return "displayed"
	case StateEmbedded:
		return "embedded"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// MessageState 当前消息状态（带消息负载的变体）
// Initial 不携带消息；Embedded 额外携带目标元素 ID。
type MessageState struct {
	Kind      MessageStateKind
	Message   message.Message
	ElementID string
}

// Initial 初始状态
func Initial() MessageState { return MessageState{Kind: StateInitial} }

// Loading 加载中
func Loading(msg message.Message) MessageState {
	return MessageState{Kind: StateLoading, Message: msg}
}

// Displayed 已展示
func Displayed(msg message.Message) MessageState {
	return MessageState{Kind: StateDisplayed, Message: msg}
}

// Embedded 已嵌入页面元素（加载中）
func Embedded(msg message.Message, elementID string) MessageState {
	return MessageState{Kind: StateEmbedded, Message: msg, ElementID: elementID}
}

// Dismissed 已关闭
func Dismissed(msg message.Message) MessageState {
	return MessageState{Kind: StateDismissed, Message: msg}
}

// Equal 判断两个状态是否等价（同变体、同消息、同元素）。
func (s MessageState) Equal(o MessageState) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Kind == StateInitial {
		return true
	}
	return s.ElementID == o.ElementID && s.Message.Equal(o.Message)
}

// Concerns 状态是否指向 msg（Initial 视为涉及所有消息）。
func (s MessageState) Concerns(msg message.Message) bool {
	return s.Kind == StateInitial || s.Message.Equal(msg)
}

func (s MessageState) String() string {
	if s.Kind == StateInitial {
		return s.Kind.String()
	}
	return s.Kind.String() + "(" + s.Message.MessageID + ")"
}

// State 应用内消息全局状态（不可变快照，reducer 每次返回新值）
type State struct {
	CurrentMessageState MessageState
	CurrentRoute        string
	MessagesShown       []string
	EmbeddedMessages    map[string]message.Message
}

// ChangedKeys 返回 old → next 之间发生变化的 keyPath 列表。
func ChangedKeys(old, next State) []string {
	var keys []string
	if !old.CurrentMessageState.Equal(next.CurrentMessageState) {
		keys = append(keys, KeyCurrentMessage)
	}
	if !equalStrings(old.MessagesShown, next.MessagesShown) {
		keys = append(keys, KeyShownMessages)
	}
	if !equalEmbedded(old.EmbeddedMessages, next.EmbeddedMessages) {
		keys = append(keys, KeyEmbeddedMessages)
	}
	if old.CurrentRoute != next.CurrentRoute {
		keys = append(keys, KeyCurrentRoute)
	}
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalEmbedded(a, b map[string]message.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for k, m := range a {
		o, ok := b[k]
		if !ok || !m.Equal(o) {
			return false
		}
	}
	return true
}
