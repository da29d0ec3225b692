package store

import (
	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/message"
)

// Reduce 纯函数：根据 action 由 state 计算下一状态。
// 切片与 map 字段在修改前复制，旧快照保持不变。
func Reduce(state core.State, action core.Action) core.State {
	switch a := action.(type) {
	case core.LoadMessage:
		if a.Message.IsEmbedded() {
			el := a.Message.ElementID()
			state.CurrentMessageState = core.Embedded(a.Message, el)
			state.EmbeddedMessages = putEmbedded(state.EmbeddedMessages, el, a.Message)
		} else {
			state.CurrentMessageState = core.Loading(a.Message)
		}

	case core.DisplayMessage:
		state.CurrentMessageState = core.Displayed(a.Message)
		state.MessagesShown = appendShown(state.MessagesShown, shownKey(a.Message))

	case core.DismissMessage:
		state.CurrentMessageState = core.Dismissed(a.Message)
		if a.Message.IsEmbedded() {
			state.EmbeddedMessages = removeEmbedded(state.EmbeddedMessages, a.Message)
		}

	case core.MessageLoadingFailed:
		state.CurrentMessageState = core.Dismissed(a.Message)
		if a.Message.IsEmbedded() {
			state.EmbeddedMessages = removeEmbedded(state.EmbeddedMessages, a.Message)
		}

	case core.SetPageRoute:
		state.CurrentRoute = a.Route

	case core.ResetState:
		return core.State{CurrentMessageState: core.Initial()}

	case core.EngineTap:
		// 仅埋点
	}
	return state
}

// shownKey 已展示记录的键：优先队列 ID
func shownKey(msg message.Message) string {
	if msg.QueueID != "" {
		return msg.QueueID
	}
	return msg.MessageID
}

func appendShown(shown []string, key string) []string {
	for _, k := range shown {
		if k == key {
			return shown
		}
	}
	out := make([]string, len(shown), len(shown)+1)
	copy(out, shown)
	return append(out, key)
}

func putEmbedded(m map[string]message.Message, elementID string, msg message.Message) map[string]message.Message {
	out := make(map[string]message.Message, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[elementID] = msg
	return out
}

func removeEmbedded(m map[string]message.Message, msg message.Message) map[string]message.Message {
	if len(m) == 0 {
		return m
	}
	out := make(map[string]message.Message, len(m))
	for k, v := range m {
		if !v.Equal(msg) {
			out[k] = v
		}
	}
	if len(out) == len(m) {
		return m
	}
	return out
}
