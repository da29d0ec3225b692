// Package message 提供应用内消息的核心类型定义。
//
// Message 是一条应用内消息的不可变描述：消息 ID、实例 ID、可选的队列信息和属性表。
// 一个 manager.Manager 在其生命周期内只持有一条 Message。
package message

import (
	"strings"
)

// Message 应用内消息
type Message struct {
	// MessageID 消息模板标识（渲染引擎据此加载内容）
	MessageID string `json:"messageId"`

	// InstanceID 消息实例唯一标识（自动生成或外部指定）
	InstanceID string `json:"instanceId"`

	// QueueID 服务端队列标识（可选）
	QueueID string `json:"queueId,omitempty"`

	// Priority 队列优先级（可选，数值越小越优先）
	Priority int `json:"priority,omitempty"`

	// Properties 消息属性（任意 JSON 值），"gist" 键下为展示相关属性
	Properties Properties `json:"properties,omitempty"`
}

// New 创建新消息，实例 ID 自动生成。
func New(messageID string, props Properties) Message {
	return Message{
		MessageID:  messageID,
		InstanceID: NewInstanceID(),
		Properties: props,
	}
}

// Gist 返回解析后的展示属性。
func (m Message) Gist() GistProperties {
	return m.Properties.Gist()
}

// ElementID 返回嵌入目标元素 ID（去除首尾空白），非嵌入消息返回空字符串。
func (m Message) ElementID() string {
	return strings.TrimSpace(m.Gist().ElementID)
}

// IsEmbedded 消息是否声明了非空的嵌入目标。
func (m Message) IsEmbedded() bool {
	return m.ElementID() != ""
}

// Equal 判断是否为同一条消息。
// 双方都有实例 ID 时按实例 ID 比较，否则退化为消息 ID 比较。
func (m Message) Equal(other Message) bool {
	if m.InstanceID != "" && other.InstanceID != "" {
		return m.InstanceID == other.InstanceID
	}
	return m.MessageID == other.MessageID
}

// Copy 深拷贝消息（保留实例 ID，属性表独立）。
func (m Message) Copy() Message {
	cp := m
	cp.Properties = m.Properties.Copy()
	return cp
}
