package message

import (
	"github.com/google/uuid"
)

// NewInstanceID 生成消息实例 ID（UUID v4）。
func NewInstanceID() string {
	return uuid.NewString()
}

// IDGenerator 实例 ID 生成器接口（可替换为确定性生成器用于测试）。
type IDGenerator interface {
	NewInstanceID() string
}

type defaultGenerator struct{}

func (defaultGenerator) NewInstanceID() string { return NewInstanceID() }

// DefaultIDGenerator 返回默认实例 ID 生成器。
func DefaultIDGenerator() IDGenerator {
	return defaultGenerator{}
}
