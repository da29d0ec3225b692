// Package engine 定义渲染引擎契约（配置、引擎句柄、回调委托、工厂）。
//
// 渲染引擎本身由宿主提供；本包只描述 SDK 与引擎之间的边界。
package engine

import (
	"github.com/uniyakcom/gist/codec"
	"github.com/uniyakcom/gist/message"
)

// Configuration 引擎启动配置（以 JSON 传给引擎脚本桥）
type Configuration struct {
	SiteID     string             `json:"siteId"`
	DataCenter string             `json:"dataCenter"`
	InstanceID string             `json:"instanceId"`
	Endpoint   string             `json:"endpoint"`
	MessageID  string             `json:"messageId"`
	Properties message.Properties `json:"properties,omitempty"`
}

// JSON 使用 codec 编码配置（编码失败返回 false）
func (c Configuration) JSON(cd *codec.Codec) (string, bool) {
	return cd.ToJSONString(c, false)
}

// Engine 渲染引擎句柄
type Engine interface {
	// CleanEngineWeb 释放引擎的 web 资源（之后不再回调 Delegate）
	CleanEngineWeb()
}

// Delegate 引擎回调（由消息生命周期协调器实现）
type Delegate interface {
	// Bootstrapped 引擎启动完成
	Bootstrapped()
	// Tap 用户点击（system 为 true 表示由系统而非 gist 动作触发）
	Tap(name, action string, system bool)
	// RouteChanged 引擎内路由变化
	RouteChanged(route string)
	// SizeChanged 内容尺寸变化
	SizeChanged(width, height float64)
	// RouteError 路由加载失败
	RouteError(route string)
	// Error 引擎错误
	Error()
	// RouteLoaded 路由加载完成
	RouteLoaded(route string)
}

// Provider 引擎工厂
type Provider interface {
	NewEngine(cfg Configuration, delegate Delegate) (Engine, error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(cfg Configuration, delegate Delegate) (Engine, error)

// NewEngine 实现 Provider
func (f ProviderFunc) NewEngine(cfg Configuration, delegate Delegate) (Engine, error) {
	return f(cfg, delegate)
}
