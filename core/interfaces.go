// Package core 提供状态存储、调度上下文与中间件的核心接口定义
package core

// Listener 状态订阅回调（接收变更后的完整状态快照）
type Listener func(state State)

// DispatchFunc Action 处理函数（中间件链节点）
type DispatchFunc func(action Action) error

// Middleware 中间件函数签名
//
// 中间件包装 DispatchFunc，在 reducer 前后添加逻辑（日志、埋点、panic 恢复等）。
//
//	func myMiddleware(next DispatchFunc) DispatchFunc {
//	    return func(action Action) error {
//	        // 前置逻辑
//	        err := next(action)
//	        // 后置逻辑
//	        return err
//	    }
//	}
type Middleware func(next DispatchFunc) DispatchFunc

// Store 状态存储接口
type Store interface {
	// Dispatch 派发 Action（fire-and-forget，错误仅记录日志）
	Dispatch(action Action)

	// State 返回当前状态快照
	State() State

	// Subscribe 订阅 keyPath（支持 * 单层、** 多层通配），返回订阅ID
	// 仅在 keyPath 对应的值发生变化时回调，订阅时不回放当前状态
	Subscribe(keyPath string, fn Listener) uint64

	// Unsubscribe 取消订阅（幂等，未知ID忽略）
	Unsubscribe(id uint64)
}

// Scheduler 调度上下文（UI 主线程抽象）
type Scheduler interface {
	// Async 将 fn 投递到调度上下文异步执行，保证 FIFO 串行
	Async(fn func())
}

// Stats 状态存储运行时统计
type Stats struct {
	Dispatched int64 // 已派发 Action 总数
	Notified   int64 // 已执行订阅回调总数
	Panics     int64 // 订阅回调 panic 次数
}
