// Package recoverer 提供 panic 恢复中间件。
//
// 捕获 reducer 或内层中间件的 panic 并转化为 error 返回，单个 Action 的 panic 不会击穿调用方。
//
//	store.New(&store.Config{Middlewares: []core.Middleware{recoverer.New()}})
package recoverer

import (
	"fmt"

	"github.com/uniyakcom/gist/core"
)

// PanicError 包装 panic 恢复值的 error 类型
type PanicError struct {
	Action string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch %s panic: %v", e.Action, e.Value)
}

// New 创建 panic 恢复中间件。
func New() core.Middleware {
	return func(next core.DispatchFunc) core.DispatchFunc {
		return func(action core.Action) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Action: action.Name(), Value: r}
				}
			}()
			return next(action)
		}
	}
}
