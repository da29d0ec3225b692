// Package logging 提供 Action 派发日志中间件。
//
// 记录每个 Action 的处理耗时与错误信息。
//
//	store.New(&store.Config{Middlewares: []core.Middleware{logging.New(logger)}})
package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/core"
)

// New 创建日志中间件。成功以 debug 级别记录，失败以 error 级别记录。
func New(logger zerolog.Logger) core.Middleware {
	logger = logger.With().Str("component", "dispatch").Logger()

	return func(next core.DispatchFunc) core.DispatchFunc {
		return func(action core.Action) error {
			start := time.Now()

			err := next(action)

			var ev *zerolog.Event
			if err != nil {
				ev = logger.Error().Err(err)
			} else {
				ev = logger.Debug()
			}
			ev = ev.Str("action", action.Name()).Dur("duration", time.Since(start))
			if id := MessageID(action); id != "" {
				ev = ev.Str("message_id", id)
			}
			if err != nil {
				ev.Msg("action failed")
			} else {
				ev.Msg("action dispatched")
			}
			return err
		}
	}
}

// MessageID 返回 action 携带的消息 ID（无消息的 action 返回空串）
func MessageID(action core.Action) string {
	switch a := action.(type) {
	case core.LoadMessage:
		return a.Message.MessageID
	case core.DisplayMessage:
		return a.Message.MessageID
	case core.DismissMessage:
		return a.Message.MessageID
	case core.EngineTap:
		return a.Message.MessageID
	case core.MessageLoadingFailed:
		return a.Message.MessageID
	default:
		return ""
	}
}
