// Package metrics 提供消息生命周期埋点中间件（armon/go-metrics 计数器）。
//
//	sink := gometrics.NewInmemSink(10*time.Second, time.Minute)
//	m, _ := metrics.NewMetrics("gist", sink)
//	store.New(&store.Config{Middlewares: []core.Middleware{metrics.New(m)}})
//
// 静默关闭（ShouldLog=false）不计数。
package metrics

import (
	gometrics "github.com/armon/go-metrics"
	"github.com/rotisserie/eris"

	"github.com/uniyakcom/gist/core"
)

// 计数器 key
var (
	KeyLoaded    = []string{"message", "loaded"}
	KeyDisplayed = []string{"message", "displayed"}
	KeyDismissed = []string{"message", "dismissed"}
	KeyTapped    = []string{"message", "tapped"}
	KeyFailed    = []string{"message", "failed"}
)

// Counter 计数器接收方（*gometrics.Metrics 满足此接口）
type Counter interface {
	IncrCounter(key []string, val float32)
}

// NewMetrics 创建 go-metrics 实例（关闭主机名与运行时指标）
func NewMetrics(service string, sink gometrics.MetricSink) (*gometrics.Metrics, error) {
	conf := gometrics.DefaultConfig(service)
	conf.EnableHostname = false
	conf.EnableHostnameLabel = false
	conf.EnableRuntimeMetrics = false
	m, err := gometrics.New(conf, sink)
	if err != nil {
		return nil, eris.Wrap(err, "metrics: create")
	}
	return m, nil
}

// New 创建埋点中间件。仅在内层处理成功后计数。
func New(c Counter) core.Middleware {
	return func(next core.DispatchFunc) core.DispatchFunc {
		return func(action core.Action) error {
			if err := next(action); err != nil {
				return err
			}
			if key := keyFor(action); key != nil {
				c.IncrCounter(key, 1)
			}
			return nil
		}
	}
}

func keyFor(action core.Action) []string {
	switch a := action.(type) {
	case core.LoadMessage:
		return KeyLoaded
	case core.DisplayMessage:
		return KeyDisplayed
	case core.DismissMessage:
		if a.ShouldLog {
			return KeyDismissed
		}
	case core.EngineTap:
		return KeyTapped
	case core.MessageLoadingFailed:
		return KeyFailed
	}
	return nil
}
