// Package log 构建 SDK 使用的 zerolog 日志器。
//
// 开发环境输出易读的控制台格式，其余环境输出 JSON。
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/gist/config"
)

// New 根据配置创建日志器。w 为 nil 时写入 stdout。
func New(cfg config.Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if cfg.IsDevelopment() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("site_id", cfg.SiteID).
		Logger()
}

// ParseLevel 将字符串日志级别转换为 zerolog.Level（未知值回落为 info）
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
