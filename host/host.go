// Package host 定义宿主平台契约（前后台状态、深链路由、系统打开 URL）。
package host

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// ActivityTypeBrowsingWeb 网页浏览类型的用户活动（宿主可借此路由 universal link）
const ActivityTypeBrowsingWeb = "NSUserActivityTypeBrowsingWeb"

// UserActivity 交给宿主路由的用户活动
type UserActivity struct {
	Type       string
	WebpageURL *url.URL
}

// Platform 宿主平台能力
type Platform interface {
	// IsForeground 宿主应用是否处于前台
	IsForeground() bool
	// ContinueUserActivity 交给宿主处理用户活动，返回宿主是否已处理
	ContinueUserActivity(activity UserActivity) bool
	// OpenURL 由系统打开 URL，done 回报是否成功（可为 nil）
	OpenURL(u *url.URL, done func(ok bool))
}

// Continue 将 http/https 链接作为网页浏览活动交给宿主；其他 scheme 直接返回 false
func Continue(p Platform, u *url.URL) bool {
	if u == nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return p.ContinueUserActivity(UserActivity{Type: ActivityTypeBrowsingWeb, WebpageURL: u})
}

// Open 优先交给宿主路由，未处理时回退到系统打开，并记录结果
func Open(p Platform, u *url.URL, logger zerolog.Logger) {
	if u == nil {
		return
	}
	link := u.String()
	if Continue(p, u) {
		logger.Info().Str("url", link).Msg("link handled by host")
		return
	}
	p.OpenURL(u, func(ok bool) {
		if ok {
			logger.Info().Str("url", link).Msg("opened url")
		} else {
			logger.Warn().Str("url", link).Msg("unable to open url")
		}
	})
}
