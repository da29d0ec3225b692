package manager

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/uniyakcom/gist/codec"
	"github.com/uniyakcom/gist/message"
)

// Scheme 消息内部动作保留 scheme
const Scheme = "gist"

// 内部动作 host
const (
	HostClose       = "close"
	HostLoadPage    = "loadPage"
	HostShowMessage = "showMessage"
)

// ActionKind 动作类别
type ActionKind uint8

const (
	ActionUnknown     ActionKind = iota // gist scheme 下的未知 host
	ActionClose                         // gist://close
	ActionLoadPage                      // gist://loadPage?url=...
	ActionShowMessage                   // gist://showMessage?messageId=...&properties=...
	ActionExternal                      // 非 gist scheme
)

func (k ActionKind) String() string {
	switch k {
	case ActionClose:
		return "close"
	case ActionLoadPage:
		return "loadPage"
	case ActionShowMessage:
		return "showMessage"
	case ActionExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Action 解析后的点击动作
type Action struct {
	Kind ActionKind
	// URL 外部动作为动作本身；loadPage 为 url 参数（无法解析时为 nil）
	URL *url.URL
	// MessageID / Properties 仅 showMessage 使用
	MessageID  string
	Properties message.Properties
}

// ParseAction 解析点击动作字符串。
// 返回 false 表示动作不是合法 URI，此时 Kind 为 ActionExternal 且 URL 为 nil。
// 格式错误的查询参数、base64 或 JSON 一律视为参数缺失。
func ParseAction(raw string) (Action, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Action{Kind: ActionExternal}, false
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return Action{Kind: ActionExternal, URL: u}, true
	}

	// '#' 会被当作 fragment 截断查询串（loadPage 的目标 URL 常带锚点）
	u, err = url.Parse(strings.ReplaceAll(raw, "#", "%23"))
	if err != nil {
		return Action{Kind: ActionUnknown}, false
	}
	query := parseQuery(u.RawQuery)

	switch u.Host {
	case HostClose:
		return Action{Kind: ActionClose}, true

	case HostLoadPage:
		act := Action{Kind: ActionLoadPage}
		if target, ok := query["url"]; ok {
			if tu, err := url.Parse(target); err == nil && tu.Scheme != "" {
				act.URL = tu
			}
		}
		return act, true

	case HostShowMessage:
		return Action{
			Kind:       ActionShowMessage,
			MessageID:  query["messageId"],
			Properties: decodeProperties(query["properties"]),
		}, true

	default:
		return Action{Kind: ActionUnknown}, true
	}
}

// parseQuery 解析查询串（首次出现优先）。
// 使用 PathUnescape 保留 '+'，base64 载荷中的 '+' 不能被还原为空格。
func parseQuery(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.PathUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.PathUnescape(value)
		if err != nil {
			continue
		}
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// decodeProperties base64(JSON object) → Properties，任何失败返回 nil
func decodeProperties(encoded string) message.Properties {
	if encoded == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil
		}
	}
	props, ok := codec.FromJSONQuiet[map[string]any](codec.Nop, data)
	if !ok || props == nil {
		return nil
	}
	return message.Properties(props)
}

// ShowMessageAction 构造 gist://showMessage 动作（properties 编码为 base64(JSON)）
func ShowMessageAction(c *codec.Codec, messageID string, props message.Properties) string {
	query := "messageId=" + escapeParam(messageID)
	if len(props) > 0 {
		if data, ok := c.ToJSON(map[string]any(props)); ok {
			query += "&properties=" + escapeParam(base64.StdEncoding.EncodeToString(data))
		}
	}
	return Scheme + "://" + HostShowMessage + "?" + query
}

// LoadPageAction 构造 gist://loadPage 动作
func LoadPageAction(target string) string {
	return Scheme + "://" + HostLoadPage + "?url=" + escapeParam(target)
}

// escapeParam 查询参数转义；空格编码为 %20，与 parseQuery 的 PathUnescape 对称
func escapeParam(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
