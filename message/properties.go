package message

import (
	"github.com/spf13/cast"
)

// GistKey 展示属性在 Properties 中的键
const GistKey = "gist"

// Properties 消息属性表（键值对，值为任意 JSON 兼容类型）
type Properties map[string]any

// Get 获取属性值，key 不存在返回 nil。
func (p Properties) Get(key string) any {
	if p == nil {
		return nil
	}
	return p[key]
}

// Set 设置属性值。
func (p Properties) Set(key string, value any) {
	p[key] = value
}

// Has 检查 key 是否存在。
func (p Properties) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Copy 深拷贝 Properties（嵌套 map/slice 一并复制）。
func (p Properties) Copy() Properties {
	if p == nil {
		return nil
	}
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = copyValue(v)
	}
	return cp
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = copyValue(e)
		}
		return m
	case Properties:
		return val.Copy()
	case []any:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = copyValue(e)
		}
		return s
	default:
		return v
	}
}

// GistProperties 展示相关属性（位于 Properties["gist"]）
type GistProperties struct {
	ElementID  string // 嵌入目标元素，非空即为嵌入消息
	RouteRule  string // 页面路由匹配规则
	CampaignID string
	Position   string // 弹窗位置: top / center / bottom
	Persistent bool   // 关闭后是否仍保留
}

// Gist 解析 "gist" 属性；缺失或类型不符的字段取零值。
func (p Properties) Gist() GistProperties {
	v := p.Get(GistKey)
	if nested, ok := v.(Properties); ok {
		v = map[string]any(nested)
	}
	raw, err := cast.ToStringMapE(v)
	if err != nil || raw == nil {
		return GistProperties{}
	}
	return GistProperties{
		ElementID:  cast.ToString(raw["elementId"]),
		RouteRule:  cast.ToString(raw["routeRule"]),
		CampaignID: cast.ToString(raw["campaignId"]),
		Position:   cast.ToString(raw["position"]),
		Persistent: cast.ToBool(raw["persistent"]),
	}
}
