// Package codec 提供固定规范的 JSON 编解码封装。
//
// 规范：
//   - 对象键按字典序输出，同一输入的编码结果可确定性比较
//   - 日期类值以整数 epoch 秒表示（见 Timestamp），小数部分截断
//   - 不向调用方返回 error：失败时记录日志并返回 ok=false
//
// 每次调用独立编解码，无共享可变状态，并发安全。
//
//	c := codec.New(logger)
//	body, ok := c.ToJSONString(req, true)
//	cfg, ok := codec.FromJSON[engine.Configuration](c, data)
package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// emptyObject 空对象编码结果
const emptyObject = "{}"

// Codec JSON 编解码器
type Codec struct {
	log zerolog.Logger
}

// Nop 不输出日志的编解码器
var Nop = New(zerolog.Nop())

// New 创建编解码器，失败信息写入 logger。
func New(logger zerolog.Logger) *Codec {
	return &Codec{log: logger.With().Str("component", "codec").Logger()}
}

func (c *Codec) logger() *zerolog.Logger {
	if c == nil {
		return &Nop.log
	}
	return &c.log
}

// ToJSON 编码为 JSON 字节。
func (c *Codec) ToJSON(v any) ([]byte, bool) {
	data, err := encode(v)
	if err != nil {
		c.logger().Error().
			Err(err).
			Str("type", fmt.Sprintf("%T", v)).
			Str("value", fmt.Sprintf("%+v", v)).
			Msg("json encode failed")
		return nil, false
	}
	return data, true
}

// ToJSONString 编码为 JSON 字符串。
// nilIfEmpty=true 时空对象 "{}" 视为缺省（空请求体对下游 HTTP 调用无意义）。
func (c *Codec) ToJSONString(v any, nilIfEmpty bool) (string, bool) {
	data, ok := c.ToJSON(v)
	if !ok {
		return "", false
	}
	s := string(data)
	if nilIfEmpty && s == emptyObject {
		return "", false
	}
	return s, true
}

// ToMap 编码为 map（顶层必须是 JSON 对象）。
func (c *Codec) ToMap(v any) (map[string]any, bool) {
	data, ok := c.ToJSON(v)
	if !ok {
		return nil, false
	}
	return decode[map[string]any](c, data, true)
}

// FromJSON 从 JSON 字节解码。
func FromJSON[T any](c *Codec, data []byte) (T, bool) {
	return decode[T](c, data, true)
}

// FromJSONQuiet 同 FromJSON，但失败时不记录日志。
func FromJSONQuiet[T any](c *Codec, data []byte) (T, bool) {
	return decode[T](c, data, false)
}

// FromJSONString 从 JSON 字符串解码。
func FromJSONString[T any](c *Codec, s string) (T, bool) {
	return decode[T](c, []byte(s), true)
}

// FromMap 从 map 解码（经 JSON 中转，规则与 FromJSON 一致）。
func FromMap[T any](c *Codec, m map[string]any) (T, bool) {
	data, ok := c.ToJSON(m)
	if !ok {
		var zero T
		return zero, false
	}
	return decode[T](c, data, true)
}

func encode(v any) ([]byte, error) {
	tree, err := normalize(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, eris.Wrap(err, "json encode")
	}
	return canonical(data)
}

// canonical 重新解析后编码，Marshaler 自行输出的对象键同样按字典序排列
func canonical(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, eris.Wrap(err, "json canonicalize")
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, eris.Wrap(err, "json canonicalize")
	}
	return out, nil
}

func decode[T any](c *Codec, data []byte, report bool) (T, bool) {
	var v T
	err := json.Unmarshal(data, &v)
	if err == nil {
		if val, ok := any(&v).(Validator); ok {
			err = val.Validate()
		}
	}
	if err != nil {
		if report {
			de := classify(err, data)
			c.logger().Error().
				Err(de.Err).
				Str("kind", string(de.Kind)).
				Str("path", de.Path).
				Str("document", de.Document).
				Msg("json decode failed")
		}
		var zero T
		return zero, false
	}
	return v, true
}
