package codec

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// maxDepth 超过该嵌套深度视为循环引用
const maxDepth = 512

// ErrTooDeep 值嵌套过深（通常为循环引用）
var ErrTooDeep = eris.New("codec: value nesting too deep")

var (
	timeType          = reflect.TypeOf(time.Time{})
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// normalize 将任意值转换为可编码的动态树：
// time.Time（任意位置，含结构体字段与具名 map/slice 内）转为整数 epoch 秒，
// 结构体按 json 标签展开为 map[string]any。实现 Marshaler 的值原样保留。
func normalize(rv reflect.Value, depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem(), depth+1)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem() != timeType && customEncoding(rv.Type()) {
			return rv.Interface(), nil
		}
		return normalize(rv.Elem(), depth+1)
	}

	t := rv.Type()
	if t == timeType {
		return rv.Interface().(time.Time).Unix(), nil
	}
	if customEncoding(t) {
		return rv.Interface(), nil
	}
	if rv.CanAddr() && customEncoding(reflect.PointerTo(t)) {
		return rv.Addr().Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		if err := collectFields(rv, out, depth); err != nil {
			return nil, err
		}
		return out, nil

	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := mapKey(iter.Key())
			if !ok {
				return rv.Interface(), nil
			}
			v, err := normalize(iter.Value(), depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil

	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return rv.Interface(), nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			v, err := normalize(rv.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	default:
		return rv.Interface(), nil
	}
}

func customEncoding(t reflect.Type) bool {
	return t.Implements(marshalerType) || t.Implements(textMarshalerType)
}

// collectFields 按 json 标签收集导出字段；匿名结构体字段提升到外层，外层同名字段优先
func collectFields(rv reflect.Value, out map[string]any, depth int) error {
	t := rv.Type()
	promoted := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv, ft = fv.Elem(), ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType && !customEncoding(ft) {
				if err := collectFields(fv, promoted, depth+1); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		v, err := normalize(fv, depth+1)
		if err != nil {
			return err
		}
		out[name] = v
	}
	for k, v := range promoted {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return nil
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// mapKey 字符串与整数键；其余键类型交给编码器处理
func mapKey(k reflect.Value) (string, bool) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), true
	}
	return "", false
}
