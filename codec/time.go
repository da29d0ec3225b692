package codec

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Timestamp 日期类字段（JSON 表示为整数 epoch 秒）
//
// 下游消费方拒绝非整数时间戳：编码时小数秒截断；解码时接受整数或小数秒。
type Timestamp struct {
	time.Time
}

// NewTimestamp 包装 time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON 编码为整数 epoch 秒
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, t.Unix(), 10), nil
}

// UnmarshalJSON 从 epoch 秒解码（null 解码为零值）
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return &json.UnmarshalTypeError{Value: s, Type: reflect.TypeOf(Timestamp{})}
	}
	sec, frac := math.Modf(f)
	t.Time = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return nil
}
