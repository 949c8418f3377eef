package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 可 JSON 序列化的时长
//
// 反序列化接受 "30s" 这样的字符串，也接受纳秒整数；序列化总是输出字符串。
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("duration must be a string (e.g., \"30s\") or number (nanoseconds)")
}

// MarshalJSON 实现 json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration 转换为 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String 返回可读表示
func (d Duration) String() string {
	return time.Duration(d).String()
}
