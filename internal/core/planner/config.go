package planner

import (
	"encoding/json"
	"fmt"
	"strconv"

	"menu-console/internal/pkg/common"
)

// Configuration 排程設定。以泛型 map 表示而非固定結構，讓後端新增、
// 表單不認識的欄位能原封不動地通過 FromForm / 序列化的往返。
type Configuration map[string]any

// ParseConfiguration 解析設定 JSON 文字；非物件或格式錯誤都視為失敗
func ParseConfiguration(text string) (Configuration, error) {
	var cfg Configuration
	if err := common.ParseJSON(text, &cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration must be a JSON object")
	}
	return cfg, nil
}

// Clone 深拷貝設定（經 JSON 往返），呼叫端可任意改寫而不影響原本
func (c Configuration) Clone() Configuration {
	if c == nil {
		return Configuration{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return Configuration{}
	}
	var out Configuration
	if err := common.ParseJSONBytes(data, &out); err != nil || out == nil {
		return Configuration{}
	}
	return out
}

// CanonicalText 標準 JSON 文字：縮排、鍵排序；同一份設定永遠得到同一串文字
func (c Configuration) CanonicalText() (string, error) {
	return common.PrettyJSON(c)
}

// Section 取出（必要時建立）指定的子區段
func (c Configuration) Section(name string) map[string]any {
	if m, ok := c[name].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	c[name] = m
	return m
}

// numberOf 把 JSON 解碼可能產生的數值型別統一成 float64
func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numberField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return numberOf(v)
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// stringListField 同時接受解碼出的 []any 與表單寫回的 []string
func stringListField(m map[string]any, key string) []string {
	out := []string{}
	switch list := m[key].(type) {
	case []string:
		out = append(out, list...)
	case []any:
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
