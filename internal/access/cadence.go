package access

import (
	"encoding/json"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/pkg/errors"
)

// CadenceValue JSON-Cadence 编码的值
type CadenceValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// CadenceKeyValue 字典条目
type CadenceKeyValue struct {
	Key   CadenceValue `json:"key"`
	Value CadenceValue `json:"value"`
}

type cadenceComposite struct {
	ID     string `json:"id"`
	Fields []struct {
		Name  string       `json:"name"`
		Value CadenceValue `json:"value"`
	} `json:"fields"`
}

// AddressArgument 构造 Address 类型参数
func AddressArgument(addr flow.Address) CadenceValue {
	raw, _ := json.Marshal(addr.Hex())
	return CadenceValue{Type: "Address", Value: raw}
}

// StringArgument 构造 String 类型参数
func StringArgument(s string) CadenceValue {
	raw, _ := json.Marshal(s)
	return CadenceValue{Type: "String", Value: raw}
}

// IsNil 是否为 nil 的 Optional 或 Void
func (v CadenceValue) IsNil() bool {
	if v.Type == "Void" {
		return true
	}
	if v.Type != "Optional" {
		return false
	}
	trimmed := strings.TrimSpace(string(v.Value))
	return trimmed == "" || trimmed == "null"
}

// Unwrap 展开 Optional，非 Optional 原样返回；nil 时返回 ok=false
func (v CadenceValue) Unwrap() (CadenceValue, bool, error) {
	if v.IsNil() {
		return CadenceValue{}, false, nil
	}
	if v.Type != "Optional" {
		return v, true, nil
	}
	var inner CadenceValue
	if err := json.Unmarshal(v.Value, &inner); err != nil {
		return CadenceValue{}, false, errors.Wrap(err, "failed to decode optional value")
	}
	return inner.Unwrap()
}

// String 读取 String / Address / Character / 各种数字类型（数字以字符串编码）
func (v CadenceValue) String() (string, error) {
	inner, ok, err := v.Unwrap()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("value is nil")
	}
	var s string
	if err := json.Unmarshal(inner.Value, &s); err != nil {
		return "", errors.Wrapf(err, "cadence %s is not string encoded", inner.Type)
	}
	return s, nil
}

// Address 读取 Address
func (v CadenceValue) Address() (flow.Address, error) {
	s, err := v.String()
	if err != nil {
		return flow.EmptyAddress, err
	}
	return flow.ParseAddress(s)
}

// Dictionary 读取字典条目
func (v CadenceValue) Dictionary() ([]CadenceKeyValue, error) {
	inner, ok, err := v.Unwrap()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if inner.Type != "Dictionary" {
		return nil, errors.Errorf("expected Dictionary, got %s", inner.Type)
	}
	var entries []CadenceKeyValue
	if err := json.Unmarshal(inner.Value, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode dictionary")
	}
	return entries, nil
}

// Array 读取数组元素
func (v CadenceValue) Array() ([]CadenceValue, error) {
	inner, ok, err := v.Unwrap()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if inner.Type != "Array" {
		return nil, errors.Errorf("expected Array, got %s", inner.Type)
	}
	var items []CadenceValue
	if err := json.Unmarshal(inner.Value, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode array")
	}
	return items, nil
}

// Fields 读取 Struct / Resource / Event 的字段
func (v CadenceValue) Fields() (map[string]CadenceValue, error) {
	inner, ok, err := v.Unwrap()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	switch inner.Type {
	case "Struct", "Resource", "Event", "Contract", "Enum":
	default:
		return nil, errors.Errorf("expected composite, got %s", inner.Type)
	}
	var c cadenceComposite
	if err := json.Unmarshal(inner.Value, &c); err != nil {
		return nil, errors.Wrap(err, "failed to decode composite")
	}
	fields := make(map[string]CadenceValue, len(c.Fields))
	for _, f := range c.Fields {
		fields[f.Name] = f.Value
	}
	return fields, nil
}

// StringMap 读取 {String: String} 字典，忽略 nil 值
func (v CadenceValue) StringMap() (map[string]string, error) {
	entries, err := v.Dictionary()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Value.IsNil() {
			continue
		}
		k, err := e.Key.String()
		if err != nil {
			return nil, err
		}
		val, err := e.Value.String()
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}
