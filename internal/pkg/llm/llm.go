// Package llm 调用大模型生成内容创意，主模型失败时回退到备用模型
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrGenerationFailed = errors.New("内容生成失败，请稍后重试")
	ErrResponseParse    = errors.New("模型返回内容无法解析")
	ErrEmptyReply       = errors.New("模型未返回文本内容")
)

// ContentIdea 单条内容创意。
// 模型返回的条目不做校验，序列化时原样输出；类型字段只在对应值为字符串时填充。
type ContentIdea struct {
	Title       string  `json:"title"`
	Format      string  `json:"format"`
	Description string  `json:"description"`
	Date        *string `json:"date"`

	raw json.RawMessage
}

func (c *ContentIdea) UnmarshalJSON(data []byte) error {
	c.raw = append(json.RawMessage(nil), data...)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// 非对象条目
		return nil
	}
	c.Title, _ = stringField(fields, "title")
	c.Format, _ = stringField(fields, "format")
	c.Description, _ = stringField(fields, "description")
	if date, ok := stringField(fields, "date"); ok {
		c.Date = &date
	}
	return nil
}

func (c ContentIdea) MarshalJSON() ([]byte, error) {
	if c.raw != nil {
		return c.raw, nil
	}
	type plain ContentIdea
	return json.Marshal(plain(c))
}

// Raw 模型返回的原始条目，手工构造时为 nil
func (c ContentIdea) Raw() json.RawMessage {
	return c.raw
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// Provider 大模型提供方
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// ProviderError 单次模型调用失败（网络、鉴权、限流、超时、空回复）
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ParseError 模型回复中没有可解析的 JSON 数组
type ParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %s: %v: %v", e.Provider, ErrResponseParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrResponseParse, e.Err}
}

// ParseIdeas 截取回复中第一个 '[' 到最后一个 ']' 之间的内容并解析。
// 只要求截取结果是合法的 JSON 数组，条目内容原样透传
func ParseIdeas(reply string) ([]ContentIdea, error) {
	raw, err := extractJSONArray(reply)
	if err != nil {
		return nil, err
	}

	var ideas []ContentIdea
	if err := json.Unmarshal([]byte(raw), &ideas); err != nil {
		return nil, fmt.Errorf("invalid json array: %w", err)
	}
	if ideas == nil {
		ideas = []ContentIdea{}
	}
	return ideas, nil
}

func extractJSONArray(reply string) (string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return "", errors.New("no json array in reply")
	}
	return reply[start : end+1], nil
}
