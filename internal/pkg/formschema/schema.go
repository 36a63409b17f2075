// Package formschema 定义表单字段结构及其 JSON 存储格式。
package formschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeFile     FieldType = "file"
)

// DefaultRows 多行文本默认行数
const DefaultRows = 6

func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeSelect, TypeFile:
		return true
	}
	return false
}

// Field 单个字段定义，类型相关属性只在对应类型下输出
type Field struct {
	ID          int       `json:"id"`
	Type        FieldType `json:"type"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Rows        int       `json:"rows,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// Config 表单的字段列表，NextID 只增不减
type Config struct {
	Fields []Field `json:"fields"`
	NextID int     `json:"next_id"`
}

var ErrInvalidConfig = errors.New("invalid field configuration")

// Parse 解析存储的字段配置。空值视为空表单，旧格式缺少 next_id 时按最大 id 推导
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Fields: []Field{}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cfg, nil
	}

	var raw struct {
		Fields []Field `json:"fields"`
		NextID *int    `json:"next_id"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if raw.Fields != nil {
		cfg.Fields = raw.Fields
	}

	floor := 0
	for _, f := range cfg.Fields {
		if f.ID >= floor {
			floor = f.ID + 1
		}
	}
	if raw.NextID != nil && *raw.NextID > floor {
		cfg.NextID = *raw.NextID
	} else {
		cfg.NextID = floor
	}
	return cfg, nil
}

// Marshal 输出规范格式 {"fields":[...],"next_id":N}
func (c *Config) Marshal() ([]byte, error) {
	out := Config{Fields: c.Fields, NextID: c.NextID}
	if out.Fields == nil {
		out.Fields = []Field{}
	}
	return json.Marshal(out)
}

// Field 按 id 查找字段
func (c *Config) Field(id int) (Field, bool) {
	if i := c.index(id); i >= 0 {
		return c.Fields[i], true
	}
	return Field{}, false
}

func (c *Config) index(id int) int {
	for i, f := range c.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Clone 深拷贝，编辑失败时不影响原配置
func (c *Config) Clone() *Config {
	out := &Config{NextID: c.NextID, Fields: make([]Field, len(c.Fields))}
	for i, f := range c.Fields {
		if f.Options != nil {
			f.Options = append([]string(nil), f.Options...)
		}
		out.Fields[i] = f
	}
	return out
}
