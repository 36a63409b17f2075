package formschema

import (
	"fmt"
	"strings"
)

type OpKind string

const (
	OpAdd      OpKind = "add"
	OpInsert   OpKind = "insert"
	OpRemove   OpKind = "remove"
	OpMove     OpKind = "move"
	OpMoveUp   OpKind = "move_up"
	OpMoveDown OpKind = "move_down"
	OpUpdate   OpKind = "update"
)

// Patch 字段属性修改，nil 表示不修改
type Patch struct {
	Name        *string   `json:"name,omitempty"`
	Label       *string   `json:"label,omitempty"`
	Required    *bool     `json:"required,omitempty"`
	Options     *[]string `json:"options,omitempty"`
	Rows        *int      `json:"rows,omitempty"`
	Placeholder *string   `json:"placeholder,omitempty"`
}

// Op 编辑日志中的一步操作，按顺序回放即可得到最终配置
type Op struct {
	Kind  OpKind    `json:"op"`
	Type  FieldType `json:"type,omitempty"`
	ID    int       `json:"id,omitempty"`
	Index int       `json:"index,omitempty"`
	Field *Field    `json:"field,omitempty"`
	Patch *Patch    `json:"patch,omitempty"`
}

var defaultLabels = map[FieldType]string{
	TypeSelect:   "Dropdown Field",
	TypeText:     "Text Field",
	TypeTextarea: "Text Area",
	TypeFile:     "File Upload",
}

// NewField 生成带默认属性的字段，id 和 name 由 Add/Insert 填充
func NewField(t FieldType) Field {
	f := Field{Type: t, Label: defaultLabels[t]}
	switch t {
	case TypeSelect:
		f.Options = []string{"Option 1", "Option 2"}
	case TypeTextarea:
		f.Rows = DefaultRows
	}
	return f
}

// Add 在末尾追加一个新字段并返回其 id
func (c *Config) Add(t FieldType) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("unknown field type %q", t)
	}
	f := NewField(t)
	return c.insert(len(c.Fields), f), nil
}

// Insert 在指定位置插入字段，位置越界时截断到两端
func (c *Config) Insert(index int, f Field) (int, error) {
	if !f.Type.Valid() {
		return 0, fmt.Errorf("unknown field type %q", f.Type)
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.Fields) {
		index = len(c.Fields)
	}
	return c.insert(index, f), nil
}

func (c *Config) insert(index int, f Field) int {
	f.ID = c.NextID
	c.NextID++
	if f.Name == "" {
		f.Name = fmt.Sprintf("%s_%d", f.Type, c.NextID)
	}
	if f.Label == "" {
		f.Label = defaultLabels[f.Type]
	}
	if f.Type == TypeTextarea && f.Rows < 1 {
		f.Rows = DefaultRows
	}

	c.Fields = append(c.Fields, Field{})
	copy(c.Fields[index+1:], c.Fields[index:])
	c.Fields[index] = f
	return f.ID
}

// Remove 删除一个字段，其余字段顺序不变
func (c *Config) Remove(id int) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("field %d not found", id)
	}
	c.Fields = append(c.Fields[:i], c.Fields[i+1:]...)
	return nil
}

// Move 拖拽排序：先取出再插入到目标位置
func (c *Config) Move(id, newIndex int) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("field %d not found", id)
	}
	f := c.Fields[i]
	c.Fields = append(c.Fields[:i], c.Fields[i+1:]...)

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(c.Fields) {
		newIndex = len(c.Fields)
	}
	c.Fields = append(c.Fields, Field{})
	copy(c.Fields[newIndex+1:], c.Fields[newIndex:])
	c.Fields[newIndex] = f
	return nil
}

// MoveUp 与前一个字段交换，已在首位时不变
func (c *Config) MoveUp(id int) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("field %d not found", id)
	}
	if i > 0 {
		c.Fields[i-1], c.Fields[i] = c.Fields[i], c.Fields[i-1]
	}
	return nil
}

// MoveDown 与后一个字段交换，已在末位时不变
func (c *Config) MoveDown(id int) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("field %d not found", id)
	}
	if i < len(c.Fields)-1 {
		c.Fields[i+1], c.Fields[i] = c.Fields[i], c.Fields[i+1]
	}
	return nil
}

// Update 修改字段属性
func (c *Config) Update(id int, p Patch) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("field %d not found", id)
	}
	f := &c.Fields[i]
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Placeholder != nil && (f.Type == TypeText || f.Type == TypeTextarea) {
		f.Placeholder = *p.Placeholder
	}
	if p.Options != nil && f.Type == TypeSelect {
		opts := make([]string, 0, len(*p.Options))
		for _, o := range *p.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		f.Options = opts
	}
	if p.Rows != nil && f.Type == TypeTextarea {
		f.Rows = *p.Rows
		if f.Rows < 1 {
			f.Rows = DefaultRows
		}
	}
	return nil
}

// Apply 依次回放编辑操作。任一步失败时配置保持不变
func (c *Config) Apply(ops ...Op) error {
	work := c.Clone()
	for n, op := range ops {
		var err error
		switch op.Kind {
		case OpAdd:
			_, err = work.Add(op.Type)
		case OpInsert:
			if op.Field == nil {
				err = fmt.Errorf("insert requires a field")
				break
			}
			_, err = work.Insert(op.Index, *op.Field)
		case OpRemove:
			err = work.Remove(op.ID)
		case OpMove:
			err = work.Move(op.ID, op.Index)
		case OpMoveUp:
			err = work.MoveUp(op.ID)
		case OpMoveDown:
			err = work.MoveDown(op.ID)
		case OpUpdate:
			if op.Patch == nil {
				err = fmt.Errorf("update requires a patch")
				break
			}
			err = work.Update(op.ID, *op.Patch)
		default:
			err = fmt.Errorf("unknown operation %q", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("op %d: %w", n, err)
		}
	}
	*c = *work
	return nil
}
