package formschema

import (
	"fmt"
	"strings"

	"github.com/DroppedLink/feedback/internal/pkg/textutil"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return e.Msg
}

// InputName 字段在表单中的 name，为空时使用 field_{index}
func InputName(index int, f Field) string {
	name := textutil.SanitizeKey(f.Name)
	if name == "" {
		name = fmt.Sprintf("field_%d", index)
	}
	return name
}

// DisplayLabel 字段显示名，为空时使用 Field {index+1}
func DisplayLabel(index int, f Field) string {
	if f.Label != "" {
		return f.Label
	}
	return fmt.Sprintf("Field %d", index+1)
}

// ValidateValues 按字段定义校验提交值，返回只包含已定义字段的清洗结果。
// 上传关闭时文件字段不会渲染，也不参与校验
func (c *Config) ValidateValues(values map[string]any, hasAttachment, uploadsEnabled bool) (map[string]string, error) {
	out := make(map[string]string)
	for i, f := range c.Fields {
		if !f.Type.Valid() {
			continue
		}
		name := InputName(i, f)
		label := DisplayLabel(i, f)

		if f.Type == TypeFile {
			if f.Required && uploadsEnabled && !hasAttachment {
				return nil, &FieldError{Field: name, Msg: label + " is required."}
			}
			continue
		}

		raw, ok := values[name]
		var s string
		if ok && raw != nil {
			str, isStr := raw.(string)
			if !isStr {
				return nil, &FieldError{Field: name, Msg: label + " must be text."}
			}
			if f.Type == TypeTextarea {
				s = textutil.SanitizeTextarea(str)
			} else {
				s = textutil.SanitizeText(str)
			}
		}

		if s == "" {
			if f.Required {
				return nil, &FieldError{Field: name, Msg: label + " is required."}
			}
			continue
		}

		if f.Type == TypeSelect && !containsOption(f.Options, s) {
			return nil, &FieldError{Field: name, Msg: label + " has an invalid option."}
		}
		out[name] = s
	}
	return out, nil
}

func containsOption(options []string, v string) bool {
	for _, o := range options {
		if strings.TrimSpace(o) == v {
			return true
		}
	}
	return false
}
