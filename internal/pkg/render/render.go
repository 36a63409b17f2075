// Package render 把表单定义渲染成 HTML 片段。
package render

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/formschema"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	MsgFormUnavailable = "Error: Form not found or inactive."
	MsgNoFields        = "This form has no fields configured yet."
)

type fieldView struct {
	Type        formschema.FieldType
	Name        string
	Label       string
	Required    bool
	Options     []string
	Rows        int
	Placeholder string
	Accept      string
	MaxMB       int
}

type formView struct {
	ID          uint
	ContextID   string
	Name        string
	Description string
	Action      string
	Fields      []fieldView
}

// Renderer 渲染表单和更新日志
type Renderer struct {
	Upload config.UploadConfig
	Action string // 表单提交地址
}

func New(upload config.UploadConfig, action string) *Renderer {
	return &Renderer{Upload: upload, Action: action}
}

// Notice 渲染提示信息，level 为 error 或 warning
func Notice(level, msg string) template.HTML {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "notice", struct{ Level, Msg string }{level, msg}); err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return template.HTML(buf.String())
}

// Form 渲染表单；不存在或未启用、没有字段时输出提示
func (r *Renderer) Form(form *model.Form, contextID string) (template.HTML, error) {
	if form == nil || !form.IsActive {
		return Notice("error", MsgFormUnavailable), nil
	}
	cfg, err := formschema.Parse(form.FieldConfig)
	if err != nil {
		return "", err
	}
	if len(cfg.Fields) == 0 {
		return Notice("warning", MsgNoFields), nil
	}

	view := formView{
		ID:          form.ID,
		ContextID:   contextID,
		Name:        form.Name,
		Description: form.Description,
		Action:      r.Action,
	}
	for i, f := range cfg.Fields {
		if !f.Type.Valid() {
			continue
		}
		if f.Type == formschema.TypeFile && !r.Upload.IsEnabled() {
			continue
		}
		fv := fieldView{
			Type:        f.Type,
			Name:        formschema.InputName(i, f),
			Label:       formschema.DisplayLabel(i, f),
			Required:    f.Required,
			Options:     f.Options,
			Rows:        f.Rows,
			Placeholder: f.Placeholder,
		}
		if fv.Type == formschema.TypeTextarea && fv.Rows < 1 {
			fv.Rows = formschema.DefaultRows
		}
		if fv.Type == formschema.TypeFile {
			fv.Accept = storage.AcceptList(r.Upload)
			fv.MaxMB = storage.MaxFileSizeMB(r.Upload)
		}
		view.Fields = append(view.Fields, fv)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "form", view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type changelogItem struct {
	Date    string
	Subject string
	Notes   string
}

// Changelog 渲染已解决缺陷列表
func (r *Renderer) Changelog(items []model.Submission) (template.HTML, error) {
	var view struct{ Items []changelogItem }
	for _, s := range items {
		it := changelogItem{Subject: s.Subject}
		if s.ResolvedAt != nil {
			it.Date = s.ResolvedAt.Format("Jan 02, 2006")
		} else {
			it.Date = s.UpdatedAt.Format("Jan 02, 2006")
		}
		if s.ResolutionNotes != nil {
			it.Notes = *s.ResolutionNotes
		}
		view.Items = append(view.Items, it)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "changelog", view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
