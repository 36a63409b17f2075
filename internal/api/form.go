package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/pkg/formschema"
	"github.com/DroppedLink/feedback/internal/pkg/render"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// RenderForm 输出表单 HTML 片段；找不到或未启用时输出提示而不是错误
func RenderForm(c *gin.Context) {
	html, err := service.Form.Render(c.Request.Context(), c.Param("shortcode"), c.Query("context_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetFormDefinition 按 shortcode 返回已启用表单的字段定义
func GetFormDefinition(c *gin.Context) {
	form, err := service.Form.GetByShortcode(c.Request.Context(), c.Param("shortcode"))
	if err != nil {
		Fail(c, err)
		return
	}

	cfg, err := formschema.Parse(form.FieldConfig)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"id":          form.ID,
		"name":        form.Name,
		"shortcode":   form.Shortcode,
		"description": form.Description,
		"fields":      cfg.Fields,
		"upload": gin.H{
			"enabled":     config.GlobalConfig.Upload.IsEnabled(),
			"max_size_mb": storage.MaxFileSizeMB(config.GlobalConfig.Upload),
			"accept":      storage.AcceptList(config.GlobalConfig.Upload),
		},
	})
}

// GetChangelog 最近解决的缺陷
func GetChangelog(c *gin.Context) {
	var q types.ChangelogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "Invalid query parameters.")
		return
	}

	items, err := service.Submission.Changelog(c.Request.Context(), &q)
	if err != nil {
		Fail(c, err)
		return
	}

	list := make([]gin.H, 0, len(items))
	for _, item := range items {
		list = append(list, gin.H{
			"id":               item.ID,
			"subject":          item.Subject,
			"resolution_notes": item.ResolutionNotes,
			"resolved_at":      item.ResolvedAt,
		})
	}
	OK(c, list)
}

// GetChangelogHTML 以 HTML 片段输出更新日志
func GetChangelogHTML(c *gin.Context) {
	var q types.ChangelogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "Invalid query parameters.")
		return
	}

	items, err := service.Submission.Changelog(c.Request.Context(), &q)
	if err != nil {
		Fail(c, err)
		return
	}

	html, err := render.New(config.GlobalConfig.Upload, service.SubmitAction).Changelog(items)
	if err != nil {
		Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
