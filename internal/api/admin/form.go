package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// GetForms category_id 不传时返回全部表单
func GetForms(c *gin.Context) {
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)

	items, err := service.Form.List(c.Request.Context(), uint(categoryID))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, items)
}

// GetFormsByCategory 分类下的表单，用于筛选下拉框
func GetFormsByCategory(c *gin.Context) {
	categoryID, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	items, err := service.Form.ListByCategory(c.Request.Context(), uint(categoryID))
	if err != nil {
		api.Fail(c, err)
		return
	}

	list := make([]gin.H, 0, len(items))
	for _, f := range items {
		list = append(list, gin.H{"id": f.ID, "name": f.Name})
	}
	api.OK(c, list)
}

func GetForm(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	form, err := service.Form.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, form)
}

// SaveForm 创建或更新表单
func SaveForm(c *gin.Context) {
	var req types.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid form.")
		return
	}
	if c.Param("id") != "" {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		req.ID = id
	}

	id, err := service.Form.Save(c.Request.Context(), &req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Form saved successfully!", gin.H{"id": id})
}

// ApplyFormFieldOps 对字段配置执行增删改和排序操作
func ApplyFormFieldOps(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req types.FieldOpsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid field operations.")
		return
	}

	cfg, err := service.Form.ApplyFieldOps(c.Request.Context(), id, req.Ops, req.Version)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, cfg)
}

func DeleteForm(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := service.Form.Delete(c.Request.Context(), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Form deleted successfully!", nil)
}
