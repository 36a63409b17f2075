package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

func GetCategories(c *gin.Context) {
	items, err := service.Category.List(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, items)
}

func GetCategory(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	item, err := service.Category.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, item)
}

// SaveCategory 创建或更新分类；更新时以路径中的 id 为准
func SaveCategory(c *gin.Context) {
	var req types.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid category.")
		return
	}
	if c.Param("id") != "" {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		req.ID = id
	}

	id, err := service.Category.Save(c.Request.Context(), &req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Category saved successfully!", gin.H{"id": id})
}

func DeleteCategory(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := service.Category.Delete(c.Request.Context(), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Category deleted successfully!", nil)
}
