package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

func GetCannedResponses(c *gin.Context) {
	items, err := service.Canned.List(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, items)
}

// GetCannedResponse 回复框中插入预设内容时使用
func GetCannedResponse(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	item, err := service.Canned.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{
		"id":      item.ID,
		"title":   item.Title,
		"content": item.Content,
	})
}

func SaveCannedResponse(c *gin.Context) {
	var req types.CannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid canned response.")
		return
	}
	if c.Param("id") != "" {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		req.ID = id
	}

	id, err := service.Canned.Save(c.Request.Context(), &req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Canned response saved successfully!", gin.H{"id": id})
}

func DeleteCannedResponse(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := service.Canned.Delete(c.Request.Context(), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Canned response deleted successfully!", nil)
}
