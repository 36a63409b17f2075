package admin

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// submissionView 列表和详情中附带提交人信息
func submissionView(sub *model.Submission) gin.H {
	user := gin.H{"id": sub.UserID, "username": "Unknown"}
	if sub.User.ID != 0 {
		user = gin.H{
			"id":       sub.User.ID,
			"username": sub.User.Username,
			"nickname": sub.User.Nickname,
			"email":    sub.User.Email,
		}
	}
	return gin.H{
		"id":               sub.ID,
		"user":             user,
		"form_id":          sub.FormID,
		"type":             sub.Type,
		"type_label":       sub.TypeLabel(),
		"context_id":       sub.ContextID,
		"subject":          sub.Subject,
		"message":          sub.Message,
		"status":           sub.Status,
		"admin_reply":      sub.AdminReply,
		"resolution_notes": sub.ResolutionNotes,
		"metadata":         sub.Metadata,
		"form_data":        sub.FormData,
		"attachment_id":    sub.AttachmentID,
		"created_at":       sub.CreatedAt,
		"updated_at":       sub.UpdatedAt,
		"resolved_at":      sub.ResolvedAt,
	}
}

// GetAllFeedbacks 按条件查询反馈
func GetAllFeedbacks(c *gin.Context) {
	var query types.SubmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.BadRequest(c, "Invalid query parameters.")
		return
	}

	items, total, err := service.Submission.List(c.Request.Context(), &query)
	if err != nil {
		api.Fail(c, err)
		return
	}

	list := make([]gin.H, 0, len(items))
	for i := range items {
		list = append(list, submissionView(&items[i]))
	}
	api.OK(c, gin.H{
		"total": total,
		"items": list,
	})
}

// GetFeedback 获取单个反馈详情
func GetFeedback(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := service.Submission.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, submissionView(sub))
}

// ReplyFeedback 回复反馈，可以直接使用预设回复
func ReplyFeedback(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req types.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid reply.")
		return
	}

	var err error
	if req.CannedResponseID > 0 {
		err = service.Submission.ReplyCanned(c.Request.Context(), id, req.CannedResponseID)
	} else {
		err = service.Submission.Reply(c.Request.Context(), id, req.Reply)
	}
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Reply sent successfully!", nil)
}

// UpdateFeedbackStatus 修改反馈状态
func UpdateFeedbackStatus(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req types.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Status is required.")
		return
	}

	if err := service.Submission.SetStatus(c.Request.Context(), id, req.Status, req.ResolutionNotes); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Status updated successfully!", nil)
}

// DeleteFeedback 删除反馈及其附件
func DeleteFeedback(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := service.Submission.Delete(c.Request.Context(), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Submission deleted.", nil)
}

// BulkFeedback 批量修改状态或删除
func BulkFeedback(c *gin.Context) {
	var req types.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "No submissions selected.")
		return
	}

	result, err := service.Submission.Bulk(c.Request.Context(), req.IDs, req.Action)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, result)
}

// ExportFeedbacks 按当前筛选条件导出 CSV
func ExportFeedbacks(c *gin.Context) {
	var query types.SubmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.BadRequest(c, "Invalid query parameters.")
		return
	}

	// 先写入缓冲区，出错时仍可以返回 JSON 错误
	var buf bytes.Buffer
	if err := service.Export.WriteCSV(c.Request.Context(), &buf, query); err != nil {
		api.Fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.Export.Filename(time.Now()))
	c.Data(200, "text/csv; charset=utf-8", buf.Bytes())
}

// GetFeedbackAttachment 下载反馈附件
func GetFeedbackAttachment(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := service.Submission.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	if sub.AttachmentID == nil {
		api.Fail(c, service.NotFound("Attachment not found."))
		return
	}

	att, rc, err := service.Attachment.Open(c.Request.Context(), *sub.AttachmentID, c.GetUint("userId"), true)
	if err != nil {
		api.Fail(c, err)
		return
	}
	defer rc.Close()

	api.ServeAttachment(c, att, rc)
}
