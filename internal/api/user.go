package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

func GetUserProfile(c *gin.Context) {
	userId := c.GetUint("userId")
	user, err := service.User.GetProfile(userId)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"nickname": user.Nickname,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

func UpdateUserProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid profile details.")
		return
	}

	userId := c.GetUint("userId")
	if err := service.User.UpdateProfile(userId, req.Nickname, req.Email); err != nil {
		Fail(c, err)
		return
	}

	OKMsg(c, "Profile updated.", nil)
}

// GetTokenExpireTime 获取用户token的过期时间
func GetTokenExpireTime(c *gin.Context) {
	userId := c.GetUint("userId")

	expireTime, err := service.User.GetTokenExpireTime(userId)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"expire_time":           expireTime,
		"expire_time_formatted": time.Unix(expireTime, 0).Format("2006-01-02 15:04:05"),
	})
}

// GetUserFeedbacks 获取当前用户的反馈列表
func GetUserFeedbacks(c *gin.Context) {
	userId := c.GetUint("userId")
	page, size := Page(c, 10, 100)

	items, total, err := service.Submission.ListMine(c.Request.Context(), userId, page, size)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"total": total,
		"items": items,
	})
}

// 找不到表单定义时，这些参数不计入 form_data
var reservedFormKeys = map[string]bool{
	"form_id":       true,
	"type":          true,
	"context_id":    true,
	"subject":       true,
	"message":       true,
	"metadata":      true,
	"form_data":     true,
	"attachment_id": true,
	"attachment":    true,
}

// SubmitFeedback 提交反馈，支持 JSON 和 multipart 两种格式
func SubmitFeedback(c *gin.Context) {
	userId := c.GetUint("userId")
	ctx := c.Request.Context()

	var req types.SubmitRequest
	var file *multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Invalid submission payload.")
			return
		}
	} else {
		if err := bindSubmitForm(c, &req); err != nil {
			BadRequest(c, "Invalid submission payload.")
			return
		}
		var err error
		file, err = c.FormFile("attachment")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			BadRequest(c, "Invalid attachment.")
			return
		}
	}

	applyFormDefaults(&req)

	// 随提交上传的文件在其余检查都通过后才保存
	var uploaded uint
	if file != nil {
		if err := service.Submission.Validate(ctx, userId, &req, true); err != nil {
			Fail(c, err)
			return
		}
		att, _, err := uploadFile(c, userId, file)
		if err != nil {
			Fail(c, err)
			return
		}
		uploaded = att.ID
		req.AttachmentID = &uploaded
	}

	id, err := service.Submission.Submit(ctx, userId, &req)
	if err != nil {
		if uploaded != 0 {
			service.Attachment.Discard(ctx, uploaded)
		}
		Fail(c, err)
		return
	}

	OKMsg(c, "Thank you for your feedback!", gin.H{"id": id})
}

// bindSubmitForm 读取表单参数；form_data 未以 JSON 提供时，按表单字段定义收集字段值
func bindSubmitForm(c *gin.Context, req *types.SubmitRequest) error {
	if err := c.ShouldBind(req); err != nil {
		return err
	}

	if raw := strings.TrimSpace(c.PostForm("metadata")); raw != "" {
		req.Metadata = json.RawMessage(raw)
	}

	if raw := strings.TrimSpace(c.PostForm("form_data")); raw != "" {
		return json.Unmarshal([]byte(raw), &req.FormData)
	}

	req.FormData = make(map[string]any)
	if req.FormID != nil && *req.FormID > 0 {
		names, err := service.Form.InputNames(c.Request.Context(), *req.FormID)
		if err == nil {
			for _, name := range names {
				if values := c.Request.PostForm[name]; len(values) > 0 {
					req.FormData[name] = values[0]
				}
				// 与表单字段同名的参数属于表单，不再作为顶层参数
				switch name {
				case "type":
					req.Type = ""
				case "subject":
					req.Subject = ""
				case "message":
					req.Message = ""
				}
			}
			return nil
		}
	}

	for key, values := range c.Request.PostForm {
		if reservedFormKeys[key] || len(values) == 0 {
			continue
		}
		req.FormData[key] = values[0]
	}
	return nil
}

// applyFormDefaults 表单提交未给出主题和内容时，从字段值中推导
func applyFormDefaults(req *types.SubmitRequest) {
	if req.FormID == nil || *req.FormID == 0 {
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		req.Subject = firstString(req.FormData, "subject")
		if req.Subject == "" {
			req.Subject = "Form Submission"
		}
	}
	if strings.TrimSpace(req.Message) == "" {
		req.Message = firstString(req.FormData, "description", "message")
		if req.Message == "" {
			req.Message = "N/A"
		}
	}
}

func firstString(values map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := values[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// UploadAttachment 单独上传附件，返回 id 和访问地址
func UploadAttachment(c *gin.Context) {
	userId := c.GetUint("userId")

	file, err := c.FormFile("attachment")
	if err != nil {
		BadRequest(c, "No file uploaded.")
		return
	}

	att, url, err := uploadFile(c, userId, file)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"attachment_id": att.ID,
		"url":           url,
		"file_name":     att.FileName,
		"size":          att.Size,
	})
}

func uploadFile(c *gin.Context, userId uint, file *multipart.FileHeader) (*model.Attachment, string, error) {
	f, err := file.Open()
	if err != nil {
		return nil, "", service.Validation("Invalid attachment.")
	}
	defer f.Close()

	return service.Attachment.Upload(c.Request.Context(), userId, storage.Upload{
		Name:   file.Filename,
		Size:   file.Size,
		Reader: f,
	})
}

// GetAttachment 下载附件，仅上传者和管理员可访问
func GetAttachment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	isAdmin := false
	if user, exists := c.Get("user"); exists {
		if u, ok := user.(model.User); ok {
			isAdmin = u.IsAdmin
		}
	}

	att, rc, err := service.Attachment.Open(c.Request.Context(), id, c.GetUint("userId"), isAdmin)
	if err != nil {
		Fail(c, err)
		return
	}
	defer rc.Close()

	ServeAttachment(c, att, rc)
}

// ServeAttachment 以附件形式输出文件内容
func ServeAttachment(c *gin.Context, att *model.Attachment, rc io.Reader) {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, att.Size, contentType, rc, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(att.FileName),
	})
}
