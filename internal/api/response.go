package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/service"
)

// StatusOf 业务错误类型对应的 HTTP 状态码
func StatusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict, service.KindIntegrity:
		return http.StatusConflict
	case service.KindUpload:
		var ue *storage.UploadError
		if errors.As(err, &ue) && ue.Reason == storage.ReasonOversize {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Fail 按错误类型返回统一的错误响应
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)
	msg := err.Error()
	var se *service.Error
	if !errors.As(err, &se) {
		msg = "Internal server error."
	}
	c.JSON(status, gin.H{
		"code": status,
		"msg":  msg,
	})
}

// BadRequest 请求参数无法解析
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code": 400,
		"msg":  msg,
	})
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": data,
	})
}

func OKMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  msg,
		"data": data,
	})
}

// ParamID 读取路径中的 id 参数，无效时直接写入 400
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid ID.")
		return 0, false
	}
	return uint(id), true
}

// Page 读取分页参数，非法值回退为默认值
func Page(c *gin.Context, defaultSize, maxSize int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 || size > maxSize {
		size = defaultSize
	}
	return page, size
}
