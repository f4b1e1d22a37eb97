package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// 默认错误消息
var statusMessages = map[int]string{
	http.StatusBadRequest:          "参数错误",
	http.StatusUnauthorized:        "认证失败",
	http.StatusForbidden:           "权限不足",
	http.StatusNotFound:            "资源不存在",
	http.StatusServiceUnavailable:  "服务暂不可用",
	http.StatusInternalServerError: "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Limits  interface{} `json:"limits,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessWithLimits 成功响应并附带配额信息
func SuccessWithLimits(c *gin.Context, data interface{}, limits interface{}) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   data,
		Limits: limits,
	})
}

// Error 错误响应，非 release 模式下附带内部错误详情
func Error(c *gin.Context, httpStatus int, message string, err error) {
	if message == "" {
		message = statusMessages[httpStatus]
	}

	resp := Response{
		Status:  StatusError,
		Message: message,
	}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		resp.Error = err.Error()
	}
	c.JSON(httpStatus, resp)
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, nil)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// QuotaError 配额不足，附带当前配额
func QuotaError(c *gin.Context, message string, limits interface{}) {
	c.JSON(http.StatusForbidden, Response{
		Status:  StatusError,
		Message: message,
		Limits:  limits,
	})
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string, err error) {
	Error(c, http.StatusInternalServerError, message, err)
}
