package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

// Response 错误响应体；成功时直接返回数据本身
type Response struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Success writes data with 200, or 204 when there is nothing to return.
func Success(c *gin.Context, data any) {
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: apperr.KindValidation.String(), Message: message})
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: apperr.KindUnauthenticated.String(), Message: message})
}

func InternalError(c *gin.Context, err error) {
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: "internal", Message: "internal server error"})
}

// Error maps an apperr kind onto its HTTP status; anything else is a 500.
func Error(c *gin.Context, err error) {
	status := 0
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindAlreadyRated:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	default:
		InternalError(c, err)
		return
	}
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}
	c.AbortWithStatusJSON(status, Response{Code: apperr.KindOf(err).String(), Message: msg})
}
