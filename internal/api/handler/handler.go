package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ideahub/internal/devserver"
	"github.com/d60-Lab/ideahub/pkg/response"
)

// Handler 开发服务器的 HTTP 入口
type Handler struct {
	svc devserver.Service
}

func NewHandler(svc devserver.Service) *Handler {
	return &Handler{svc: svc}
}

// ideaID parses the :id path parameter, writing a 400 when it is not a
// positive integer.
func ideaID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid idea id")
		return 0, false
	}
	return id, true
}

// Health 存活检查
// @Summary 存活检查
// @Tags 系统
// @Success 204
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, nil)
}
