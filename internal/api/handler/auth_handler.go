package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ideahub/internal/api/middleware"
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/response"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// Register 注册
// @Summary 注册
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body model.Credentials true "用户名、邮箱、密码"
// @Success 201 {object} model.User
// @Failure 400 {object} response.Response
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in model.Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login 登录，返回 bearer token
// @Summary 登录
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body model.Credentials true "邮箱、密码"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} response.Response
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in model.Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tokenResponse{Token: token})
}

// Me 当前用户
// @Summary 当前用户
// @Tags 账号
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} response.Response
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateMe 修改个人资料
// @Summary 修改个人资料
// @Tags 账号
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ProfileInput true "用户名与邮箱"
// @Success 200 {object} model.User
// @Failure 400 {object} response.Response
// @Router /api/auth/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var in model.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
