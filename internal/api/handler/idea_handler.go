package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ideahub/internal/api/middleware"
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/response"
)

// ListIdeas 创意列表
// @Summary 创意列表
// @Tags 创意
// @Produce json
// @Param sort query string false "trending 时按热度排序"
// @Success 200 {array} model.Idea
// @Failure 500 {object} response.Response
// @Router /api/ideas [get]
func (h *Handler) ListIdeas(c *gin.Context) {
	ideas, err := h.svc.ListIdeas(c.Request.Context(), c.Query("sort"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ideas)
}

// GetIdea 创意详情
// @Summary 创意详情
// @Tags 创意
// @Produce json
// @Param id path int true "创意ID"
// @Success 200 {object} model.Idea
// @Failure 404 {object} response.Response
// @Router /api/ideas/{id} [get]
func (h *Handler) GetIdea(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	idea, err := h.svc.GetIdea(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, idea)
}

// CreateIdea 发布创意
// @Summary 发布创意
// @Tags 创意
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.IdeaInput true "标题与描述"
// @Success 201 {object} model.Idea
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/ideas [post]
func (h *Handler) CreateIdea(c *gin.Context) {
	var in model.IdeaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	idea, err := h.svc.CreateIdea(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, idea)
}

// UpdateIdea 编辑创意（仅作者）
// @Summary 编辑创意
// @Tags 创意
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "创意ID"
// @Param request body model.IdeaInput true "标题与描述"
// @Success 200 {object} model.Idea
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/ideas/{id} [put]
func (h *Handler) UpdateIdea(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	var in model.IdeaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	idea, err := h.svc.UpdateIdea(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, idea)
}

// DeleteIdea 删除创意（仅作者）
// @Summary 删除创意
// @Tags 创意
// @Security BearerAuth
// @Param id path int true "创意ID"
// @Success 204
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/ideas/{id} [delete]
func (h *Handler) DeleteIdea(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteIdea(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RateIdea 评分，返回服务端重算后的创意
// @Summary 评分
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "创意ID"
// @Param request body model.RatingInput true "新颖度与可行性 1..5"
// @Success 200 {object} model.Idea
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response "不能给自己的创意评分"
// @Failure 409 {object} response.Response "已经评过分"
// @Router /api/ideas/{id}/rate [post]
func (h *Handler) RateIdea(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	var in model.RatingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	idea, err := h.svc.RateIdea(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, idea)
}

// HasRated 当前用户是否已评分
// @Summary 是否已评分
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "创意ID"
// @Success 200 {boolean} bool
// @Router /api/ideas/{id}/has-rated [get]
func (h *Handler) HasRated(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	rated, err := h.svc.HasRated(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rated)
}

// ListComments 评论列表（按到达顺序）
// @Summary 评论列表
// @Tags 评论
// @Produce json
// @Param id path int true "创意ID"
// @Success 200 {array} model.Comment
// @Router /api/ideas/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "创意ID"
// @Param request body model.CommentInput true "评论内容"
// @Success 201 {object} model.Comment
// @Failure 400 {object} response.Response
// @Router /api/ideas/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	var in model.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), middleware.UserID(c), id, in.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}
