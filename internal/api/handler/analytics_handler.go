package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/pkg/response"
)

// PostingAnalytics 职位统计，非所有者与不存在一律 404
// @Summary 职位统计
// @Tags 统计
// @Produce json
// @Param id path int true "职位ID"
// @Success 200 {object} response.Response{data=service.PostingAnalytics}
// @Failure 404 {object} response.Response
// @Router /api/v1/postings/{id}/analytics [get]
func (h *Handler) PostingAnalytics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	a, err := h.analytics.GetPostingAnalytics(c.Request.Context(), id, uid)
	if errors.Is(err, service.ErrForbidden) {
		err = service.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, a)
}

// Dashboard 当前用户的职位概览
// @Summary 用户仪表盘
// @Tags 统计
// @Produce json
// @Success 200 {object} response.Response{data=service.UserPostingStats}
// @Router /api/v1/me/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	stats, err := h.analytics.GetUserPostingStats(c.Request.Context(), uid)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}
