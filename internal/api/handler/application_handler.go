package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/pkg/response"
)

type reviewRequest struct {
	Status        string  `json:"status" binding:"required,appstatus"`
	ReviewerNotes *string `json:"reviewer_notes" binding:"omitempty,max=5000"`
}

// GetApplication 申请详情，申请人或职位所有者可见
// @Summary 申请详情
// @Tags 申请
// @Produce json
// @Param id path int true "申请ID"
// @Success 200 {object} response.Response{data=repository.ApplicationDetails}
// @Failure 404 {object} response.Response
// @Router /api/v1/applications/{id} [get]
func (h *Handler) GetApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	d, err := h.apps.GetApplicationDetails(c.Request.Context(), id, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, d)
}

// ReviewApplication 职位所有者审核申请
// @Summary 审核申请
// @Tags 申请
// @Accept json
// @Produce json
// @Param id path int true "申请ID"
// @Param request body reviewRequest true "审核结果"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/applications/{id}/review [post]
func (h *Handler) ReviewApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid status")
		return
	}
	if err := h.apps.Review(c.Request.Context(), id, uid, req.Status, req.ReviewerNotes); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "status": req.Status})
}

// MyApplications 当前用户的申请
// @Summary 我的申请
// @Tags 申请
// @Produce json
// @Success 200 {object} response.Response{data=[]repository.UserApplication}
// @Router /api/v1/me/applications [get]
func (h *Handler) MyApplications(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	list, err := h.apps.ListByUser(c.Request.Context(), uid)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}
