package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/pkg/response"
)

type listPostingsQuery struct {
	Category string `form:"category" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type createPostingRequest struct {
	Title           string `json:"title" binding:"required,max=255"`
	PostDescription string `json:"post_description" binding:"required"`
	Category        string `json:"category" binding:"max=100"`
}

type updatePostingRequest struct {
	Title           *string `json:"title" binding:"omitempty,max=255"`
	PostDescription *string `json:"post_description"`
	Category        *string `json:"category" binding:"omitempty,max=100"`
	Status          *string `json:"status" binding:"omitempty,postingstatus"`
}

type applyRequest struct {
	Message     *string `json:"message" binding:"omitempty,max=2000"`
	CoverLetter *string `json:"cover_letter" binding:"omitempty,max=10000"`
}

// ListPostings 公开职位列表
// @Summary 职位列表
// @Tags 职位
// @Produce json
// @Param category query string false "分类"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/postings [get]
func (h *Handler) ListPostings(c *gin.Context) {
	var q listPostingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}
	list, err := h.postings.ListPublic(c.Request.Context(), q.Category, q.Page, q.PageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": q.Page, "page_size": q.PageSize, "list": list})
}

// CreatePosting 发布职位
// @Summary 发布职位
// @Tags 职位
// @Accept json
// @Produce json
// @Param request body createPostingRequest true "职位信息"
// @Success 201 {object} response.Response{data=model.Posting}
// @Failure 401 {object} response.Response
// @Router /api/v1/postings [post]
func (h *Handler) CreatePosting(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	var req createPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.postings.Create(c.Request.Context(), uid, service.PostingInput{
		Title:           req.Title,
		PostDescription: req.PostDescription,
		Category:        req.Category,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePosting 修改职位，仅所有者
// @Summary 修改职位
// @Tags 职位
// @Accept json
// @Produce json
// @Param id path int true "职位ID"
// @Param request body updatePostingRequest true "更新字段"
// @Success 200 {object} response.Response{data=model.Posting}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/postings/{id} [put]
func (h *Handler) UpdatePosting(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	var req updatePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.postings.Update(c.Request.Context(), id, uid, service.PostingUpdate{
		Title:           req.Title,
		PostDescription: req.PostDescription,
		Category:        req.Category,
		Status:          req.Status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, p)
}

// DeletePosting 删除职位及其浏览、统计、申请记录
// @Summary 删除职位
// @Tags 职位
// @Produce json
// @Param id path int true "职位ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/postings/{id} [delete]
func (h *Handler) DeletePosting(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	if err := h.postings.Delete(c.Request.Context(), id, uid); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

// GetPosting 职位详情，同时记录一次浏览
// @Summary 职位详情
// @Tags 职位
// @Produce json
// @Param id path string true "职位ID或hash"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/postings/{id} [get]
func (h *Handler) GetPosting(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.postings.GetByRef(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	uid, authed := middleware.UserID(c)
	isOwner := authed && uid == p.UserID

	// 非 active 职位只对所有者可见
	active := p.Status == model.PostingStatusActive
	if !active && !isOwner {
		h.fail(c, service.ErrNotFound)
		return
	}

	in := service.ViewInput{PostingID: p.ID}
	if authed {
		in.UserID = &uid
	}
	if vid := middleware.VisitorID(c); vid != "" {
		in.SessionID = &vid
	}
	if ip := c.ClientIP(); ip != "" {
		in.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		in.UserAgent = &ua
	}
	unique, err := h.views.TrackView(ctx, in)
	if err != nil {
		h.log.Warn("track view failed", zap.Int64("posting_id", p.ID), zap.Error(err))
	} else {
		p.Views++
	}

	// 统计在记录浏览之后读取，返回的 views 已包含本次访问
	var body interface{} = p
	if active {
		pub, err := h.analytics.GetPostingWithPublicStats(ctx, p.ID)
		switch {
		case err == nil:
			body = pub
		case !(errors.Is(err, service.ErrNotFound) && isOwner):
			h.fail(c, err)
			return
		}
	}

	hasApplied := false
	if authed && !isOwner {
		hasApplied, err = h.analytics.CheckUserApplicationExists(ctx, uid, p.ID)
		if err != nil {
			response.InternalError(c, err)
			return
		}
	}

	response.Success(c, gin.H{
		"posting":     body,
		"has_applied": hasApplied,
		"is_owner":    isOwner,
		"unique_view": unique,
	})
}

// ApplyToPosting 申请职位
// @Summary 申请职位
// @Tags 申请
// @Accept json
// @Produce json
// @Param id path int true "职位ID"
// @Param request body applyRequest false "申请内容"
// @Success 201 {object} response.Response{data=service.ApplyResult}
// @Failure 404 {object} response.Response{data=service.ApplyResult}
// @Failure 409 {object} response.Response{data=service.ApplyResult}
// @Router /api/v1/postings/{id}/apply [post]
func (h *Handler) ApplyToPosting(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	var req applyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	res, err := h.apps.Apply(c.Request.Context(), uid, id, service.ApplyInput{
		Message:     req.Message,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	switch res.Code() {
	case "":
		response.Created(c, res)
	case service.ApplyPostingNotFound:
		response.WithStatus(c, http.StatusNotFound, res.Code(), res)
	default:
		response.WithStatus(c, http.StatusConflict, res.Code(), res)
	}
}

// ListPostingApplications 职位的申请列表，仅所有者
// @Summary 职位申请列表
// @Tags 申请
// @Produce json
// @Param id path int true "职位ID"
// @Success 200 {object} response.Response{data=[]repository.PostingApplicant}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/postings/{id}/applications [get]
func (h *Handler) ListPostingApplications(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid, _ := middleware.UserID(c)
	list, err := h.apps.ListByPosting(c.Request.Context(), id, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// MyPostings 当前用户发布的职位，包含非 active
// @Summary 我的职位
// @Tags 职位
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Posting}
// @Router /api/v1/me/postings [get]
func (h *Handler) MyPostings(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	list, err := h.postings.ListByUser(c.Request.Context(), uid)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}
