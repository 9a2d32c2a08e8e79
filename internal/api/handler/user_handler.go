package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/pkg/response"
)

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Surname  *string `json:"surname" binding:"omitempty,max=100"`
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
}

// GetUser 用户公开资料
// @Summary 查询用户
// @Tags 用户
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, u)
}

// UpdateMe 更新自己的资料
// @Summary 更新当前用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body updateUserRequest true "更新字段"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.users.Update(c.Request.Context(), uid, service.UserUpdate{
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, u)
}

// DeleteMe 删除自己的账号并注销
// @Summary 删除当前用户
// @Tags 用户
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/users/me [delete]
func (h *Handler) DeleteMe(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	if err := h.users.Delete(c.Request.Context(), uid); err != nil {
		h.fail(c, err)
		return
	}
	if s := middleware.CurrentSession(c); s != nil {
		if _, err := h.auth.Logout(c.Request.Context(), s.Token); err != nil {
			_ = c.Error(err)
		}
	}
	h.clearSessionCookie(c)
	response.Success(c, nil)
}
