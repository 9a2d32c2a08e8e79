package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/pkg/response"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Surname  string `json:"surname" binding:"required,max=100"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72,strongpassword"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
// @Summary 注册新用户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, u)
}

// Login 登录，成功后写入会话 cookie
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, token)
	response.Success(c, u)
}

// Logout 注销当前会话
// @Summary 注销
// @Tags 认证
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.SessionCookie)
	removed, err := h.auth.Logout(c.Request.Context(), token)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	h.clearSessionCookie(c)
	response.Success(c, gin.H{"logged_out": removed})
}

// AuthStatus 当前登录状态
// @Summary 登录状态
// @Tags 认证
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/auth/status [get]
func (h *Handler) AuthStatus(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	data := gin.H{"authenticated": ok}
	if ok {
		data["user_id"] = uid
		if s := middleware.CurrentSession(c); s != nil {
			data["expires_at"] = s.ExpiresAt
		}
	}
	response.Success(c, data)
}
