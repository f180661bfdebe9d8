package api

import (
	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	usecase     domain.AuthUsecase
	access      domain.AccessUsecase
	middlewares middleware.Middlewares
}

func NewAuthHandler(
	usecase domain.AuthUsecase,
	access domain.AccessUsecase,
	middlewares middleware.Middlewares,
) *AuthHandler {
	return &AuthHandler{
		usecase:     usecase,
		access:      access,
		middlewares: middlewares,
	}
}

// MeResponse is the authenticated user with the permission names it holds.
type MeResponse struct {
	User        *domain.User `json:"user"`
	Permissions []string     `json:"permissions"`
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")

	// Public routes
	auth.POST("/login", h.middlewares.LoginRateLimit(), h.Login)
	auth.POST("/refresh-token", h.middlewares.LoginRateLimit(), h.RefreshToken)

	protected := auth.Group("")
	protected.Use(h.middlewares.Authenticator())
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.PopulateClientInfo(c, &req.IPAddress, &req.UserAgent)

	resp, err := h.usecase.Login(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Login successful")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := common.GetSessionIDFromCtx(c)
	if sessionID == "" {
		common.ResponseError(c, domain.ErrUnauthorized)
		return
	}

	if err := h.usecase.Logout(c.Request.Context(), sessionID); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Logout successful")
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.PopulateClientInfo(c, &req.IPAddress, &req.UserAgent)

	resp, err := h.usecase.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Token refreshed")
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := common.GetUserFromCtx(c)
	permissions, err := h.access.PermissionsOf(c.Request.Context(), user.ID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	if permissions == nil {
		permissions = []string{}
	}
	common.ResponseOK(c, MeResponse{User: user, Permissions: permissions}, "Current user")
}
