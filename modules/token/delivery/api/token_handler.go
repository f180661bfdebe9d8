package api

import (
	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	usecase     domain.TokenUsecase
	middlewares middleware.Middlewares
}

func NewTokenHandler(usecase domain.TokenUsecase, middlewares middleware.Middlewares) *TokenHandler {
	return &TokenHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *TokenHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tokens := rg.Group("/tokens")
	tokens.Use(h.middlewares.Authenticator())
	tokens.Use(h.middlewares.APIRateLimit())

	view := h.middlewares.RequirePermissions(domain.PermissionViewTokens)
	create := h.middlewares.RequirePermissions(domain.PermissionCreateTokens)
	edit := h.middlewares.RequirePermissions(domain.PermissionEditTokens)
	remove := h.middlewares.RequirePermissions(domain.PermissionDeleteTokens)

	tokens.GET("", view, h.List)
	tokens.GET("/:id", view, h.Get)
	tokens.POST("", create, h.Create)
	tokens.PUT("/:id", edit, h.Update)
	tokens.POST("/:id/image", edit, h.UploadImage)
	tokens.DELETE("/:id", remove, h.Delete)
	tokens.POST("/bulk/delete", remove, h.BulkDelete)
}

func (h *TokenHandler) List(c *gin.Context) {
	var query domain.TokenListQuery
	if err := validator.BindQuery(c, &query); err != nil {
		common.ResponseError(c, err)
		return
	}
	page, err := h.usecase.ListTokens(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, page, "Tokens retrieved successfully")
}

func (h *TokenHandler) Get(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	token, err := h.usecase.GetToken(c.Request.Context(), id)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, token, "Token retrieved successfully")
}

func (h *TokenHandler) Create(c *gin.Context) {
	var req domain.TokenRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	token, err := h.usecase.CreateToken(c.Request.Context(), common.GetUserFromCtx(c), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, token, "Token created successfully.")
}

func (h *TokenHandler) Update(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	var req domain.TokenRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	token, err := h.usecase.UpdateToken(c.Request.Context(), id, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, token, "Token updated successfully.")
}

func (h *TokenHandler) UploadImage(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		common.ResponseError(c, domain.ErrMediaFileRequired)
		return
	}
	file, err := domain.NewUploadFile(fh)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	token, err := h.usecase.UploadImage(c.Request.Context(), id, file)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, token, "Token image uploaded successfully.")
}

func (h *TokenHandler) Delete(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, domain.BulkIDs{id})
}

func (h *TokenHandler) BulkDelete(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, ids)
}

func (h *TokenHandler) deleteIDs(c *gin.Context, ids domain.BulkIDs) {
	result, err := h.usecase.DeleteTokens(c.Request.Context(), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityToken, domain.BulkActionDelete, result)
}
