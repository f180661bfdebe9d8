package api

import (
	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	usecase     domain.PermissionUsecase
	middlewares middleware.Middlewares
}

func NewPermissionHandler(usecase domain.PermissionUsecase, middlewares middleware.Middlewares) *PermissionHandler {
	return &PermissionHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *PermissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	permissions := rg.Group("/permissions")
	permissions.Use(h.middlewares.Authenticator())
	permissions.Use(h.middlewares.APIRateLimit())
	permissions.Use(h.middlewares.RequirePermissions(domain.PermissionManagePermissions))

	permissions.GET("", h.List)
	permissions.GET("/:id", h.Get)
	permissions.POST("", h.Create)
	permissions.PUT("/:id", h.Update)
	permissions.DELETE("/:id", h.Delete)
	permissions.POST("/bulk/delete", h.BulkDelete)
}

func (h *PermissionHandler) List(c *gin.Context) {
	var query domain.ListQuery
	if err := validator.BindQuery(c, &query); err != nil {
		common.ResponseError(c, err)
		return
	}
	page, err := h.usecase.ListPermissions(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, page, "Permissions retrieved successfully")
}

func (h *PermissionHandler) Get(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	permission, err := h.usecase.GetPermissionDetails(c.Request.Context(), id)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, permission, "Permission retrieved successfully")
}

func (h *PermissionHandler) Create(c *gin.Context) {
	var req domain.PermissionCreateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	permissions, err := h.usecase.CreatePermission(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, permissions, "Permission created successfully.")
}

func (h *PermissionHandler) Update(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	var req domain.PermissionUpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	permission, err := h.usecase.UpdatePermission(c.Request.Context(), id, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, permission, "Permission updated successfully.")
}

func (h *PermissionHandler) Delete(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, domain.BulkIDs{id})
}

func (h *PermissionHandler) BulkDelete(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, ids)
}

func (h *PermissionHandler) deleteIDs(c *gin.Context, ids domain.BulkIDs) {
	result, err := h.usecase.DeletePermissions(c.Request.Context(), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityPermission, domain.BulkActionDelete, result)
}
