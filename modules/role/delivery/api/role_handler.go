package api

import (
	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	usecase     domain.RoleUsecase
	middlewares middleware.Middlewares
}

func NewRoleHandler(usecase domain.RoleUsecase, middlewares middleware.Middlewares) *RoleHandler {
	return &RoleHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	roles := rg.Group("/roles")
	roles.Use(h.middlewares.Authenticator())
	roles.Use(h.middlewares.APIRateLimit())
	roles.Use(h.middlewares.RequirePermissions(domain.PermissionManageRoles))

	roles.GET("", h.List)
	roles.GET("/:id", h.Get)
	roles.POST("", h.Create)
	roles.PUT("/:id", h.Update)
	roles.DELETE("/:id", h.Delete)
	roles.POST("/bulk/delete", h.BulkDelete)
}

func (h *RoleHandler) List(c *gin.Context) {
	var query domain.ListQuery
	if err := validator.BindQuery(c, &query); err != nil {
		common.ResponseError(c, err)
		return
	}
	page, err := h.usecase.ListRoles(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, page, "Roles retrieved successfully")
}

func (h *RoleHandler) Get(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	role, err := h.usecase.GetRoleDetails(c.Request.Context(), id)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, role, "Role retrieved successfully")
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req domain.RoleCreateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	role, err := h.usecase.CreateRole(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, role, "Role created successfully.")
}

func (h *RoleHandler) Update(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	var req domain.RoleUpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	role, err := h.usecase.UpdateRole(c.Request.Context(), id, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, role, "Role updated successfully.")
}

func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, domain.BulkIDs{id})
}

func (h *RoleHandler) BulkDelete(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	h.deleteIDs(c, ids)
}

func (h *RoleHandler) deleteIDs(c *gin.Context, ids domain.BulkIDs) {
	result, err := h.usecase.DeleteRoles(c.Request.Context(), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityRole, domain.BulkActionDelete, result)
}
