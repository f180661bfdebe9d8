package api

import (
	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	usecase     domain.UserUsecase
	middlewares middleware.Middlewares
}

func NewUserHandler(usecase domain.UserUsecase, middlewares middleware.Middlewares) *UserHandler {
	return &UserHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(h.middlewares.Authenticator())
	users.Use(h.middlewares.APIRateLimit())
	users.Use(h.middlewares.RequirePermissions(domain.PermissionManageUsers))

	users.GET("", h.List)
	users.GET("/:id", h.Get)
	users.POST("", h.Create)
	users.PUT("/:id", h.Update)
	users.DELETE("/:id", h.Delete)
	users.POST("/:id/restore", h.Restore)
	users.DELETE("/:id/force", h.ForceDelete)
	users.POST("/:id/avatar", h.UpdateAvatar)

	bulk := users.Group("/bulk")
	{
		bulk.POST("/delete", h.BulkDelete)
		bulk.POST("/restore", h.BulkRestore)
		bulk.POST("/force-delete", h.BulkForceDelete)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	var query domain.ListQuery
	if err := validator.BindQuery(c, &query); err != nil {
		common.ResponseError(c, err)
		return
	}
	page, err := h.usecase.ListUsers(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, page, "Users retrieved successfully")
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	user, err := h.usecase.GetUser(c.Request.Context(), id)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "User retrieved successfully")
}

func (h *UserHandler) Create(c *gin.Context) {
	var req domain.UserCreateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	user, err := h.usecase.CreateUser(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, user, "User created successfully.")
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	var req domain.UserUpdateRequest
	if err := validator.Bind(c, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	user, err := h.usecase.UpdateUser(c.Request.Context(), common.GetUserFromCtx(c), id, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "User updated successfully.")
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	if err := h.usecase.DeleteUser(c.Request.Context(), common.GetUserFromCtx(c), id); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "User deleted successfully.")
}

func (h *UserHandler) Restore(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	if err := h.usecase.RestoreUser(c.Request.Context(), id); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "User restored successfully.")
}

func (h *UserHandler) ForceDelete(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	if actor := common.GetUserFromCtx(c); actor != nil && actor.ID == id {
		common.ResponseError(c, domain.ErrSelfAction)
		return
	}
	if err := h.usecase.ForceDeleteUser(c.Request.Context(), id); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "User permanently deleted successfully.")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		common.ResponseError(c, domain.ErrMediaFileRequired)
		return
	}
	file, err := domain.NewUploadFile(fh)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	user, err := h.usecase.UpdateAvatar(c.Request.Context(), id, file)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "Avatar updated successfully.")
}

func (h *UserHandler) BulkDelete(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	result, err := h.usecase.BulkDeleteUsers(c.Request.Context(), common.GetUserFromCtx(c), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityUser, domain.BulkActionDelete, result)
}

func (h *UserHandler) BulkRestore(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	result, err := h.usecase.BulkRestoreUsers(c.Request.Context(), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityUser, domain.BulkActionRestore, result)
}

func (h *UserHandler) BulkForceDelete(c *gin.Context) {
	ids, err := validator.BindBulk(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	result, err := h.usecase.BulkForceDeleteUsers(c.Request.Context(), common.GetUserFromCtx(c), ids)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseBulk(c, domain.BulkEntityUser, domain.BulkActionForceDelete, result)
}
