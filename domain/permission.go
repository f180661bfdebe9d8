package domain

import (
	"context"
	"net/http"
)

/****************************
*     Permission errors     *
****************************/
var (
	ErrPermissionNotFound = &DetailedError{
		IDField:         "PERMISSION_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Permission not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrPermissionCreationFailed = &DetailedError{
		IDField:         "PERMISSION_CREATION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create permission",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrPermissionUpdateFailed = &DetailedError{
		IDField:         "PERMISSION_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update permission",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrPermissionDeletionFailed = &DetailedError{
		IDField:         "PERMISSION_DELETION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to delete permissions",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/*********************************************
*     Permission entities and types          *
*********************************************/
type Permission struct {
	SQLModel
	Name  string  `json:"name" gorm:"type:varchar(125);not null;uniqueIndex:idx_permissions_name_guard"`
	Guard string  `json:"guard" gorm:"column:guard_name;type:varchar(125);not null;uniqueIndex:idx_permissions_name_guard"`
	Roles []*Role `json:"roles,omitempty" gorm:"many2many:role_has_permissions;"`
}

type PermissionFilter struct {
	ID         *uint    `json:"id" form:"id"`
	IDIn       []uint   `json:"id_in" form:"id_in"`
	Name       *string  `json:"name" form:"name"`
	NameIn     []string `json:"name_in" form:"name_in"`
	Guard      *string  `json:"guard" form:"guard"`
	GuardIn    []string `json:"guard_in" form:"guard_in"`
	SearchTerm *string  `json:"search_term" form:"search_term"`
}

// MergedPermission is the cross guard view of every permission row sharing a name.
type MergedPermission struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Guards    []string `json:"guards"`
	Roles     []*Role  `json:"roles"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

/*************************************************
*     Permission usecase interfaces and types    *
*************************************************/
type PermissionUsecase interface {
	ListPermissions(ctx context.Context, query *ListQuery) (*Page[*MergedPermission], error)
	GetPermissionDetails(ctx context.Context, id uint) (*MergedPermission, error)
	CreatePermission(ctx context.Context, req *PermissionCreateRequest) ([]*Permission, error)
	UpdatePermission(ctx context.Context, id uint, req *PermissionUpdateRequest) (*Permission, error)
	DeletePermissions(ctx context.Context, ids BulkIDs) (*BulkResult, error)
}

type PermissionCreateRequest struct {
	Name   string   `json:"name" binding:"required,max=125"`
	Guards []string `json:"guards" binding:"omitempty,dive,guard"`
	Roles  []string `json:"roles" binding:"omitempty,dive,required"`
}

// PermissionUpdateRequest replaces the role set of every row when Roles is
// nil or empty, so omitting roles clears them.
type PermissionUpdateRequest struct {
	Name  *string  `json:"name" binding:"omitempty,min=1,max=125"`
	Roles []string `json:"roles" binding:"omitempty,dive,required"`
}

/*************************************************
*       Permission repository interface          *
*************************************************/

// PermissionRepository is shared by the permission usecase and the seeder.
// WithTx hands fn a repository bound to a single transaction.
type PermissionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo PermissionRepository) error) error
	CreateMany(ctx context.Context, permissions []*Permission) error
	FindByID(ctx context.Context, id uint, option *FindOneOption) (*Permission, error)
	FindMany(ctx context.Context, filter *PermissionFilter, option *FindManyOption) ([]*Permission, error)
	Count(ctx context.Context, filter *PermissionFilter) (int64, error)
	Rename(ctx context.Context, ids []uint, name string) error
	FindRolesByNames(ctx context.Context, guard string, names []string) ([]*Role, error)
	ReplaceRoles(ctx context.Context, permission *Permission, roles []*Role) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
