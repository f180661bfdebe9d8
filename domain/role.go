package domain

import (
	"context"
	"net/http"
)

/****************************
*        Role errors        *
****************************/
var (
	ErrRoleNotFound = &DetailedError{
		IDField:         "ROLE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Role not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrRoleCreationFailed = &DetailedError{
		IDField:         "ROLE_CREATION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create role",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrRoleUpdateFailed = &DetailedError{
		IDField:         "ROLE_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update role",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrRoleDeletionFailed = &DetailedError{
		IDField:         "ROLE_DELETION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to delete roles",
		StatusCodeField: http.StatusInternalServerError,
	}
)

const MessageNameTaken = "The name has already been taken."

/***************************************
*       Role entities and types       *
***************************************/
type Role struct {
	SQLModel
	Name        string        `json:"name" gorm:"type:varchar(125);not null;uniqueIndex:idx_roles_name_guard"`
	Guard       string        `json:"guard" gorm:"column:guard_name;type:varchar(125);not null;uniqueIndex:idx_roles_name_guard"`
	Permissions []*Permission `json:"permissions,omitempty" gorm:"many2many:role_has_permissions;"`
}

func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

type RoleFilter struct {
	ID         *uint    `json:"id" form:"id"`
	IDIn       []uint   `json:"id_in" form:"id_in"`
	Name       *string  `json:"name" form:"name"`
	NameIn     []string `json:"name_in" form:"name_in"`
	Guard      *string  `json:"guard" form:"guard"`
	GuardIn    []string `json:"guard_in" form:"guard_in"`
	SearchTerm *string  `json:"search_term" form:"search_term"`
}

// MergedRole is the cross guard view of every role row sharing a name.
type MergedRole struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Guards      []string      `json:"guards"`
	Permissions []*Permission `json:"permissions"`
	CreatedAt   int64         `json:"created_at"`
	UpdatedAt   int64         `json:"updated_at"`
}

/**********************************************
*       Role usecase interfaces and types     *
**********************************************/
type RoleUsecase interface {
	ListRoles(ctx context.Context, query *ListQuery) (*Page[*MergedRole], error)
	GetRoleDetails(ctx context.Context, id uint) (*MergedRole, error)
	CreateRole(ctx context.Context, req *RoleCreateRequest) (*Role, error)
	UpdateRole(ctx context.Context, id uint, req *RoleUpdateRequest) (*Role, error)
	DeleteRoles(ctx context.Context, ids BulkIDs) (*BulkResult, error)
}

// PermissionsByGuard maps a guard name to permission names within that guard.
type PermissionsByGuard map[string][]string

type RoleCreateRequest struct {
	Name        string             `json:"name" binding:"required,max=125"`
	Permissions PermissionsByGuard `json:"permissions" binding:"omitempty,dive,keys,guard,endkeys"`
}

// RoleUpdateRequest leaves permissions untouched when Permissions is nil.
type RoleUpdateRequest struct {
	Name        *string            `json:"name" binding:"omitempty,min=1,max=125"`
	Permissions PermissionsByGuard `json:"permissions" binding:"omitempty,dive,keys,guard,endkeys"`
}

/**********************************************
*       Role repository interface             *
**********************************************/

// RoleRepository is shared by the role usecase and the seeder. WithTx hands
// fn a repository bound to a single transaction.
type RoleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo RoleRepository) error) error
	Create(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, id uint, option *FindOneOption) (*Role, error)
	FindMany(ctx context.Context, filter *RoleFilter, option *FindManyOption) ([]*Role, error)
	Count(ctx context.Context, filter *RoleFilter) (int64, error)
	Rename(ctx context.Context, ids []uint, name string) error
	FindPermissionsByNames(ctx context.Context, guard string, names []string) ([]*Permission, error)
	ReplacePermissions(ctx context.Context, role *Role, permissions []*Permission) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
