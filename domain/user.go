package domain

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

/****************************
*        User errors        *
****************************/
var (
	ErrUserNotFound = &DetailedError{
		IDField:         "USER_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "User not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrUserCreationFailed = &DetailedError{
		IDField:         "USER_CREATION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create user",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrUserUpdateFailed = &DetailedError{
		IDField:         "USER_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update user",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrUserDeletionFailed = &DetailedError{
		IDField:         "USER_DELETION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to delete user",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrPasswordHashFailed = &DetailedError{
		IDField:         "PASSWORD_HASH_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to hash password",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrSelfAction = &DetailedError{
		IDField:         "SELF_ACTION_FORBIDDEN",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "You cannot perform this action on your own account.",
		StatusCodeField: http.StatusForbidden,
	}
	ErrUserNotTrashed = &DetailedError{
		IDField:         "USER_NOT_TRASHED",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "The user must be deleted before it can be permanently deleted.",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
)

const MessageEmailTaken = "The email has already been taken."

/***************************************
*       User entities and types       *
***************************************/
type User struct {
	SQLModel
	Name       string         `json:"name" gorm:"type:varchar(255);not null"`
	Email      string         `json:"email" gorm:"type:varchar(255);not null;index"`
	Password   string         `json:"-" gorm:"type:varchar(255);not null"`
	Provider   *string        `json:"provider,omitempty" gorm:"type:varchar(50)"`
	ProviderID *string        `json:"provider_id,omitempty" gorm:"type:varchar(255)"`
	Roles      []*Role        `json:"roles,omitempty" gorm:"many2many:user_roles;"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	AvatarURL  string         `json:"avatar_url,omitempty" gorm:"-"`
}

func (u *User) IsTrashed() bool {
	return u.DeletedAt.Valid
}

// PermissionNames returns the distinct, lower cased permission names granted
// through the user's roles.
func (u *User) PermissionNames() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, role := range u.Roles {
		if role == nil {
			continue
		}
		for _, p := range role.Permissions {
			if p == nil {
				continue
			}
			n := strings.ToLower(strings.TrimSpace(p.Name))
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	return names
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

type TrashFilter string

const (
	TrashFilterWithout TrashFilter = "withoutTrash"
	TrashFilterOnly    TrashFilter = "onlyTrash"
	TrashFilterWith    TrashFilter = "withTrash"
	TrashFilterAll     TrashFilter = "all"
)

// ParseTrashFilter maps unknown values to TrashFilterWithout.
func ParseTrashFilter(s string) TrashFilter {
	switch TrashFilter(s) {
	case TrashFilterOnly, TrashFilterWith, TrashFilterAll:
		return TrashFilter(s)
	default:
		return TrashFilterWithout
	}
}

type UserFilter struct {
	ID         *uint       `json:"id" form:"id"`
	IDNe       *uint       `json:"id_ne" form:"id_ne"`
	IDIn       []uint      `json:"id_in" form:"id_in"`
	Email      *string     `json:"email" form:"email"`
	SearchTerm *string     `json:"search_term" form:"search_term"`
	Trash      TrashFilter `json:"trash" form:"trash"`
}

/**********************************************
*       User usecase interfaces and types      *
**********************************************/
type UserUsecase interface {
	ListUsers(ctx context.Context, query *ListQuery) (*Page[*User], error)
	GetUser(ctx context.Context, id uint) (*User, error)
	CreateUser(ctx context.Context, req *UserCreateRequest) (*User, error)
	UpdateUser(ctx context.Context, actor *User, id uint, req *UserUpdateRequest) (*User, error)
	DeleteUser(ctx context.Context, actor *User, id uint) error
	RestoreUser(ctx context.Context, id uint) error
	ForceDeleteUser(ctx context.Context, id uint) error
	BulkDeleteUsers(ctx context.Context, actor *User, ids BulkIDs) (*BulkResult, error)
	BulkRestoreUsers(ctx context.Context, ids BulkIDs) (*BulkResult, error)
	BulkForceDeleteUsers(ctx context.Context, actor *User, ids BulkIDs) (*BulkResult, error)
	UpdateAvatar(ctx context.Context, id uint, file *UploadFile) (*User, error)
}

type UserCreateRequest struct {
	Name                 string   `json:"name" binding:"required,max=255"`
	Email                string   `json:"email" binding:"required,email,max=255"`
	Password             string   `json:"password" binding:"required,min=8"`
	PasswordConfirmation string   `json:"password_confirmation" binding:"required,eqfield=Password"`
	Roles                []string `json:"roles" binding:"omitempty,dive,required"`
}

// UserUpdateRequest leaves roles untouched when Roles is nil.
type UserUpdateRequest struct {
	Name                 *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Email                *string  `json:"email" binding:"omitempty,email,max=255"`
	Password             *string  `json:"password" binding:"omitempty,min=8"`
	PasswordConfirmation *string  `json:"password_confirmation" binding:"omitempty"`
	Roles                []string `json:"roles" binding:"omitempty,dive,required"`
}

/**********************************************
*       User repository interface             *
**********************************************/

// UserRepository reads and writes users. Filters default to non-trashed rows,
// see UserFilter.Trash.
type UserRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
	Create(ctx context.Context, user *User) error
	FindOne(ctx context.Context, filter *UserFilter, option *FindOneOption) (*User, error)
	FindMany(ctx context.Context, filter *UserFilter, option *FindManyOption) ([]*User, error)
	FindPage(ctx context.Context, filter *UserFilter, option *FindPageOption) ([]*User, *Pagination, error)
	Count(ctx context.Context, filter *UserFilter) (int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	FindRolesByNames(ctx context.Context, guard string, names []string) ([]*Role, error)
	ReplaceRoles(ctx context.Context, user *User, roles []*Role) error
	SoftDelete(ctx context.Context, ids []uint) (int64, error)
	Restore(ctx context.Context, ids []uint) (int64, error)
	ForceDelete(ctx context.Context, ids []uint) (int64, error)
}
