package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	sqlHandler *database.SQLHandler[domain.User, domain.UserFilter]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	sqlHandler := database.NewSQLHandler[domain.User](db, applyFilter)
	return &UserRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.UserFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	switch filter.Trash {
	case domain.TrashFilterOnly:
		qb = qb.Unscoped().Where("users.deleted_at IS NOT NULL")
	case domain.TrashFilterWith, domain.TrashFilterAll:
		qb = qb.Unscoped()
	}

	if filter.ID != nil {
		qb = qb.Where("users.id = ?", *filter.ID)
	}
	if filter.IDNe != nil {
		qb = qb.Where("users.id != ?", *filter.IDNe)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("users.id IN ?", filter.IDIn)
	}
	if filter.Email != nil {
		qb = qb.Where("LOWER(users.email) = LOWER(?)", *filter.Email)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, "users.name", "users.email")
	}

	return qb
}

func (r *UserRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo domain.UserRepository) error) error {
	return r.sqlHandler.Transaction(ctx, func(tx *database.SQLHandler[domain.User, domain.UserFilter]) error {
		return fn(ctx, &UserRepository{sqlHandler: tx})
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.sqlHandler.Create(ctx, user, database.WithOmit("Roles"))
}

func (r *UserRepository) FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *UserRepository) FindMany(ctx context.Context, filter *domain.UserFilter, option *domain.FindManyOption) ([]*domain.User, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *UserRepository) FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *UserRepository) Count(ctx context.Context, filter *domain.UserFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}

func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.sqlHandler.UpdateFields(ctx, id, fields)
}

func (r *UserRepository) FindRolesByNames(ctx context.Context, guard string, names []string) ([]*domain.Role, error) {
	return database.FindByGuardAndNames[domain.Role](ctx, r.sqlHandler.DB(), guard, names)
}

func (r *UserRepository) ReplaceRoles(ctx context.Context, user *domain.User, roles []*domain.Role) error {
	return database.ReplaceAssociation(ctx, r.sqlHandler.DB(), user, "Roles", roles)
}

// SoftDelete trashes the non-trashed users among ids.
func (r *UserRepository) SoftDelete(ctx context.Context, ids []uint) (int64, error) {
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}

// Restore clears the delete marker of the trashed users among ids.
func (r *UserRepository) Restore(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.sqlHandler.UpdateManyFields(ctx, &domain.UserFilter{
		IDIn:  ids,
		Trash: domain.TrashFilterOnly,
	}, map[string]any{
		"deleted_at": nil,
	})
}

// ForceDelete physically removes the trashed users among ids together with
// their role assignments. Non-trashed ids are skipped.
func (r *UserRepository) ForceDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	trashed, err := r.sqlHandler.FindMany(ctx, &domain.UserFilter{
		IDIn:  ids,
		Trash: domain.TrashFilterOnly,
	}, nil)
	if err != nil {
		return 0, err
	}
	if len(trashed) == 0 {
		return 0, nil
	}

	trashedIDs := make([]uint, len(trashed))
	for i, u := range trashed {
		trashedIDs[i] = u.ID
	}
	if err := database.DeletePivotRows(ctx, r.sqlHandler.DB(), "user_roles", "user_id", trashedIDs); err != nil {
		return 0, err
	}
	return r.sqlHandler.DeleteByIDs(ctx, trashedIDs, database.WithUnscoped())
}
