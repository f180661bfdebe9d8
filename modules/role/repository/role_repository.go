package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type RoleRepository struct {
	sqlHandler *database.SQLHandler[domain.Role, domain.RoleFilter]
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	sqlHandler := database.NewSQLHandler[domain.Role](db, applyFilter)
	return &RoleRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.RoleFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("roles.id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("roles.id IN ?", filter.IDIn)
	}
	if filter.Name != nil {
		qb = qb.Where("roles.name = ?", *filter.Name)
	}
	if len(filter.NameIn) > 0 {
		qb = qb.Where("roles.name IN ?", filter.NameIn)
	}
	if filter.Guard != nil {
		qb = qb.Where("roles.guard_name = ?", *filter.Guard)
	}
	if len(filter.GuardIn) > 0 {
		qb = qb.Where("roles.guard_name IN ?", filter.GuardIn)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, "roles.name")
	}

	return qb
}

func (r *RoleRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo domain.RoleRepository) error) error {
	return r.sqlHandler.Transaction(ctx, func(tx *database.SQLHandler[domain.Role, domain.RoleFilter]) error {
		return fn(ctx, &RoleRepository{sqlHandler: tx})
	})
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	return r.sqlHandler.Create(ctx, role, database.WithOmit("Permissions"))
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint, option *domain.FindOneOption) (*domain.Role, error) {
	return r.sqlHandler.FindByID(ctx, id, option)
}

func (r *RoleRepository) FindMany(ctx context.Context, filter *domain.RoleFilter, option *domain.FindManyOption) ([]*domain.Role, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *RoleRepository) Count(ctx context.Context, filter *domain.RoleFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}

func (r *RoleRepository) Rename(ctx context.Context, ids []uint, name string) error {
	_, err := r.sqlHandler.UpdateManyFields(ctx, &domain.RoleFilter{IDIn: ids}, map[string]any{
		"name": name,
	})
	return err
}

func (r *RoleRepository) FindPermissionsByNames(ctx context.Context, guard string, names []string) ([]*domain.Permission, error) {
	return database.FindByGuardAndNames[domain.Permission](ctx, r.sqlHandler.DB(), guard, names)
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, role *domain.Role, permissions []*domain.Permission) error {
	return database.ReplaceAssociation(ctx, r.sqlHandler.DB(), role, "Permissions", permissions)
}

// DeleteByIDs removes the roles, their permission grants and their user
// assignments.
func (r *RoleRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	db := r.sqlHandler.DB()
	if err := database.DeletePivotRows(ctx, db, "role_has_permissions", "role_id", ids); err != nil {
		return 0, err
	}
	if err := database.DeletePivotRows(ctx, db, "user_roles", "role_id", ids); err != nil {
		return 0, err
	}
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}
