package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type PermissionRepository struct {
	sqlHandler *database.SQLHandler[domain.Permission, domain.PermissionFilter]
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	sqlHandler := database.NewSQLHandler[domain.Permission](db, applyFilter)
	return &PermissionRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.PermissionFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("permissions.id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("permissions.id IN ?", filter.IDIn)
	}
	if filter.Name != nil {
		qb = qb.Where("permissions.name = ?", *filter.Name)
	}
	if len(filter.NameIn) > 0 {
		qb = qb.Where("permissions.name IN ?", filter.NameIn)
	}
	if filter.Guard != nil {
		qb = qb.Where("permissions.guard_name = ?", *filter.Guard)
	}
	if len(filter.GuardIn) > 0 {
		qb = qb.Where("permissions.guard_name IN ?", filter.GuardIn)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, "permissions.name")
	}

	return qb
}

func (r *PermissionRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo domain.PermissionRepository) error) error {
	return r.sqlHandler.Transaction(ctx, func(tx *database.SQLHandler[domain.Permission, domain.PermissionFilter]) error {
		return fn(ctx, &PermissionRepository{sqlHandler: tx})
	})
}

func (r *PermissionRepository) CreateMany(ctx context.Context, permissions []*domain.Permission) error {
	return r.sqlHandler.CreateMany(ctx, permissions, database.WithOmit("Roles"))
}

func (r *PermissionRepository) FindByID(ctx context.Context, id uint, option *domain.FindOneOption) (*domain.Permission, error) {
	return r.sqlHandler.FindByID(ctx, id, option)
}

func (r *PermissionRepository) FindMany(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindManyOption) ([]*domain.Permission, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *PermissionRepository) Count(ctx context.Context, filter *domain.PermissionFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}

func (r *PermissionRepository) Rename(ctx context.Context, ids []uint, name string) error {
	_, err := r.sqlHandler.UpdateManyFields(ctx, &domain.PermissionFilter{IDIn: ids}, map[string]any{
		"name": name,
	})
	return err
}

func (r *PermissionRepository) FindRolesByNames(ctx context.Context, guard string, names []string) ([]*domain.Role, error) {
	return database.FindByGuardAndNames[domain.Role](ctx, r.sqlHandler.DB(), guard, names)
}

func (r *PermissionRepository) ReplaceRoles(ctx context.Context, permission *domain.Permission, roles []*domain.Role) error {
	return database.ReplaceAssociation(ctx, r.sqlHandler.DB(), permission, "Roles", roles)
}

// DeleteByIDs removes the permissions and their role grants.
func (r *PermissionRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if err := database.DeletePivotRows(ctx, r.sqlHandler.DB(), "role_has_permissions", "permission_id", ids); err != nil {
		return 0, err
	}
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}
