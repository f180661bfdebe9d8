package usecase

import (
	"context"
	"errors"
	"fmt"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"
	"strings"

	"github.com/samber/lo"
)

type roleUsecase struct {
	repo      domain.RoleRepository
	guards    domain.GuardSet
	protected *domain.ProtectedNames
	cache     domain.PermissionCache
	logger    log.Logger
}

func NewRoleUsecase(
	repo domain.RoleRepository,
	guards domain.GuardSet,
	protected *domain.ProtectedNames,
	cache domain.PermissionCache,
	logger log.Logger,
) domain.RoleUsecase {
	return &roleUsecase{
		repo:      repo,
		guards:    guards,
		protected: protected,
		cache:     cache,
		logger:    logger,
	}
}

var byID = &domain.FindManyOption{Sort: []string{"roles.id ASC"}}

var byIDWithPermissions = &domain.FindManyOption{
	Preloads: []string{"Permissions"},
	Sort:     []string{"roles.id ASC"},
}

func (u *roleUsecase) ListRoles(ctx context.Context, query *domain.ListQuery) (*domain.Page[*domain.MergedRole], error) {
	q := domain.ListQuery{}
	if query != nil {
		q = *query
	}
	q.Normalize()

	filter := &domain.RoleFilter{}
	if q.Search != "" {
		filter.SearchTerm = &q.Search
	}

	rows, err := u.repo.FindMany(ctx, filter, byIDWithPermissions)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.Paginate(domain.MergeRoles(rows), q.Page, q.PerPage), nil
}

func (u *roleUsecase) GetRoleDetails(ctx context.Context, id uint) (*domain.MergedRole, error) {
	role, err := u.repo.FindByID(ctx, id, nil)
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load role"))
	}

	rows, err := u.repo.FindMany(ctx, &domain.RoleFilter{Name: &role.Name}, byIDWithPermissions)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	merged := domain.MergeRoles(rows)
	if len(merged) == 0 {
		return nil, domain.ErrRoleNotFound
	}
	return merged[0], nil
}

func (u *roleUsecase) CreateRole(ctx context.Context, req *domain.RoleCreateRequest) (*domain.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.FieldError("name", "The name field is required.")
	}
	guards, err := u.guardsOf(req.Permissions)
	if err != nil {
		return nil, err
	}

	var primaryID uint
	err = u.repo.WithTx(ctx, func(ctx context.Context, repo domain.RoleRepository) error {
		taken, err := repo.Count(ctx, &domain.RoleFilter{Name: &name, GuardIn: guards})
		if err != nil {
			return err
		}
		if taken > 0 {
			return domain.FieldError("name", domain.MessageNameTaken)
		}

		for _, guard := range guards {
			role := &domain.Role{Name: name, Guard: guard}
			if err := repo.Create(ctx, role); err != nil {
				return err
			}
			if primaryID == 0 {
				primaryID = role.ID
			}

			names := req.Permissions[guard]
			if len(names) == 0 {
				continue
			}
			permissions, err := repo.FindPermissionsByNames(ctx, guard, names)
			if err != nil {
				return err
			}
			if err := repo.ReplacePermissions(ctx, role, permissions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrRoleCreationFailed)
	}

	u.invalidate(ctx)
	u.logger.InfoContext(ctx, "Role created",
		log.String("name", name),
		log.Any("guards", guards),
	)
	return u.reload(ctx, primaryID)
}

// UpdateRole renames every row sharing the target's name and, when a
// permission map is given, syncs each row to the names listed under its own
// guard. Both steps commit together.
func (u *roleUsecase) UpdateRole(ctx context.Context, id uint, req *domain.RoleUpdateRequest) (*domain.Role, error) {
	if req.Permissions != nil {
		if err := u.checkGuards(req.Permissions); err != nil {
			return nil, err
		}
	}

	var primaryID uint
	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.RoleRepository) error {
		target, err := repo.FindByID(ctx, id, nil)
		if err != nil {
			return err
		}
		rows, err := repo.FindMany(ctx, &domain.RoleFilter{Name: &target.Name}, byID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.ErrRoleNotFound
		}
		primaryID = rows[0].ID

		if req.Name != nil {
			newName := strings.TrimSpace(*req.Name)
			if newName == "" {
				return domain.FieldError("name", "The name field is required.")
			}
			if newName != target.Name {
				if u.protected.IsProtectedRole(target.Name) {
					return domain.ErrProtectedEntity.WithErrorf("The role `%s` is protected and cannot be renamed.", target.Name)
				}
				guards := lo.Map(rows, func(r *domain.Role, _ int) string { return r.Guard })
				taken, err := repo.Count(ctx, &domain.RoleFilter{Name: &newName, GuardIn: guards})
				if err != nil {
					return err
				}
				if taken > 0 {
					return domain.FieldError("name", domain.MessageNameTaken)
				}
				ids := lo.Map(rows, func(r *domain.Role, _ int) uint { return r.ID })
				if err := repo.Rename(ctx, ids, newName); err != nil {
					return err
				}
				for _, row := range rows {
					row.Name = newName
				}
			}
		}

		if req.Permissions == nil {
			return nil
		}
		for _, row := range rows {
			permissions, err := repo.FindPermissionsByNames(ctx, row.Guard, req.Permissions[row.Guard])
			if err != nil {
				return err
			}
			if err := repo.ReplacePermissions(ctx, row, permissions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrRoleUpdateFailed)
	}

	u.invalidate(ctx)
	return u.reload(ctx, primaryID)
}

// DeleteRoles deletes the selected guard rows. Rows of other guards sharing a
// selected name are kept. Protected roles are skipped and reported while the
// others still commit.
func (u *roleUsecase) DeleteRoles(ctx context.Context, ids domain.BulkIDs) (*domain.BulkResult, error) {
	outcome := domain.BulkOutcome{Requested: len(ids)}
	if len(ids) == 0 {
		return domain.SummarizeBulk(domain.BulkEntityRole, domain.BulkActionDelete, outcome), nil
	}

	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.RoleRepository) error {
		targets, err := repo.FindMany(ctx, &domain.RoleFilter{IDIn: ids}, byID)
		if err != nil {
			return err
		}

		deletable, protected := lo.FilterReject(targets, func(r *domain.Role, _ int) bool {
			return !u.protected.IsProtectedRole(r.Name)
		})
		outcome.Protected = lo.Uniq(lo.Map(protected, func(r *domain.Role, _ int) string { return r.Name }))
		if len(deletable) == 0 {
			return nil
		}

		deleted, err := repo.DeleteByIDs(ctx, lo.Map(deletable, func(r *domain.Role, _ int) uint { return r.ID }))
		if err != nil {
			return err
		}
		outcome.Affected = int(deleted)
		return nil
	})
	if err != nil {
		return nil, domain.ErrRoleDeletionFailed.WithWrap(err)
	}

	if outcome.Affected > 0 {
		u.invalidate(ctx)
	}
	return domain.SummarizeBulk(domain.BulkEntityRole, domain.BulkActionDelete, outcome), nil
}

// guardsOf returns the guards a new role is created on, in configured order.
func (u *roleUsecase) guardsOf(permissions domain.PermissionsByGuard) ([]string, error) {
	if len(permissions) == 0 {
		return []string{u.guards.Default()}, nil
	}
	if err := u.checkGuards(permissions); err != nil {
		return nil, err
	}
	return lo.Filter(u.guards, func(g string, _ int) bool {
		_, ok := permissions[g]
		return ok
	}), nil
}

func (u *roleUsecase) checkGuards(permissions domain.PermissionsByGuard) error {
	for guard := range permissions {
		if !u.guards.Contains(guard) {
			return domain.FieldError("permissions", fmt.Sprintf("The guard %q is not supported.", guard))
		}
	}
	return nil
}

func (u *roleUsecase) reload(ctx context.Context, id uint) (*domain.Role, error) {
	role, err := u.repo.FindByID(ctx, id, &domain.FindOneOption{Preloads: []string{"Permissions"}})
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load role"))
	}
	return role, nil
}

func (u *roleUsecase) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx); err != nil {
		u.logger.WarnContext(ctx, "Failed to invalidate permission cache", log.Error(err))
	}
}

func (u *roleUsecase) mapError(err error, fallback *domain.DetailedError) error {
	var de *domain.DetailedError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, domain.ErrRecordNotFound):
		return domain.ErrRoleNotFound.WithWrap(err)
	case errors.Is(err, domain.ErrDuplicateRecord):
		return domain.FieldError("name", domain.MessageNameTaken)
	default:
		return fallback.WithWrap(err)
	}
}
