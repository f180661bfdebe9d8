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

type permissionUsecase struct {
	repo      domain.PermissionRepository
	guards    domain.GuardSet
	protected *domain.ProtectedNames
	cache     domain.PermissionCache
	logger    log.Logger
}

func NewPermissionUsecase(
	repo domain.PermissionRepository,
	guards domain.GuardSet,
	protected *domain.ProtectedNames,
	cache domain.PermissionCache,
	logger log.Logger,
) domain.PermissionUsecase {
	return &permissionUsecase{
		repo:      repo,
		guards:    guards,
		protected: protected,
		cache:     cache,
		logger:    logger,
	}
}

var byID = &domain.FindManyOption{Sort: []string{"permissions.id ASC"}}

var byIDWithRoles = &domain.FindManyOption{
	Preloads: []string{"Roles"},
	Sort:     []string{"permissions.id ASC"},
}

func (u *permissionUsecase) ListPermissions(ctx context.Context, query *domain.ListQuery) (*domain.Page[*domain.MergedPermission], error) {
	q := domain.ListQuery{}
	if query != nil {
		q = *query
	}
	q.Normalize()

	filter := &domain.PermissionFilter{}
	if q.Search != "" {
		filter.SearchTerm = &q.Search
	}

	rows, err := u.repo.FindMany(ctx, filter, byIDWithRoles)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.Paginate(domain.MergePermissions(rows), q.Page, q.PerPage), nil
}

func (u *permissionUsecase) GetPermissionDetails(ctx context.Context, id uint) (*domain.MergedPermission, error) {
	permission, err := u.repo.FindByID(ctx, id, nil)
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load permission"))
	}

	rows, err := u.repo.FindMany(ctx, &domain.PermissionFilter{Name: &permission.Name}, byIDWithRoles)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	merged := domain.MergePermissions(rows)
	if len(merged) == 0 {
		return nil, domain.ErrPermissionNotFound
	}
	return merged[0], nil
}

// CreatePermission creates one row per requested guard, skipping guards that
// already hold the name. Roles are resolved by name inside each new row's
// guard. It fails only when no guard is left to create.
func (u *permissionUsecase) CreatePermission(ctx context.Context, req *domain.PermissionCreateRequest) ([]*domain.Permission, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.FieldError("name", "The name field is required.")
	}

	guards := lo.Uniq(req.Guards)
	if len(guards) == 0 {
		guards = []string{u.guards.Default()}
	}
	for _, guard := range guards {
		if !u.guards.Contains(guard) {
			return nil, domain.FieldError("guards", fmt.Sprintf("The guard %q is not supported.", guard))
		}
	}

	var created []*domain.Permission
	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.PermissionRepository) error {
		existing, err := repo.FindMany(ctx, &domain.PermissionFilter{Name: &name, GuardIn: guards}, nil)
		if err != nil {
			return err
		}
		taken := lo.SliceToMap(existing, func(p *domain.Permission) (string, bool) { return p.Guard, true })

		for _, guard := range guards {
			if !taken[guard] {
				created = append(created, &domain.Permission{Name: name, Guard: guard})
			}
		}
		if len(created) == 0 {
			return domain.FieldError("name", domain.MessageNameTaken)
		}
		if err := repo.CreateMany(ctx, created); err != nil {
			return err
		}

		if len(req.Roles) == 0 {
			return nil
		}
		for _, permission := range created {
			roles, err := repo.FindRolesByNames(ctx, permission.Guard, req.Roles)
			if err != nil {
				return err
			}
			if err := repo.ReplaceRoles(ctx, permission, roles); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrPermissionCreationFailed)
	}

	u.invalidate(ctx)
	u.logger.InfoContext(ctx, "Permission created",
		log.String("name", name),
		log.Int("rows", len(created)),
	)

	ids := lo.Map(created, func(p *domain.Permission, _ int) uint { return p.ID })
	rows, err := u.repo.FindMany(ctx, &domain.PermissionFilter{IDIn: ids}, byIDWithRoles)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return rows, nil
}

// UpdatePermission renames every row sharing the target's name and syncs each
// row's roles to req.Roles resolved within that row's guard. A missing roles
// list clears the roles.
func (u *permissionUsecase) UpdatePermission(ctx context.Context, id uint, req *domain.PermissionUpdateRequest) (*domain.Permission, error) {
	var primaryID uint
	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.PermissionRepository) error {
		target, err := repo.FindByID(ctx, id, nil)
		if err != nil {
			return err
		}
		rows, err := repo.FindMany(ctx, &domain.PermissionFilter{Name: &target.Name}, byID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.ErrPermissionNotFound
		}
		primaryID = rows[0].ID

		if req.Name != nil {
			newName := strings.TrimSpace(*req.Name)
			if newName == "" {
				return domain.FieldError("name", "The name field is required.")
			}
			if newName != target.Name {
				if u.protected.IsProtectedPermission(target.Name) {
					return domain.ErrProtectedEntity.WithErrorf("The permission `%s` is protected and cannot be renamed.", target.Name)
				}
				guards := lo.Map(rows, func(p *domain.Permission, _ int) string { return p.Guard })
				taken, err := repo.Count(ctx, &domain.PermissionFilter{Name: &newName, GuardIn: guards})
				if err != nil {
					return err
				}
				if taken > 0 {
					return domain.FieldError("name", domain.MessageNameTaken)
				}
				ids := lo.Map(rows, func(p *domain.Permission, _ int) uint { return p.ID })
				if err := repo.Rename(ctx, ids, newName); err != nil {
					return err
				}
				for _, row := range rows {
					row.Name = newName
				}
			}
		}

		for _, row := range rows {
			roles, err := repo.FindRolesByNames(ctx, row.Guard, req.Roles)
			if err != nil {
				return err
			}
			if err := repo.ReplaceRoles(ctx, row, roles); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrPermissionUpdateFailed)
	}

	u.invalidate(ctx)

	permission, err := u.repo.FindByID(ctx, primaryID, &domain.FindOneOption{Preloads: []string{"Roles"}})
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load permission"))
	}
	return permission, nil
}

// DeletePermissions deletes the selected guard rows. Rows of other guards
// sharing a selected name are kept. Protected permissions are skipped and
// reported while the others still commit.
func (u *permissionUsecase) DeletePermissions(ctx context.Context, ids domain.BulkIDs) (*domain.BulkResult, error) {
	outcome := domain.BulkOutcome{Requested: len(ids)}
	if len(ids) == 0 {
		return domain.SummarizeBulk(domain.BulkEntityPermission, domain.BulkActionDelete, outcome), nil
	}

	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.PermissionRepository) error {
		targets, err := repo.FindMany(ctx, &domain.PermissionFilter{IDIn: ids}, byID)
		if err != nil {
			return err
		}

		deletable, protected := lo.FilterReject(targets, func(p *domain.Permission, _ int) bool {
			return !u.protected.IsProtectedPermission(p.Name)
		})
		outcome.Protected = lo.Uniq(lo.Map(protected, func(p *domain.Permission, _ int) string { return p.Name }))
		if len(deletable) == 0 {
			return nil
		}

		deleted, err := repo.DeleteByIDs(ctx, lo.Map(deletable, func(p *domain.Permission, _ int) uint { return p.ID }))
		if err != nil {
			return err
		}
		outcome.Affected = int(deleted)
		return nil
	})
	if err != nil {
		return nil, domain.ErrPermissionDeletionFailed.WithWrap(err)
	}

	if outcome.Affected > 0 {
		u.invalidate(ctx)
	}
	return domain.SummarizeBulk(domain.BulkEntityPermission, domain.BulkActionDelete, outcome), nil
}

func (u *permissionUsecase) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx); err != nil {
		u.logger.WarnContext(ctx, "Failed to invalidate permission cache", log.Error(err))
	}
}

func (u *permissionUsecase) mapError(err error, fallback *domain.DetailedError) error {
	var de *domain.DetailedError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, domain.ErrRecordNotFound):
		return domain.ErrPermissionNotFound.WithWrap(err)
	case errors.Is(err, domain.ErrDuplicateRecord):
		return domain.FieldError("name", domain.MessageNameTaken)
	default:
		return fallback.WithWrap(err)
	}
}
