package usecase

import (
	"context"
	"testing"

	"rbac-admin/database"
	"rbac-admin/domain"
	"rbac-admin/modules/permission/repository"
	rolerepo "rbac-admin/modules/role/repository"
	"rbac-admin/pkg/log"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct{ invalidations int }

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

type fixture struct {
	usecase     domain.PermissionUsecase
	permissions *repository.PermissionRepository
	cache       *countingCache
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenInMemory(log.NewNopLogger())
	require.NoError(t, err)

	roles := rolerepo.NewRoleRepository(db)
	for _, role := range []*domain.Role{
		{Name: "editor", Guard: domain.GuardWeb},
		{Name: "editor", Guard: domain.GuardAPI},
		{Name: "viewer", Guard: domain.GuardWeb},
	} {
		require.NoError(t, roles.Create(ctx, role))
	}

	f := &fixture{permissions: repository.NewPermissionRepository(db), cache: &countingCache{}}
	f.usecase = NewPermissionUsecase(
		f.permissions,
		domain.GuardSet{domain.GuardWeb, domain.GuardAPI},
		domain.DefaultProtectedNames(),
		f.cache,
		log.NewNopLogger(),
	)
	return f
}

func roleNames(p *domain.Permission) []string {
	return lo.Map(p.Roles, func(r *domain.Role, _ int) string { return r.Name + "@" + r.Guard })
}

func TestCreatePermissionPerGuard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish articles",
		Guards: []string{domain.GuardWeb, domain.GuardAPI, domain.GuardWeb},
		Roles:  []string{"editor", "viewer"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, domain.GuardWeb, created[0].Guard)
	assert.ElementsMatch(t, []string{"editor@web", "viewer@web"}, roleNames(created[0]))
	assert.Equal(t, domain.GuardAPI, created[1].Guard)
	assert.Equal(t, []string{"editor@api"}, roleNames(created[1]))
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestCreatePermissionSkipsExistingGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{Name: "publish"})
	require.NoError(t, err)

	created, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardWeb, domain.GuardAPI},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domain.GuardAPI, created[0].Guard)

	_, err = f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardAPI},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.MessageNameTaken, domain.AsDetailedError(err).FieldErrors()["name"])

	_, err = f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardWeb, domain.GuardAPI},
	})
	require.ErrorIs(t, err, domain.ErrValidation, "every requested guard already holds the name")
	count, err := f.permissions.Count(ctx, &domain.PermissionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "archive",
		Guards: []string{"admin"},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdatePermissionRenamesAndSyncsRoles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardWeb, domain.GuardAPI},
		Roles:  []string{"viewer"},
	})
	require.NoError(t, err)

	name := "publish articles"
	updated, err := f.usecase.UpdatePermission(ctx, created[1].ID, &domain.PermissionUpdateRequest{
		Name:  &name,
		Roles: []string{"editor"},
	})
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, updated.ID)
	assert.Equal(t, "publish articles", updated.Name)
	assert.Equal(t, []string{"editor@web"}, roleNames(updated))

	details, err := f.usecase.GetPermissionDetails(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "publish articles", details.Name)
	assert.Equal(t, []string{domain.GuardWeb, domain.GuardAPI}, details.Guards)
	assert.Len(t, details.Roles, 2)
}

func TestUpdatePermissionWithoutRolesClearsThem(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:  "publish",
		Roles: []string{"editor"},
	})
	require.NoError(t, err)

	updated, err := f.usecase.UpdatePermission(ctx, created[0].ID, &domain.PermissionUpdateRequest{})
	require.NoError(t, err)
	assert.Empty(t, updated.Roles)

	_, err = f.usecase.UpdatePermission(ctx, 999, &domain.PermissionUpdateRequest{})
	require.ErrorIs(t, err, domain.ErrPermissionNotFound)
}

func TestDeletePermissionsSkipsProtected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	core, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{Name: domain.PermissionManageUsers})
	require.NoError(t, err)
	custom, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardWeb, domain.GuardAPI},
	})
	require.NoError(t, err)

	res, err := f.usecase.DeletePermissions(ctx, domain.BulkIDs{core[0].ID, custom[1].ID})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, "The permission `manage users` is protected and cannot be deleted.", res.Message)

	left, err := f.permissions.FindMany(ctx, &domain.PermissionFilter{}, &domain.FindManyOption{Sort: []string{"permissions.id ASC"}})
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, domain.PermissionManageUsers, left[0].Name)
	assert.Equal(t, custom[0].ID, left[1].ID, "the unselected web row stays")
}

func TestUpdatePermissionRejectsRenamingProtected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	core, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:  domain.PermissionManageUsers,
		Roles: []string{"editor"},
	})
	require.NoError(t, err)
	before := f.cache.invalidations

	name := "hacked"
	_, err = f.usecase.UpdatePermission(ctx, core[0].ID, &domain.PermissionUpdateRequest{Name: &name})
	require.ErrorIs(t, err, domain.ErrProtectedEntity)
	assert.Equal(t, "The permission `manage users` is protected and cannot be renamed.", domain.AsDetailedError(err).Error())
	assert.Equal(t, before, f.cache.invalidations)

	row, err := f.permissions.FindByID(ctx, core[0].ID, &domain.FindOneOption{Preloads: []string{"Roles"}})
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionManageUsers, row.Name)
	assert.Equal(t, []string{"editor@web"}, roleNames(row), "roles are not synced when the rename is refused")

	same := domain.PermissionManageUsers
	updated, err := f.usecase.UpdatePermission(ctx, core[0].ID, &domain.PermissionUpdateRequest{Name: &same})
	require.NoError(t, err)
	assert.Empty(t, updated.Roles, "keeping the name still syncs roles")
}

func TestDeletePermissionsSuccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{Name: "a"})
	require.NoError(t, err)
	b, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{Name: "b"})
	require.NoError(t, err)

	res, err := f.usecase.DeletePermissions(ctx, domain.BulkIDs{a[0].ID, b[0].ID})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "`2` permissions deleted successfully.", res.Message)
}

func TestListPermissions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{
		Name:   "publish",
		Guards: []string{domain.GuardWeb, domain.GuardAPI},
	})
	require.NoError(t, err)
	_, err = f.usecase.CreatePermission(ctx, &domain.PermissionCreateRequest{Name: "archive"})
	require.NoError(t, err)

	page, err := f.usecase.ListPermissions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "publish", page.Data[0].Name)
	assert.Equal(t, []string{domain.GuardWeb, domain.GuardAPI}, page.Data[0].Guards)
}
