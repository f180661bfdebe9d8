package usecase

import (
	"context"
	"errors"
	"testing"

	"rbac-admin/database"
	"rbac-admin/domain"
	permissionrepo "rbac-admin/modules/permission/repository"
	"rbac-admin/modules/role/repository"
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
	usecase domain.RoleUsecase
	roles   *repository.RoleRepository
	cache   *countingCache
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenInMemory(log.NewNopLogger())
	require.NoError(t, err)

	permissions := permissionrepo.NewPermissionRepository(db)
	require.NoError(t, permissions.CreateMany(ctx, []*domain.Permission{
		{Name: "edit articles", Guard: domain.GuardWeb},
		{Name: "view articles", Guard: domain.GuardWeb},
		{Name: "edit articles", Guard: domain.GuardAPI},
	}))

	f := &fixture{roles: repository.NewRoleRepository(db), cache: &countingCache{}}
	f.usecase = NewRoleUsecase(
		f.roles,
		domain.GuardSet{domain.GuardWeb, domain.GuardAPI},
		domain.DefaultProtectedNames(),
		f.cache,
		log.NewNopLogger(),
	)
	return f
}

func TestCreateRoleAcrossGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	role, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: " editor ",
		Permissions: domain.PermissionsByGuard{
			domain.GuardAPI: {"edit articles"},
			domain.GuardWeb: {"edit articles", "view articles", "unknown"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "editor", role.Name)
	assert.Equal(t, domain.GuardWeb, role.Guard)
	assert.ElementsMatch(t, []string{"edit articles", "view articles"}, role.PermissionNames())
	assert.Equal(t, 1, f.cache.invalidations)

	details, err := f.usecase.GetRoleDetails(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.ID, details.ID)
	assert.Equal(t, []string{domain.GuardWeb, domain.GuardAPI}, details.Guards)
	assert.Len(t, details.Permissions, 3)
}

func TestCreateRoleDefaultsToFirstGuard(t *testing.T) {
	f := setup(t)

	role, err := f.usecase.CreateRole(context.Background(), &domain.RoleCreateRequest{Name: "viewer"})
	require.NoError(t, err)
	assert.Equal(t, domain.GuardWeb, role.Guard)
	assert.Empty(t, role.Permissions)
}

func TestCreateRoleRejectsDuplicatesAndUnknownGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{Name: "editor"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.MessageNameTaken, domain.AsDetailedError(err).FieldErrors()["name"])

	_, err = f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name:        "writer",
		Permissions: domain.PermissionsByGuard{"admin": {"edit articles"}},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	count, err := f.roles.Count(ctx, &domain.RoleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdateRoleRenamesEveryGuardRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	role, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)

	name := "publisher"
	updated, err := f.usecase.UpdateRole(ctx, role.ID, &domain.RoleUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "publisher", updated.Name)
	assert.Equal(t, []string{"edit articles"}, updated.PermissionNames())

	rows, err := f.roles.FindMany(ctx, &domain.RoleFilter{Name: &name}, &domain.FindManyOption{Preloads: []string{"Permissions"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Len(t, row.Permissions, 1, "permissions stay when the map is omitted")
	}
}

func TestUpdateRoleSyncsPermissionsPerGuard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	role, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)

	updated, err := f.usecase.UpdateRole(ctx, role.ID, &domain.RoleUpdateRequest{
		Permissions: domain.PermissionsByGuard{domain.GuardWeb: {"view articles"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"view articles"}, updated.PermissionNames())

	details, err := f.usecase.GetRoleDetails(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, details.Permissions, 1, "the api row was cleared")
	assert.Equal(t, "view articles", details.Permissions[0].Name)
}

func TestUpdateRoleNameTaken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	editor, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{Name: "editor"})
	require.NoError(t, err)
	_, err = f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{Name: "viewer"})
	require.NoError(t, err)

	name := "viewer"
	_, err = f.usecase.UpdateRole(ctx, editor.ID, &domain.RoleUpdateRequest{Name: &name})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.usecase.UpdateRole(ctx, 999, &domain.RoleUpdateRequest{Name: &name})
	require.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestDeleteRolesSkipsProtected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{Name: domain.RoleSuperAdmin})
	require.NoError(t, err)
	editor, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)
	before := f.cache.invalidations

	res, err := f.usecase.DeleteRoles(ctx, domain.BulkIDs{admin.ID, editor.ID})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, "The role `super-admin` is protected and cannot be deleted.", res.Message)
	assert.Equal(t, before+1, f.cache.invalidations)

	rows, err := f.roles.FindMany(ctx, &domain.RoleFilter{}, &domain.FindManyOption{Sort: []string{"roles.id ASC"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RoleSuperAdmin, rows[0].Name)
	assert.Equal(t, "editor", rows[1].Name)
	assert.Equal(t, domain.GuardAPI, rows[1].Guard, "only the selected guard row is deleted")
}

func TestDeleteRolesOnlySelectedGuardRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	editor, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)
	apiGuard := domain.GuardAPI
	apiRows, err := f.roles.FindMany(ctx, &domain.RoleFilter{Guard: &apiGuard}, nil)
	require.NoError(t, err)
	require.Len(t, apiRows, 1)

	res, err := f.usecase.DeleteRoles(ctx, domain.BulkIDs{apiRows[0].ID, 999})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, "Role deleted successfully.", res.Message)

	details, err := f.usecase.GetRoleDetails(ctx, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.GuardWeb}, details.Guards)
}

func TestUpdateRoleRejectsRenamingProtected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name:        domain.RoleSuperAdmin,
		Permissions: domain.PermissionsByGuard{domain.GuardWeb: {"edit articles"}},
	})
	require.NoError(t, err)
	before := f.cache.invalidations

	name := "hacked"
	_, err = f.usecase.UpdateRole(ctx, admin.ID, &domain.RoleUpdateRequest{
		Name:        &name,
		Permissions: domain.PermissionsByGuard{domain.GuardWeb: {}},
	})
	require.ErrorIs(t, err, domain.ErrProtectedEntity)
	assert.Equal(t, "The role `super-admin` is protected and cannot be renamed.", domain.AsDetailedError(err).Error())
	assert.Equal(t, before, f.cache.invalidations)

	row, err := f.roles.FindByID(ctx, admin.ID, &domain.FindOneOption{Preloads: []string{"Permissions"}})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, row.Name)
	assert.Equal(t, []string{"edit articles"}, row.PermissionNames())

	updated, err := f.usecase.UpdateRole(ctx, admin.ID, &domain.RoleUpdateRequest{
		Permissions: domain.PermissionsByGuard{domain.GuardWeb: {"view articles"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"view articles"}, updated.PermissionNames(), "protected roles still sync permissions")
}

// failingSyncRepo fails the permission sync of the given guard inside the
// transaction.
type failingSyncRepo struct {
	domain.RoleRepository
	guard string
}

func (r *failingSyncRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo domain.RoleRepository) error) error {
	return r.RoleRepository.WithTx(ctx, func(ctx context.Context, tx domain.RoleRepository) error {
		return fn(ctx, &failingSyncRepo{RoleRepository: tx, guard: r.guard})
	})
}

func (r *failingSyncRepo) ReplacePermissions(ctx context.Context, role *domain.Role, permissions []*domain.Permission) error {
	if role.Guard == r.guard {
		return errors.New("sync failed")
	}
	return r.RoleRepository.ReplacePermissions(ctx, role, permissions)
}

func TestUpdateRoleRollsBackOnSyncFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	role, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)

	failing := NewRoleUsecase(
		&failingSyncRepo{RoleRepository: f.roles, guard: domain.GuardAPI},
		domain.GuardSet{domain.GuardWeb, domain.GuardAPI},
		domain.DefaultProtectedNames(),
		f.cache,
		log.NewNopLogger(),
	)
	name := "publisher"
	_, err = failing.UpdateRole(ctx, role.ID, &domain.RoleUpdateRequest{
		Name:        &name,
		Permissions: domain.PermissionsByGuard{domain.GuardWeb: {"view articles"}},
	})
	require.ErrorIs(t, err, domain.ErrRoleUpdateFailed)

	renamed, err := f.roles.Count(ctx, &domain.RoleFilter{Name: &name})
	require.NoError(t, err)
	assert.Zero(t, renamed, "the rename is rolled back")

	details, err := f.usecase.GetRoleDetails(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor", details.Name)
	assert.Equal(t, []string{domain.GuardWeb, domain.GuardAPI}, details.Guards)
	names := lo.Map(details.Permissions, func(p *domain.Permission, _ int) string { return p.Name + "@" + p.Guard })
	assert.ElementsMatch(t, []string{"edit articles@web", "edit articles@api"}, names, "the web sync is rolled back")
}

func TestUpdateRoleOldNameIsGone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	role, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
		Name: "editor",
		Permissions: domain.PermissionsByGuard{
			domain.GuardWeb: {"edit articles"},
			domain.GuardAPI: {"edit articles"},
		},
	})
	require.NoError(t, err)

	name := "publisher"
	_, err = f.usecase.UpdateRole(ctx, role.ID, &domain.RoleUpdateRequest{Name: &name})
	require.NoError(t, err)

	old := "editor"
	for _, guard := range []string{domain.GuardWeb, domain.GuardAPI} {
		rows, err := f.roles.FindMany(ctx, &domain.RoleFilter{Name: &old, Guard: &guard}, nil)
		require.NoError(t, err)
		assert.Empty(t, rows, guard)
	}

	page, err := f.usecase.ListRoles(ctx, &domain.ListQuery{Search: old})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestDeleteRolesEmptySelection(t *testing.T) {
	f := setup(t)

	res, err := f.usecase.DeleteRoles(context.Background(), domain.BulkIDs{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No roles selected for deletion.", res.Message)
	assert.Zero(t, f.cache.invalidations)
}

func TestListRolesMergesAndPaginates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.usecase.CreateRole(ctx, &domain.RoleCreateRequest{
			Name: name,
			Permissions: domain.PermissionsByGuard{
				domain.GuardWeb: nil,
				domain.GuardAPI: nil,
			},
		})
		require.NoError(t, err)
	}

	page, err := f.usecase.ListRoles(ctx, &domain.ListQuery{PerPage: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, domain.DefaultPerPage, page.PerPage)
	require.Len(t, page.Data, 3)
	assert.Equal(t, []string{domain.GuardWeb, domain.GuardAPI}, page.Data[0].Guards)

	page, err = f.usecase.ListRoles(ctx, &domain.ListQuery{Search: "b"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "b", page.Data[0].Name)
}
