package bootstrap

import (
	"context"
	"testing"

	"rbac-admin/common"
	"rbac-admin/database"
	"rbac-admin/domain"
	permissionrepo "rbac-admin/modules/permission/repository"
	rolerepo "rbac-admin/modules/role/repository"
	userrepo "rbac-admin/modules/user/repository"
	"rbac-admin/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingCache struct{ invalidated int }

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNopLogger()
	db, err := database.OpenInMemory(logger)
	require.NoError(t, err)

	permissions := permissionrepo.NewPermissionRepository(db)
	roles := rolerepo.NewRoleRepository(db)
	users := userrepo.NewUserRepository(db)
	cache := &countingCache{}

	seeder := NewSeeder(permissions, roles, users, common.NewBcryptHasher(bcrypt.MinCost), cache, SeedConfig{
		Guards:             domain.GuardSet{domain.GuardWeb, domain.GuardAPI},
		CorePermissions:    domain.DefaultCorePermissions(),
		CoreRoles:          []string{domain.RoleSuperAdmin, "editor"},
		SuperAdminEmail:    "root@example.com",
		SuperAdminPassword: "password123",
	}, logger)

	require.NoError(t, seeder.Seed(ctx))
	require.NoError(t, seeder.Seed(ctx))
	assert.Equal(t, 2, cache.invalidated)

	count, err := permissions.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2*len(domain.DefaultCorePermissions()), count)

	roleCount, err := roles.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, roleCount)

	web := domain.GuardWeb
	superAdmin := domain.RoleSuperAdmin
	found, err := roles.FindMany(ctx, &domain.RoleFilter{Guard: &web, Name: &superAdmin}, &domain.FindManyOption{
		Preloads: []string{"Permissions"},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.ElementsMatch(t, domain.DefaultCorePermissions(), found[0].PermissionNames())

	email := "root@example.com"
	admin, err := users.FindOne(ctx, &domain.UserFilter{Email: &email}, &domain.FindOneOption{Preloads: []string{"Roles"}})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleSuperAdmin}, admin.RoleNames())
	assert.Equal(t, domain.GuardWeb, admin.Roles[0].Guard)

	userCount, err := users.Count(ctx, &domain.UserFilter{Trash: domain.TrashFilterAll})
	require.NoError(t, err)
	assert.EqualValues(t, 1, userCount)
}

func TestSeedKeepsExtraSuperAdminPermissions(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNopLogger()
	db, err := database.OpenInMemory(logger)
	require.NoError(t, err)

	permissions := permissionrepo.NewPermissionRepository(db)
	roles := rolerepo.NewRoleRepository(db)
	users := userrepo.NewUserRepository(db)

	seeder := NewSeeder(permissions, roles, users, common.NewBcryptHasher(bcrypt.MinCost), nil, SeedConfig{
		Guards:          domain.GuardSet{domain.GuardWeb},
		CorePermissions: []string{domain.PermissionManageUsers},
	}, logger)
	require.NoError(t, seeder.Seed(ctx))

	extra := &domain.Permission{Name: "export reports", Guard: domain.GuardWeb}
	require.NoError(t, permissions.CreateMany(ctx, []*domain.Permission{extra}))

	web := domain.GuardWeb
	superAdmin := domain.RoleSuperAdmin
	found, err := roles.FindMany(ctx, &domain.RoleFilter{Guard: &web, Name: &superAdmin}, &domain.FindManyOption{
		Preloads: []string{"Permissions"},
	})
	require.NoError(t, err)
	require.NoError(t, roles.ReplacePermissions(ctx, found[0], append(found[0].Permissions, extra)))

	require.NoError(t, seeder.Seed(ctx))

	found, err = roles.FindMany(ctx, &domain.RoleFilter{Guard: &web, Name: &superAdmin}, &domain.FindManyOption{
		Preloads: []string{"Permissions"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.PermissionManageUsers, "export reports"}, found[0].PermissionNames())
}
