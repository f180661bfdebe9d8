package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"rbac-admin/common"
	"rbac-admin/database"
	"rbac-admin/domain"
	permissionrepo "rbac-admin/modules/permission/repository"
	rolerepo "rbac-admin/modules/role/repository"
	userrepo "rbac-admin/modules/user/repository"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/log"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	access domain.AccessUsecase
	users  *userrepo.UserRepository
	roles  *rolerepo.RoleRepository
	perms  *permissionrepo.PermissionRepository
	redis  *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := log.NewNopLogger()
	db, err := database.OpenInMemory(logger)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	client, err := cache.NewClient(cache.Redis, &cache.Config{Host: mr.Host(), Port: port, DefaultTTL: time.Hour}, common.NewLoggerAdapter(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		users: userrepo.NewUserRepository(db),
		roles: rolerepo.NewRoleRepository(db),
		perms: permissionrepo.NewPermissionRepository(db),
		redis: mr,
	}
	f.access = NewAccessUsecase(f.users, client, 10*time.Minute, logger)
	return f
}

// grant creates a user holding a role on guard with the given permissions.
func (f *fixture) grant(t *testing.T, email, guard string, permissions ...string) *domain.User {
	t.Helper()
	ctx := context.Background()

	rows := make([]*domain.Permission, 0, len(permissions))
	for _, name := range permissions {
		rows = append(rows, &domain.Permission{Name: name, Guard: guard})
	}
	if len(rows) > 0 {
		require.NoError(t, f.perms.CreateMany(ctx, rows))
	}

	role := &domain.Role{Name: email + "-role", Guard: guard}
	require.NoError(t, f.roles.Create(ctx, role))
	require.NoError(t, f.roles.ReplacePermissions(ctx, role, rows))

	user := &domain.User{Name: email, Email: email, Password: "x"}
	require.NoError(t, f.users.Create(ctx, user))
	require.NoError(t, f.users.ReplaceRoles(ctx, user, []*domain.Role{role}))
	return user
}

func TestCanIsCaseInsensitive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := f.grant(t, "jane@example.com", domain.GuardWeb, "Manage Users", "view tokens")

	granted, err := f.access.PermissionsOf(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"manage users", "view tokens"}, granted)

	ok, err := f.access.Can(ctx, user, domain.PermissionManageUsers)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.access.Can(ctx, user, domain.PermissionManageRoles, "VIEW TOKENS")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.access.Can(ctx, user, domain.PermissionManageRoles)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.access.Can(ctx, nil, domain.PermissionManageRoles)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionsAreCachedUntilInvalidated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := f.grant(t, "jane@example.com", domain.GuardWeb, "view tokens")

	_, err := f.access.PermissionsOf(ctx, user.ID)
	require.NoError(t, err)
	key := cache.Key(permissionKeyPrefix, user.ID)
	assert.True(t, f.redis.Exists(key))
	assert.Equal(t, 10*time.Minute, f.redis.TTL(key))

	extra := &domain.Permission{Name: "edit tokens", Guard: domain.GuardWeb}
	require.NoError(t, f.perms.CreateMany(ctx, []*domain.Permission{extra}))
	role, err := f.roles.FindMany(ctx, &domain.RoleFilter{}, &domain.FindManyOption{Preloads: []string{"Permissions"}})
	require.NoError(t, err)
	require.NoError(t, f.roles.ReplacePermissions(ctx, role[0], append(role[0].Permissions, extra)))

	granted, err := f.access.PermissionsOf(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view tokens"}, granted, "served from cache")

	require.NoError(t, f.access.Invalidate(ctx))
	assert.False(t, f.redis.Exists(key))

	granted, err = f.access.PermissionsOf(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"view tokens", "edit tokens"}, granted)
}

func TestForgetDropsOneUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.grant(t, "a@example.com", domain.GuardWeb, "view tokens")
	b := f.grant(t, "b@example.com", domain.GuardAPI, "edit tokens")

	_, err := f.access.PermissionsOf(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.access.PermissionsOf(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.access.Forget(ctx, a.ID))
	assert.False(t, f.redis.Exists(cache.Key(permissionKeyPrefix, a.ID)))
	assert.True(t, f.redis.Exists(cache.Key(permissionKeyPrefix, b.ID)))
}

func TestPermissionsOfUnknownOrTrashedUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.access.PermissionsOf(ctx, 999)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	user := f.grant(t, "gone@example.com", domain.GuardWeb)
	_, err = f.users.SoftDelete(ctx, []uint{user.ID})
	require.NoError(t, err)
	_, err = f.access.PermissionsOf(ctx, user.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
