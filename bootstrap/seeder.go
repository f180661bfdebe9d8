package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"

	"github.com/samber/lo"
)

type PermissionStore interface {
	FindMany(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindManyOption) ([]*domain.Permission, error)
	CreateMany(ctx context.Context, permissions []*domain.Permission) error
}

type RoleStore interface {
	FindMany(ctx context.Context, filter *domain.RoleFilter, option *domain.FindManyOption) ([]*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	FindPermissionsByNames(ctx context.Context, guard string, names []string) ([]*domain.Permission, error)
	ReplacePermissions(ctx context.Context, role *domain.Role, permissions []*domain.Permission) error
}

type UserStore interface {
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	FindRolesByNames(ctx context.Context, guard string, names []string) ([]*domain.Role, error)
	ReplaceRoles(ctx context.Context, user *domain.User, roles []*domain.Role) error
}

type Hasher interface {
	Hash(password string) (string, error)
}

// SeedConfig describes the rows every deployment starts with.
type SeedConfig struct {
	Guards             domain.GuardSet
	CorePermissions    []string
	CoreRoles          []string
	SuperAdminName     string
	SuperAdminEmail    string
	SuperAdminPassword string
}

type Seeder struct {
	permissions PermissionStore
	roles       RoleStore
	users       UserStore
	hasher      Hasher
	cache       domain.PermissionCache
	config      SeedConfig
	logger      log.Logger
}

func NewSeeder(
	permissions PermissionStore,
	roles RoleStore,
	users UserStore,
	hasher Hasher,
	cache domain.PermissionCache,
	config SeedConfig,
	logger log.Logger,
) *Seeder {
	return &Seeder{
		permissions: permissions,
		roles:       roles,
		users:       users,
		hasher:      hasher,
		cache:       cache,
		config:      config,
		logger:      logger,
	}
}

// Seed creates the core permissions and roles on every guard, grants every
// core permission to the super admin role and creates the super admin
// account. Running it again changes nothing.
func (s *Seeder) Seed(ctx context.Context) error {
	for _, guard := range s.config.Guards {
		if err := s.seedPermissions(ctx, guard); err != nil {
			return fmt.Errorf("seed permissions for guard %s: %w", guard, err)
		}
		if err := s.seedRoles(ctx, guard); err != nil {
			return fmt.Errorf("seed roles for guard %s: %w", guard, err)
		}
		if err := s.grantSuperAdmin(ctx, guard); err != nil {
			return fmt.Errorf("grant super admin on guard %s: %w", guard, err)
		}
	}

	if err := s.seedSuperAdminAccount(ctx); err != nil {
		return fmt.Errorf("seed super admin account: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate permission cache after seeding", log.Error(err))
		}
	}
	s.logger.Info("Seeding completed", log.Any("guards", []string(s.config.Guards)))
	return nil
}

func (s *Seeder) seedPermissions(ctx context.Context, guard string) error {
	if len(s.config.CorePermissions) == 0 {
		return nil
	}
	existing, err := s.permissions.FindMany(ctx, &domain.PermissionFilter{
		Guard:  &guard,
		NameIn: s.config.CorePermissions,
	}, nil)
	if err != nil {
		return err
	}

	have := lo.SliceToMap(existing, func(p *domain.Permission) (string, struct{}) { return p.Name, struct{}{} })
	var missing []*domain.Permission
	for _, name := range lo.Uniq(s.config.CorePermissions) {
		if _, ok := have[name]; !ok {
			missing = append(missing, &domain.Permission{Name: name, Guard: guard})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.permissions.CreateMany(ctx, missing); err != nil {
		return err
	}
	s.logger.Info("Created permissions",
		log.String("guard", guard),
		log.Any("names", lo.Map(missing, func(p *domain.Permission, _ int) string { return p.Name })),
	)
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context, guard string) error {
	names := s.roleNames()
	existing, err := s.roles.FindMany(ctx, &domain.RoleFilter{Guard: &guard, NameIn: names}, nil)
	if err != nil {
		return err
	}

	have := lo.SliceToMap(existing, func(r *domain.Role) (string, struct{}) { return r.Name, struct{}{} })
	for _, name := range names {
		if _, ok := have[name]; ok {
			continue
		}
		if err := s.roles.Create(ctx, &domain.Role{Name: name, Guard: guard}); err != nil {
			return err
		}
		s.logger.Info("Created role", log.String("guard", guard), log.String("name", name))
	}
	return nil
}

// grantSuperAdmin adds the missing core permissions to the super admin role
// and keeps whatever else it already holds.
func (s *Seeder) grantSuperAdmin(ctx context.Context, guard string) error {
	name := domain.RoleSuperAdmin
	roles, err := s.roles.FindMany(ctx, &domain.RoleFilter{Guard: &guard, Name: &name}, &domain.FindManyOption{
		Preloads: []string{"Permissions"},
	})
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	role := roles[0]

	core, err := s.roles.FindPermissionsByNames(ctx, guard, s.config.CorePermissions)
	if err != nil {
		return err
	}

	held := lo.SliceToMap(role.Permissions, func(p *domain.Permission) (uint, struct{}) { return p.ID, struct{}{} })
	missing := lo.Filter(core, func(p *domain.Permission, _ int) bool {
		_, ok := held[p.ID]
		return !ok
	})
	if len(missing) == 0 {
		return nil
	}

	return s.roles.ReplacePermissions(ctx, role, append(role.Permissions, missing...))
}

func (s *Seeder) seedSuperAdminAccount(ctx context.Context) error {
	if s.config.SuperAdminEmail == "" || s.config.SuperAdminPassword == "" {
		return nil
	}

	email := s.config.SuperAdminEmail
	_, err := s.users.FindOne(ctx, &domain.UserFilter{Email: &email, Trash: domain.TrashFilterAll}, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	hashed, err := s.hasher.Hash(s.config.SuperAdminPassword)
	if err != nil {
		return err
	}
	name := s.config.SuperAdminName
	if name == "" {
		name = "Super Admin"
	}
	user := &domain.User{Name: name, Email: email, Password: hashed}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	roles, err := s.users.FindRolesByNames(ctx, s.config.Guards.Default(), []string{domain.RoleSuperAdmin})
	if err != nil {
		return err
	}
	if err := s.users.ReplaceRoles(ctx, user, roles); err != nil {
		return err
	}

	s.logger.Info("Created super admin account", log.Int64("user_id", int64(user.ID)))
	return nil
}

func (s *Seeder) roleNames() []string {
	return lo.Uniq(append([]string{domain.RoleSuperAdmin}, s.config.CoreRoles...))
}
