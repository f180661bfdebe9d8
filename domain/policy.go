package domain

import "strings"

const (
	GuardWeb = "web"
	GuardAPI = "api"
)

// Permission names the access gate checks.
const (
	PermissionViewTokens        = "view tokens"
	PermissionCreateTokens      = "create tokens"
	PermissionEditTokens        = "edit tokens"
	PermissionDeleteTokens      = "delete tokens"
	PermissionManageUsers       = "manage users"
	PermissionManageRoles       = "manage roles"
	PermissionManagePermissions = "manage permissions"
	PermissionManageSettings    = "manage settings"

	RoleSuperAdmin = "super-admin"
)

// ProtectedNames holds the role and permission names that bulk deletion must
// never remove. It is built from configuration and injected into usecases.
type ProtectedNames struct {
	permissions map[string]struct{}
	roles       map[string]struct{}
}

func NewProtectedNames(permissions, roles []string) *ProtectedNames {
	p := &ProtectedNames{
		permissions: make(map[string]struct{}, len(permissions)),
		roles:       make(map[string]struct{}, len(roles)),
	}
	for _, name := range permissions {
		p.permissions[normalizeName(name)] = struct{}{}
	}
	for _, name := range roles {
		p.roles[normalizeName(name)] = struct{}{}
	}
	return p
}

func DefaultCorePermissions() []string {
	return []string{
		PermissionViewTokens,
		PermissionCreateTokens,
		PermissionEditTokens,
		PermissionDeleteTokens,
		PermissionManageUsers,
		PermissionManageRoles,
		PermissionManagePermissions,
		PermissionManageSettings,
	}
}

func DefaultCoreRoles() []string {
	return []string{RoleSuperAdmin}
}

func DefaultProtectedNames() *ProtectedNames {
	return NewProtectedNames(DefaultCorePermissions(), DefaultCoreRoles())
}

func (p *ProtectedNames) IsProtectedPermission(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.permissions[normalizeName(name)]
	return ok
}

func (p *ProtectedNames) IsProtectedRole(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.roles[normalizeName(name)]
	return ok
}

// GuardSet is the list of guards a deployment knows about. The first entry is
// the default guard.
type GuardSet []string

func (g GuardSet) Default() string {
	if len(g) == 0 {
		return GuardWeb
	}
	return g[0]
}

func (g GuardSet) Contains(guard string) bool {
	for _, name := range g {
		if name == guard {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
