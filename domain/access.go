package domain

import (
	"context"
	"strings"
)

// PermissionCache is cleared whenever a write changes who holds which permission.
type PermissionCache interface {
	Invalidate(ctx context.Context) error
}

// AccessUsecase resolves what an authenticated user may do.
type AccessUsecase interface {
	// PermissionsOf returns the lower cased permission names the user holds
	// through their roles.
	PermissionsOf(ctx context.Context, userID uint) ([]string, error)
	// Can reports whether user holds any of permissions. Names compare case
	// insensitively.
	Can(ctx context.Context, user *User, permissions ...string) (bool, error)
	// Invalidate drops every cached permission set.
	Invalidate(ctx context.Context) error
	// Forget drops the cached permission set of one user.
	Forget(ctx context.Context, userID uint) error
}

// HasAnyPermission reports whether granted contains any of required.
func HasAnyPermission(granted []string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[normalizeName(g)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[strings.ToLower(strings.TrimSpace(r))]; ok {
			return true
		}
	}
	return false
}
