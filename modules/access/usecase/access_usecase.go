package usecase

import (
	"context"
	"errors"
	"rbac-admin/domain"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/log"
	"time"

	"golang.org/x/sync/singleflight"
)

const permissionKeyPrefix = "access:permissions"

type UserRepository interface {
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
}

type accessUsecase struct {
	users  UserRepository
	cache  cache.Client
	ttl    time.Duration
	group  singleflight.Group
	logger log.Logger
}

func NewAccessUsecase(users UserRepository, cacheClient cache.Client, ttl time.Duration, logger log.Logger) domain.AccessUsecase {
	return &accessUsecase{
		users:  users,
		cache:  cacheClient,
		ttl:    ttl,
		logger: logger,
	}
}

func permissionKey(userID uint) string {
	return cache.Key(permissionKeyPrefix, userID)
}

func (u *accessUsecase) PermissionsOf(ctx context.Context, userID uint) ([]string, error) {
	key := permissionKey(userID)

	var names []string
	err := u.cache.GetJSON(ctx, key, &names)
	if err == nil {
		return names, nil
	}
	if !errors.Is(err, cache.ErrKeyNotFound) {
		u.logger.WarnContext(ctx, "Permission cache read failed", log.String("key", key), log.Error(err))
	}

	// concurrent misses for the same user share one database read
	v, err, _ := u.group.Do(key, func() (interface{}, error) {
		user, err := u.users.FindOne(ctx, &domain.UserFilter{ID: &userID}, &domain.FindOneOption{
			Preloads: []string{"Roles.Permissions"},
		})
		if err != nil {
			return nil, err
		}

		names := user.PermissionNames()
		if err := u.cache.SetJSON(ctx, key, names, u.ttl); err != nil {
			u.logger.WarnContext(ctx, "Permission cache write failed", log.String("key", key), log.Error(err))
		}
		return names, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound.WithWrap(err)
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return v.([]string), nil
}

func (u *accessUsecase) Can(ctx context.Context, user *domain.User, permissions ...string) (bool, error) {
	if user == nil {
		return false, nil
	}
	granted, err := u.PermissionsOf(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return domain.HasAnyPermission(granted, permissions...), nil
}

func (u *accessUsecase) Invalidate(ctx context.Context) error {
	return u.cache.DeletePattern(ctx, permissionKeyPrefix+":*")
}

func (u *accessUsecase) Forget(ctx context.Context, userID uint) error {
	return u.cache.Delete(ctx, permissionKey(userID))
}
