package usecase

import (
	"context"
	"errors"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"
	"strings"

	"github.com/samber/lo"
)

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) bool
}

// PermissionCache is cleared whenever a user's role assignment changes.
type PermissionCache interface {
	Forget(ctx context.Context, userID uint) error
}

// SessionRevoker ends the login sessions of users that were deleted.
type SessionRevoker interface {
	DeactivateByUserIDs(ctx context.Context, userIDs []uint) (int64, error)
}

type MediaLibrary interface {
	AttachToCollection(ctx context.Context, owner domain.MediaOwner, collection string, file *domain.UploadFile) (*domain.Media, error)
	ClearCollection(ctx context.Context, owner domain.MediaOwner, collection string) error
	URL(ctx context.Context, owner domain.MediaOwner, collection, rendition string) (string, error)
	FallbackURL(collection, name string) string
}

const (
	avatarThumb = "80x80"
	avatarLarge = "320x320"
)

type userUsecase struct {
	repo     domain.UserRepository
	hasher   Hasher
	media    MediaLibrary
	notifier domain.AccountNotifier
	cache    PermissionCache
	sessions SessionRevoker
	logger   log.Logger
}

func NewUserUsecase(
	repo domain.UserRepository,
	hasher Hasher,
	media MediaLibrary,
	notifier domain.AccountNotifier,
	cache PermissionCache,
	sessions SessionRevoker,
	logger log.Logger,
) domain.UserUsecase {
	return &userUsecase{
		repo:     repo,
		hasher:   hasher,
		media:    media,
		notifier: notifier,
		cache:    cache,
		sessions: sessions,
		logger:   logger,
	}
}

func (u *userUsecase) ListUsers(ctx context.Context, query *domain.ListQuery) (*domain.Page[*domain.User], error) {
	q := domain.ListQuery{}
	if query != nil {
		q = *query
	}
	q.Normalize()

	filter := &domain.UserFilter{Trash: domain.ParseTrashFilter(q.Filter)}
	if q.Search != "" {
		filter.SearchTerm = &q.Search
	}

	users, pagination, err := u.repo.FindPage(ctx, filter, &domain.FindPageOption{
		Preloads: []string{"Roles"},
		Sort:     []string{"users.id ASC"},
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	for _, user := range users {
		u.attachAvatarURL(ctx, user, avatarThumb)
	}
	return domain.NewPage(users, pagination), nil
}

func (u *userUsecase) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	user, err := u.find(ctx, id, domain.TrashFilterWith)
	if err != nil {
		return nil, err
	}
	u.attachAvatarURL(ctx, user, avatarLarge)
	return user, nil
}

func (u *userUsecase) CreateUser(ctx context.Context, req *domain.UserCreateRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if err := u.checkEmailAvailable(ctx, email, nil); err != nil {
		return nil, err
	}

	hashedPassword, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.ErrPasswordHashFailed.WithWrap(err)
	}

	user := &domain.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashedPassword,
	}
	err = u.repo.WithTx(ctx, func(ctx context.Context, repo domain.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		if len(req.Roles) == 0 {
			return nil
		}
		roles, err := repo.FindRolesByNames(ctx, domain.GuardWeb, req.Roles)
		if err != nil {
			return err
		}
		return repo.ReplaceRoles(ctx, user, roles)
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrUserCreationFailed)
	}

	u.logger.InfoContext(ctx, "User created", log.Int64("user_id", int64(user.ID)))
	if u.notifier != nil {
		if err := u.notifier.AccountCreated(ctx, user, req.Password); err != nil {
			u.logger.WarnContext(ctx, "Failed to send account created email",
				log.Int64("user_id", int64(user.ID)),
				log.Error(err),
			)
		}
	}

	return u.GetUser(ctx, user.ID)
}

// UpdateUser applies the non-nil fields of req. Roles are replaced only when
// req.Roles is non-nil. An actor can never update their own account here.
func (u *userUsecase) UpdateUser(ctx context.Context, actor *domain.User, id uint, req *domain.UserUpdateRequest) (*domain.User, error) {
	if actor != nil && actor.ID == id {
		return nil, domain.ErrSelfAction.WithError("You cannot update your own account.")
	}

	user, err := u.find(ctx, id, domain.TrashFilterWithout)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			if err := u.checkEmailAvailable(ctx, email, &user.ID); err != nil {
				return nil, err
			}
		}
		fields["email"] = email
	}
	if req.Password != nil && *req.Password != "" {
		if req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password {
			return nil, domain.FieldError("password", "The password field confirmation does not match.")
		}
		hashedPassword, err := u.hasher.Hash(*req.Password)
		if err != nil {
			return nil, domain.ErrPasswordHashFailed.WithWrap(err)
		}
		fields["password"] = hashedPassword
	}

	err = u.repo.WithTx(ctx, func(ctx context.Context, repo domain.UserRepository) error {
		if len(fields) > 0 {
			if err := repo.UpdateFields(ctx, user.ID, fields); err != nil {
				return err
			}
		}
		if req.Roles == nil {
			return nil
		}
		roles, err := repo.FindRolesByNames(ctx, domain.GuardWeb, req.Roles)
		if err != nil {
			return err
		}
		return repo.ReplaceRoles(ctx, user, roles)
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrUserUpdateFailed)
	}

	if req.Roles != nil {
		u.forget(ctx, user.ID)
	}
	return u.GetUser(ctx, user.ID)
}

func (u *userUsecase) DeleteUser(ctx context.Context, actor *domain.User, id uint) error {
	if actor != nil && actor.ID == id {
		return domain.ErrSelfAction.WithError("You cannot delete your own account.")
	}

	affected, err := u.repo.SoftDelete(ctx, []uint{id})
	if err != nil {
		return domain.ErrUserDeletionFailed.WithWrap(err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	u.forget(ctx, id)
	u.revokeSessions(ctx, []uint{id})
	return nil
}

// RestoreUser is a no-op for a user that is not trashed.
func (u *userUsecase) RestoreUser(ctx context.Context, id uint) error {
	user, err := u.find(ctx, id, domain.TrashFilterWith)
	if err != nil {
		return err
	}
	if !user.IsTrashed() {
		return nil
	}
	if _, err := u.repo.Restore(ctx, []uint{id}); err != nil {
		return domain.ErrUserUpdateFailed.WithWrap(err)
	}
	return nil
}

// ForceDeleteUser permanently removes a trashed user.
func (u *userUsecase) ForceDeleteUser(ctx context.Context, id uint) error {
	user, err := u.find(ctx, id, domain.TrashFilterWith)
	if err != nil {
		return err
	}
	if !user.IsTrashed() {
		return domain.ErrUserNotTrashed
	}
	if _, err := u.repo.ForceDelete(ctx, []uint{id}); err != nil {
		return domain.ErrUserDeletionFailed.WithWrap(err)
	}
	u.clearAvatars(ctx, []uint{id})
	return nil
}

// BulkDeleteUsers soft deletes ids. The actor's own id is left untouched and
// reported.
func (u *userUsecase) BulkDeleteUsers(ctx context.Context, actor *domain.User, ids domain.BulkIDs) (*domain.BulkResult, error) {
	remaining, self := ids.Without(actorID(actor))
	outcome := domain.BulkOutcome{Requested: len(ids), SelfExcluded: self}

	affected, err := u.repo.SoftDelete(ctx, remaining)
	if err != nil {
		return nil, domain.ErrUserDeletionFailed.WithWrap(err)
	}
	outcome.Affected = int(affected)
	for _, id := range remaining {
		u.forget(ctx, id)
	}
	u.revokeSessions(ctx, remaining)
	return domain.SummarizeBulk(domain.BulkEntityUser, domain.BulkActionDelete, outcome), nil
}

// BulkRestoreUsers restores the trashed users among ids; others are skipped.
func (u *userUsecase) BulkRestoreUsers(ctx context.Context, ids domain.BulkIDs) (*domain.BulkResult, error) {
	outcome := domain.BulkOutcome{Requested: len(ids)}

	affected, err := u.repo.Restore(ctx, ids)
	if err != nil {
		return nil, domain.ErrUserUpdateFailed.WithWrap(err)
	}
	outcome.Affected = int(affected)
	return domain.SummarizeBulk(domain.BulkEntityUser, domain.BulkActionRestore, outcome), nil
}

// BulkForceDeleteUsers permanently removes the trashed users among ids. The
// actor's id is dropped before any query runs and users that are not trashed
// are skipped without error.
func (u *userUsecase) BulkForceDeleteUsers(ctx context.Context, actor *domain.User, ids domain.BulkIDs) (*domain.BulkResult, error) {
	remaining, self := ids.Without(actorID(actor))
	outcome := domain.BulkOutcome{Requested: len(ids), SelfExcluded: self}

	var deleted []uint
	err := u.repo.WithTx(ctx, func(ctx context.Context, repo domain.UserRepository) error {
		if len(remaining) == 0 {
			return nil
		}
		trashed, err := repo.FindMany(ctx, &domain.UserFilter{
			IDIn:  remaining,
			Trash: domain.TrashFilterOnly,
		}, nil)
		if err != nil {
			return err
		}
		deleted = lo.Map(trashed, func(user *domain.User, _ int) uint { return user.ID })
		affected, err := repo.ForceDelete(ctx, deleted)
		if err != nil {
			return err
		}
		outcome.Affected = int(affected)
		return nil
	})
	if err != nil {
		return nil, domain.ErrUserDeletionFailed.WithWrap(err)
	}

	u.clearAvatars(ctx, deleted)
	return domain.SummarizeBulk(domain.BulkEntityUser, domain.BulkActionForceDelete, outcome), nil
}

func (u *userUsecase) UpdateAvatar(ctx context.Context, id uint, file *domain.UploadFile) (*domain.User, error) {
	if file == nil {
		return nil, domain.ErrMediaFileRequired
	}
	if !file.IsImage() {
		return nil, domain.ErrMediaInvalidType
	}
	user, err := u.find(ctx, id, domain.TrashFilterWithout)
	if err != nil {
		return nil, err
	}

	owner := domain.MediaOwner{Type: domain.MediaOwnerUser, ID: user.ID}
	if _, err := u.media.AttachToCollection(ctx, owner, domain.MediaCollectionAvatar, file); err != nil {
		return nil, domain.AsDetailedError(err)
	}
	u.attachAvatarURL(ctx, user, avatarLarge)
	return user, nil
}

func (u *userUsecase) find(ctx context.Context, id uint, trash domain.TrashFilter) (*domain.User, error) {
	user, err := u.repo.FindOne(ctx, &domain.UserFilter{ID: &id, Trash: trash}, &domain.FindOneOption{
		Preloads: []string{"Roles"},
	})
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load user"))
	}
	return user, nil
}

func (u *userUsecase) checkEmailAvailable(ctx context.Context, email string, exceptID *uint) error {
	count, err := u.repo.Count(ctx, &domain.UserFilter{Email: &email, IDNe: exceptID})
	if err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	if count > 0 {
		return domain.FieldError("email", domain.MessageEmailTaken)
	}
	return nil
}

func (u *userUsecase) attachAvatarURL(ctx context.Context, user *domain.User, rendition string) {
	if u.media == nil {
		return
	}
	owner := domain.MediaOwner{Type: domain.MediaOwnerUser, ID: user.ID}
	url, err := u.media.URL(ctx, owner, domain.MediaCollectionAvatar, rendition)
	if err != nil {
		u.logger.WarnContext(ctx, "Failed to resolve avatar url", log.Int64("user_id", int64(user.ID)), log.Error(err))
	}
	if url == "" {
		url = u.media.FallbackURL(domain.MediaCollectionAvatar, user.Name)
	}
	user.AvatarURL = url
}

func (u *userUsecase) clearAvatars(ctx context.Context, ids []uint) {
	if u.media == nil {
		return
	}
	for _, id := range ids {
		owner := domain.MediaOwner{Type: domain.MediaOwnerUser, ID: id}
		if err := u.media.ClearCollection(ctx, owner, domain.MediaCollectionAvatar); err != nil {
			u.logger.WarnContext(ctx, "Failed to clear avatar", log.Int64("user_id", int64(id)), log.Error(err))
		}
	}
}

func (u *userUsecase) forget(ctx context.Context, id uint) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Forget(ctx, id); err != nil {
		u.logger.WarnContext(ctx, "Failed to forget cached permissions", log.Int64("user_id", int64(id)), log.Error(err))
	}
}

func (u *userUsecase) revokeSessions(ctx context.Context, ids []uint) {
	if u.sessions == nil || len(ids) == 0 {
		return
	}
	if _, err := u.sessions.DeactivateByUserIDs(ctx, ids); err != nil {
		u.logger.WarnContext(ctx, "Failed to revoke sessions", log.Any("user_ids", ids), log.Error(err))
	}
}

func (u *userUsecase) mapError(err error, fallback *domain.DetailedError) error {
	var de *domain.DetailedError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, domain.ErrRecordNotFound):
		return domain.ErrUserNotFound.WithWrap(err)
	case errors.Is(err, domain.ErrDuplicateRecord):
		return domain.FieldError("email", domain.MessageEmailTaken)
	default:
		return fallback.WithWrap(err)
	}
}

func actorID(actor *domain.User) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}
