package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type UserSessionRepository struct {
	sqlHandler *database.SQLHandler[domain.UserSession, domain.UserSessionFilter]
}

func NewUserSessionRepository(db *gorm.DB) *UserSessionRepository {
	sqlHandler := database.NewSQLHandler[domain.UserSession](db, applyFilter)
	return &UserSessionRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.UserSessionFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if len(filter.UserIDIn) > 0 {
		qb = qb.Where("user_id IN ?", filter.UserIDIn)
	}
	if filter.RefreshToken != nil {
		qb = qb.Where("refresh_token = ?", *filter.RefreshToken)
	}
	if filter.Active != nil {
		qb = qb.Where("active = ?", *filter.Active)
	}

	return qb
}

func (r *UserSessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	return r.sqlHandler.Create(ctx, session)
}

func (r *UserSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.UserSession, error) {
	return r.sqlHandler.FindOne(ctx, &domain.UserSessionFilter{ID: &sessionID}, nil)
}

func (r *UserSessionRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.UserSession, error) {
	return r.sqlHandler.FindOne(ctx, &domain.UserSessionFilter{RefreshToken: &refreshToken}, nil)
}

func (r *UserSessionRepository) Update(ctx context.Context, session *domain.UserSession) error {
	return r.sqlHandler.Update(ctx, session)
}

// DeactivateByUserIDs ends every active session of the given users.
func (r *UserSessionRepository) DeactivateByUserIDs(ctx context.Context, userIDs []uint) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	active := true
	return r.sqlHandler.UpdateManyFields(ctx, &domain.UserSessionFilter{
		UserIDIn: userIDs,
		Active:   &active,
	}, map[string]any{
		"active":        false,
		"refresh_token": "",
	})
}
