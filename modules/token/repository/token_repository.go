package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type TokenRepository struct {
	sqlHandler *database.SQLHandler[domain.Token, domain.TokenFilter]
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	sqlHandler := database.NewSQLHandler[domain.Token](db, applyFilter)
	return &TokenRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.TokenFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("tokens.id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("tokens.id IN ?", filter.IDIn)
	}
	if filter.UserID != nil {
		qb = qb.Where("tokens.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		qb = qb.Where("tokens.status = ?", *filter.Status)
	}
	if filter.Network != nil {
		qb = qb.Where("tokens.network = ?", *filter.Network)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, "tokens.name", "tokens.symbol")
	}

	return qb
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	return r.sqlHandler.Create(ctx, token)
}

func (r *TokenRepository) FindByID(ctx context.Context, id uint, option *domain.FindOneOption) (*domain.Token, error) {
	return r.sqlHandler.FindByID(ctx, id, option)
}

func (r *TokenRepository) FindMany(ctx context.Context, filter *domain.TokenFilter, option *domain.FindManyOption) ([]*domain.Token, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *TokenRepository) FindPage(ctx context.Context, filter *domain.TokenFilter, option *domain.FindPageOption) ([]*domain.Token, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *TokenRepository) Update(ctx context.Context, token *domain.Token) error {
	return r.sqlHandler.Update(ctx, token)
}

func (r *TokenRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}
