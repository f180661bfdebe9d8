package repository

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"

	"gorm.io/gorm"
)

type MediaRepository struct {
	sqlHandler *database.SQLHandler[domain.Media, domain.MediaFilter]
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	sqlHandler := database.NewSQLHandler[domain.Media](db, applyFilter)
	return &MediaRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.MediaFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ModelType != nil {
		qb = qb.Where("media.model_type = ?", *filter.ModelType)
	}
	if filter.ModelID != nil {
		qb = qb.Where("media.model_id = ?", *filter.ModelID)
	}
	if len(filter.ModelIDIn) > 0 {
		qb = qb.Where("media.model_id IN ?", filter.ModelIDIn)
	}
	if filter.Collection != nil {
		qb = qb.Where("media.collection = ?", *filter.Collection)
	}

	return qb
}

func (r *MediaRepository) Create(ctx context.Context, media *domain.Media) error {
	return r.sqlHandler.Create(ctx, media)
}

func (r *MediaRepository) FindOne(ctx context.Context, filter *domain.MediaFilter, option *domain.FindOneOption) (*domain.Media, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *MediaRepository) FindMany(ctx context.Context, filter *domain.MediaFilter, option *domain.FindManyOption) ([]*domain.Media, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *MediaRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	return r.sqlHandler.DeleteByIDs(ctx, ids)
}
