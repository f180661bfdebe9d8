package database

import (
	"rbac-admin/domain"

	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Permission{},
		&domain.Role{},
		&domain.User{},
		&domain.UserSession{},
		&domain.Media{},
		&domain.Token{},
	)
}
