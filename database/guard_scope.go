package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// FindByGuardAndNames loads the rows of T (a role or permission model) that
// live on guard and carry one of names. Unknown names are ignored.
func FindByGuardAndNames[T any](ctx context.Context, db *gorm.DB, guard string, names []string) ([]*T, error) {
	var rows []*T
	if len(names) == 0 {
		return rows, nil
	}
	err := db.WithContext(ctx).
		Where("guard_name = ? AND name IN ?", guard, names).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// DeletePivotRows removes join table rows whose column references one of ids.
func DeletePivotRows(ctx context.Context, db *gorm.DB, table, column string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", table, column), ids).Error
}

// ReplaceAssociation syncs a many2many association of owner to exactly values.
func ReplaceAssociation[A any](ctx context.Context, db *gorm.DB, owner any, association string, values []*A) error {
	assoc := db.WithContext(ctx).Model(owner).Association(association)
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}
