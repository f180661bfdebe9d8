package database

import (
	"context"
	"errors"
	"fmt"
	"rbac-admin/domain"
	"strings"

	"gorm.io/gorm"
)

type SQLHandler[T any, V any] struct {
	db          *gorm.DB
	applyFilter func(*gorm.DB, *V) *gorm.DB
}

func NewSQLHandler[T any, V any](
	db *gorm.DB,
	applyFilter func(*gorm.DB, *V) *gorm.DB,

) *SQLHandler[T, V] {
	return &SQLHandler[T, V]{applyFilter: applyFilter, db: db}
}

// DB returns the handle the handler is bound to, a transaction when it was
// cloned by WithDB.
func (h *SQLHandler[T, V]) DB() *gorm.DB {
	return h.db
}

// WithDB clones the handler onto another handle, usually a transaction.
func (h *SQLHandler[T, V]) WithDB(db *gorm.DB) *SQLHandler[T, V] {
	return &SQLHandler[T, V]{applyFilter: h.applyFilter, db: db}
}

// Transaction runs fn inside a database transaction. fn receives a handler
// bound to the transaction.
func (h *SQLHandler[T, V]) Transaction(ctx context.Context, fn func(tx *SQLHandler[T, V]) error) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(h.WithDB(tx))
	})
}

type DBOption func(*gorm.DB) *gorm.DB

func WithOmit(fields ...string) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Omit(fields...)
	}
}

// WithUnscoped disables the soft delete scope, reads include trashed rows and
// deletes become physical.
func WithUnscoped() DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}
}

func WithPreloads(fields ...string) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		for _, field := range fields {
			db = db.Preload(field)
		}
		return db
	}
}

func (h *SQLHandler[T, V]) applyDBOptions(opts ...DBOption) *gorm.DB {
	qb := h.db
	for _, opt := range opts {
		qb = opt(qb)
	}
	return qb
}

func (h *SQLHandler[T, V]) filter(db *gorm.DB, filter *V) *gorm.DB {
	if filter == nil || h.applyFilter == nil {
		return db
	}
	return h.applyFilter(db, filter)
}

func (h *SQLHandler[T, V]) Create(ctx context.Context, entity *T, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	return translateError(execDB.WithContext(ctx).Create(entity).Error)
}

func (h *SQLHandler[T, V]) CreateMany(ctx context.Context, entities []*T, opts ...DBOption) error {
	if len(entities) == 0 {
		return nil
	}
	execDB := h.applyDBOptions(opts...)
	return translateError(execDB.WithContext(ctx).Create(&entities).Error)
}

func (h *SQLHandler[T, V]) FindByID(ctx context.Context, id uint, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = applyFindOneOption(execDB, option)

	var entity T
	err := execDB.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err == nil {
		return &entity, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	return nil, err
}

func (h *SQLHandler[T, V]) FindOne(ctx context.Context, filter *V, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)
	execDB = applyFindOneOption(execDB, option)

	var entity T
	err := execDB.WithContext(ctx).First(&entity).Error
	if err == nil {
		return &entity, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	return nil, err
}

func applyFindOneOption(db *gorm.DB, option *domain.FindOneOption) *gorm.DB {
	if option == nil {
		return db
	}
	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}
	for _, field := range option.Preloads {
		db = db.Preload(field)
	}
	return db
}

func applyFindManyOption(db *gorm.DB, option *domain.FindManyOption) *gorm.DB {
	if option == nil {
		return db
	}

	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}

	if option.Limit != nil {
		db = db.Limit(*option.Limit)
	}

	if option.Offset != nil {
		db = db.Offset(*option.Offset)
	}

	for _, field := range option.Preloads {
		db = db.Preload(field)
	}

	for _, field := range option.Joins {
		db = db.Joins(field)
	}
	return db
}

func (h *SQLHandler[T, V]) FindMany(ctx context.Context, filter *V, option *domain.FindManyOption, opts ...DBOption) ([]*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)
	execDB = applyFindManyOption(execDB, option)

	var entities []*T
	err := execDB.WithContext(ctx).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func applyFindPageOption(db *gorm.DB, option *domain.FindPageOption, total int64) (outDB *gorm.DB, page, perPage int) {
	outDB = db
	page = 1
	perPage = domain.DefaultPerPage
	if option != nil {
		for _, sortField := range option.Sort {
			outDB = outDB.Order(sortField)
		}
		page = domain.NormalizePage(option.Page)
		perPage = domain.NormalizePerPage(option.PerPage)

		for _, field := range option.Preloads {
			outDB = outDB.Preload(field)
		}
	}
	outDB = outDB.Offset(domain.PageOffset(page, perPage, total)).Limit(perPage)
	return
}

func (h *SQLHandler[T, V]) FindPage(ctx context.Context, filter *V, option *domain.FindPageOption, opts ...DBOption) ([]*T, *domain.Pagination, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)

	var totalItems int64
	countDB := execDB.Session(&gorm.Session{}) // clone for count
	err := countDB.WithContext(ctx).Model(new(T)).Count(&totalItems).Error
	if err != nil {
		return nil, nil, err
	}

	execDB, page, perPage := applyFindPageOption(execDB.Session(&gorm.Session{}), option, totalItems)

	var entities []*T
	err = execDB.WithContext(ctx).Find(&entities).Error
	if err != nil {
		return nil, nil, err
	}

	return entities, domain.NewPagination(page, perPage, totalItems, len(entities)), nil
}

func (h *SQLHandler[T, V]) Update(ctx context.Context, entity *T, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	return translateError(execDB.WithContext(ctx).Save(entity).Error)
}

func (h *SQLHandler[T, V]) UpdateFields(ctx context.Context, id uint, fields map[string]any, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	var entity T
	return translateError(execDB.WithContext(ctx).Model(&entity).Where("id = ?", id).Updates(fields).Error)
}

// UpdateManyFields applies fields to every row matching filter and returns the
// number of rows changed.
func (h *SQLHandler[T, V]) UpdateManyFields(ctx context.Context, filter *V, fields map[string]any, opts ...DBOption) (int64, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)
	res := execDB.WithContext(ctx).Model(new(T)).Updates(fields)
	return res.RowsAffected, translateError(res.Error)
}

// DeleteByIDs deletes the rows with the given ids. Models with a gorm
// DeletedAt field are soft deleted unless WithUnscoped is passed.
func (h *SQLHandler[T, V]) DeleteByIDs(ctx context.Context, ids []uint, opts ...DBOption) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	execDB := h.applyDBOptions(opts...)
	res := execDB.WithContext(ctx).Where("id IN ?", ids).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (h *SQLHandler[T, V]) DeleteMany(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)
	res := execDB.WithContext(ctx).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (h *SQLHandler[T, V]) Count(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	var count int64
	execDB := h.applyDBOptions(opts...)
	execDB = h.filter(execDB, filter)
	err := execDB.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

// ApplySearch adds a case-insensitive substring match of searchTerm against
// any of columns. It runs unchanged on postgres and sqlite.
// Example: ApplySearch(db, "ann", "users.name", "users.email")
func ApplySearch(db *gorm.DB, searchTerm string, columns ...string) *gorm.DB {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" || len(columns) == 0 {
		return db
	}

	pattern := "%" + escapeLike(strings.ToLower(searchTerm)) + "%"
	conditions := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		conditions[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column)
		args[i] = pattern
	}
	return db.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// IsUniqueViolation reports whether err is a unique constraint failure on
// postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func translateError(err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateRecord, err)
	}
	return err
}
