package database

import (
	"fmt"
	"rbac-admin/pkg/log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config interface {
	Driver() string
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	EnableLog() bool
	LogLevel() string
}

func getDSN(cfg Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host(),
		cfg.User(),
		cfg.Password(),
		cfg.Name(),
		cfg.Port(),
		cfg.SSLMode())
}

func getNamingStrategy() schema.NamingStrategy {
	return schema.NamingStrategy{
		SingularTable: false,
		NoLowerCase:   false,
		NameReplacer:  strings.NewReplacer("CID", "Cid"),
	}
}

func parseLogLevel(enabled bool, level string) logger.LogLevel {
	if !enabled {
		return logger.Silent
	}
	switch level {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

func newLogger(l log.Logger, level logger.LogLevel) logger.Interface {
	loggerConfig := logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      false,
		Colorful:                  false,
	}
	return logger.New(gormWriter{l}, loggerConfig)
}

// gormWriter feeds gorm's formatted SQL and slow query lines into the app logger.
type gormWriter struct {
	l log.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.l.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func gormConfig(l log.Logger, level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		NamingStrategy: getNamingStrategy(),
		Logger:         newLogger(l, level),
		TranslateError: true,
	}
}

func Connect(cfg Config, l log.Logger) (*gorm.DB, error) {
	level := parseLogLevel(cfg.EnableLog(), cfg.LogLevel())

	switch cfg.Driver() {
	case DriverSQLite:
		return OpenSQLite(cfg.Name(), l, level)
	case DriverPostgres, "":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver())
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  getDSN(cfg),
		PreferSimpleProtocol: true,
	}), gormConfig(l, level))
	if err != nil {
		return nil, err
	}

	sDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sDB.SetMaxIdleConns(cfg.MaxIdleConns())
	sDB.SetMaxOpenConns(cfg.MaxOpenConns())
	sDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	return db, nil
}

// OpenSQLite opens a sqlite database at path. In memory databases are pinned
// to a single connection, every new connection would see an empty database.
func OpenSQLite(path string, l log.Logger, level logger.LogLevel) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(l, level))
	if err != nil {
		return nil, err
	}

	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		sDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenInMemory opens a private migrated sqlite database.
func OpenInMemory(l log.Logger) (*gorm.DB, error) {
	db, err := OpenSQLite(":memory:", l, logger.Silent)
	if err != nil {
		return nil, err
	}
	if err := MigrateDB(db); err != nil {
		return nil, err
	}
	return db, nil
}
