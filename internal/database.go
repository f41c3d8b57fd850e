package internal

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"community-admin/apiv1"
	"community-admin/internal/config"
)

// OpenDatabase connects to the database described by the settings.
// logLevel is the application log level; gorm logs one step quieter.
func OpenDatabase(settings config.DatabaseSettings, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch settings.Type {
	case config.SqliteDbType:
		dialector = sqlite.Open(settings.DSN)
	case config.PostgresDbType:
		dialector = postgres.Open(settings.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", settings.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: utcNow,
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogLevel(logLevel),
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", settings.Type, err)
	}

	return db, nil
}

// utcNow stamps autoCreateTime and autoUpdateTime columns. SQLite keeps times as
// text, so every row must carry the same offset for created_at to sort correctly.
func utcNow() time.Time {
	return time.Now().UTC()
}

// Migrate creates or updates the tables of every persisted type
func Migrate(db *gorm.DB) error {
	migrations := []func() error{
		NewDAO[apiv1.PartnerTestimonial](db).AutoMigrate,
		NewDAO[apiv1.Admin](db).AutoMigrate,
		NewDAO[StoredObject](db).AutoMigrate,
	}
	for _, migrate := range migrations {
		if err := migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return nil
}

// CloseDatabase closes the underlying connection pool
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case config.LogLevelDebug:
		return gormlogger.Info
	case config.LogLevelInfo, config.LogLevelWarning:
		return gormlogger.Warn
	case config.LogLevelError:
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
