package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trimsdesk/internal/docstore"
)

// NewMySQL returns a connected GORM DB instance whose SQL log goes to log.
func NewMySQL(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Prepare migrates the documents table, dropping it first when reset is set.
func Prepare(db *gorm.DB, reset bool) error {
	if reset {
		if err := db.Migrator().DropTable(&docstore.Record{}); err != nil {
			return fmt.Errorf("drop documents: %w", err)
		}
	}
	if err := db.AutoMigrate(&docstore.Record{}); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// OpenStore returns the document store selected by backend: "memory" for a
// process-local store, anything else for MySQL at dsn.
func OpenStore(backend, dsn string, reset bool, log logrus.FieldLogger) (docstore.Store, error) {
	if backend == "memory" {
		log.Warn("using in-memory document store, data is lost on exit")
		return docstore.NewMemory(), nil
	}
	gormDB, err := NewMySQL(dsn, log)
	if err != nil {
		return nil, err
	}
	if reset {
		log.Warn("RESET_DB=true detected, dropping documents table")
	}
	if err := Prepare(gormDB, reset); err != nil {
		return nil, err
	}
	return docstore.NewSQL(gormDB), nil
}
