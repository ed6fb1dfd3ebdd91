package database

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitGormDB wraps the already-migrated connection so gorm and the squirrel
// queries share one pool and one schema.
func InitGormDB(sqlDB *sql.DB, verbose bool, out io.Writer) (*gorm.DB, error) {
	if out == nil {
		out = os.Stdout
	}
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	gormLogger := logger.New(
		log.New(out, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(&sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}
	return db, nil
}
