package database

import (
	"fmt"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	logging "github.com/Daniel-T-Dada/vector-interview-app/internal/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// indexes are created after AutoMigrate, which does not manage them.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_submissions_interview ON submissions (interview_id, completed_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_interview ON candidates (interview_id);`,
}

// DSN builds the postgres connection string for dbConf.
func DSN(dbConf config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)
}

// Open connects to postgres with SQL traces routed through log.
func Open(dbConf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(dbConf)), &gorm.Config{
		Logger:         logging.NewGormZapLogger(log, logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established successfully.",
		zap.String("host", dbConf.Host),
		zap.String("dbname", dbConf.DBName),
	)
	return db, nil
}

// Migrate creates or updates the tables for records and ensures the
// custom indexes exist.
func Migrate(db *gorm.DB, log *zap.Logger, records ...any) error {
	if err := db.AutoMigrate(records...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
