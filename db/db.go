package db

import (
	"context"
	"time"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init establishes the DB connection without running migrations
func Init() {
	dbURL := config.App.DatabaseURL
	if dbURL == "" {
		logger.Log.Fatal("DATABASE_URL is not set")
	}

	db, err := Open(postgres.Open(dbURL))
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	DB = db
	logger.Log.Info("Database connection established")
}

// Open connects through the given dialector with the settings every
// environment shares.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Ping checks connectivity for the health endpoint.
func Ping(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
