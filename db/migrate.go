package db

import (
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"gorm.io/gorm"
)

// Models lists every table the API owns, in creation order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Session{},
		&models.PasswordResetToken{},
		&models.Pet{},
		&models.PetPhoto{},
		&models.Favorite{},
		&models.Booking{},
		&models.BlockedDate{},
		&models.Conversation{},
		&models.Message{},
		&models.Offer{},
		&models.Notification{},
		&models.NotificationSettings{},
		&models.Review{},
		&models.ReviewHelpful{},
		&models.Report{},
		&models.HealthRecord{},
		&models.Reminder{},
		&models.CareInstruction{},
		&models.Transaction{},
		&models.Payout{},
	}
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}

func Migrate() {
	// Initialize DB connection
	Init()

	if err := AutoMigrate(DB); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run migrations")
	}
	logger.Log.Info("Migrations applied successfully")
}
