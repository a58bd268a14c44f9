package db

import (
	"time"

	"github.com/danchikt/my-messenger/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection with a short retry loop so the
// server can come up before the database container is ready. TranslateError
// lets the store layer tell unique-constraint violations apart from generic
// failures.
func Connect(dsn string) (*gorm.DB, error) {
	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

// Migrate creates or updates every table the messenger persists.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Friendship{},
		&models.BlockedUser{},
		&models.Message{},
		&models.ChannelPost{},
		&models.ChannelComment{},
		&models.ChannelSubscriber{},
		&models.Group{},
		&models.GroupMember{},
		&models.Poll{},
		&models.PollVote{},
		&models.Reaction{},
		&models.PinnedMessage{},
		&models.PinnedContact{},
		&models.Story{},
		&models.StoryView{},
		&models.Bot{},
	)
}
