package db

import (
	"time"

	"github.com/aihub-ir/aihub/internal/chat"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/genjob"
	"github.com/aihub-ir/aihub/internal/models"
	"github.com/aihub-ir/aihub/pkg/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the MySQL connection and configures the pool.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&credit.Transaction{},
		&chat.Chat{},
		&chat.Message{},
		&genjob.Job{},
	)
}
