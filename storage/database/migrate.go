package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"DignityDialogue/internal/model"
	"DignityDialogue/pkg/logger"
)

// Migrate 创建 intakes / consent_logs / message_logs 三张表
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.Request{},
		&model.ConsentRecord{},
		&model.DispatchRecord{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
