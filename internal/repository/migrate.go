package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
)

// InitSchema 初始化本地状态表
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.RatedMark{}, &model.SessionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate local state tables: %w", err)
	}
	return nil
}

// InitServerSchema 初始化开发服务器的表
func InitServerSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.AccountRecord{},
		&model.IdeaRecord{},
		&model.RatingRecord{},
		&model.RatingEvent{},
		&model.CommentRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate server tables: %w", err)
	}
	return nil
}
