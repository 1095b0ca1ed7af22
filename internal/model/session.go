package model

import "time"

// SessionRecord 本地持久化的登录会话（单行）
type SessionRecord struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Token     string `gorm:"type:text;not null"`
	UserID    int64
	Username  string `gorm:"type:varchar(64)"`
	Email     string `gorm:"type:varchar(128)"`
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string { return "sessions" }
