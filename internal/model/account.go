package model

import "time"

// AccountRecord 服务端账号（开发服务器使用）
type AccountRecord struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(64);not null"`
	Email        string `gorm:"type:varchar(128);uniqueIndex:ux_account_email;not null"`
	PasswordHash string `gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AccountRecord) TableName() string { return "accounts" }

func (a AccountRecord) User() User {
	return User{ID: a.ID, Username: a.Username, Email: a.Email}
}
