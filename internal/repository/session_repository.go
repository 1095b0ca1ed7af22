package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/ideahub/internal/model"
)

// sessionRowID 本地只保存一个会话
const sessionRowID = 1

// SessionRepository 保存登录 token，便于 CLI 多次调用之间复用会话
type SessionRepository interface {
	Save(ctx context.Context, token string, user model.User) error
	Load(ctx context.Context) (*model.SessionRecord, error)
	Clear(ctx context.Context) error
}

type sessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepository{db: db} }

func (r *sessionRepository) Save(ctx context.Context, token string, user model.User) error {
	rec := &model.SessionRecord{
		ID:        sessionRowID,
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

// Load returns nil, nil when no session is stored.
func (r *sessionRepository) Load(ctx context.Context) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	err := r.db.WithContext(ctx).Where("id = ?", sessionRowID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("id = ?", sessionRowID).Delete(&model.SessionRecord{}).Error
}
