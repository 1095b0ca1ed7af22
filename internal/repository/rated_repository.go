package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/ideahub/internal/model"
)

// RatedRepository 持久化"某用户已评分某创意"标记
type RatedRepository interface {
	Mark(ctx context.Context, userID, ideaID int64) error
	Exists(ctx context.Context, userID, ideaID int64) (bool, error)
	ListIdeaIDs(ctx context.Context, userID int64) ([]int64, error)
}

type ratedRepository struct {
	db *gorm.DB
}

func NewRatedRepository(db *gorm.DB) RatedRepository { return &ratedRepository{db: db} }

func (r *ratedRepository) Mark(ctx context.Context, userID, ideaID int64) error {
	m := &model.RatedMark{UserID: userID, IdeaID: ideaID, CreatedAt: time.Now()}
	// 幂等：重复标记不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

func (r *ratedRepository) Exists(ctx context.Context, userID, ideaID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.RatedMark{}).
		Where("user_id = ? AND idea_id = ?", userID, ideaID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *ratedRepository) ListIdeaIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.RatedMark{}).
		Where("user_id = ?", userID).
		Order("idea_id").
		Pluck("idea_id", &ids).Error
	return ids, err
}
