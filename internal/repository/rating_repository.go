package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
)

// WindowStats 某创意在时间窗内外的综合分均值
type WindowStats struct {
	RecentCount int64
	RecentAvg   float64
	PriorCount  int64
	PriorAvg    float64
}

// RatingRepository 评分仓储（写入在事务里由服务层完成）
type RatingRepository interface {
	Exists(ctx context.Context, ideaID, userID int64) (bool, error)
	Window(ctx context.Context, ideaID int64, since time.Time) (WindowStats, error)
	// ActiveIdeaIDs 返回 since 之后有评分的创意
	ActiveIdeaIDs(ctx context.Context, since time.Time) ([]int64, error)
}

type ratingRepository struct{ db *gorm.DB }

func NewRatingRepository(db *gorm.DB) RatingRepository { return &ratingRepository{db: db} }

func (r *ratingRepository) Exists(ctx context.Context, ideaID, userID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.RatingRecord{}).
		Where("idea_id = ? AND user_id = ?", ideaID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

type windowRow struct {
	Cnt int64
	Avg float64
}

func (r *ratingRepository) Window(ctx context.Context, ideaID int64, since time.Time) (WindowStats, error) {
	var recent, prior windowRow
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.RatingRecord{}).
			Select("COUNT(*) AS cnt, COALESCE(AVG((novelty + feasibility) / 2.0), 0) AS avg").
			Where("idea_id = ?", ideaID)
	}
	if err := base().Where("created_at >= ?", since).Scan(&recent).Error; err != nil {
		return WindowStats{}, err
	}
	if err := base().Where("created_at < ?", since).Scan(&prior).Error; err != nil {
		return WindowStats{}, err
	}
	return WindowStats{RecentCount: recent.Cnt, RecentAvg: recent.Avg, PriorCount: prior.Cnt, PriorAvg: prior.Avg}, nil
}

func (r *ratingRepository) ActiveIdeaIDs(ctx context.Context, since time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.RatingRecord{}).
		Where("created_at >= ?", since).
		Distinct().
		Order("idea_id").
		Pluck("idea_id", &ids).Error
	return ids, err
}
