package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

var ErrIdeaNotFound = apperr.New(apperr.KindNotFound, "idea not found")

// trendingOrder 上升的排前面，其次按评分人数、再按新旧
const trendingOrder = "CASE trend WHEN 'up' THEN 0 WHEN 'neutral' THEN 1 ELSE 2 END, ratings_count DESC, id DESC"

// IdeaRepository 创意仓储
type IdeaRepository interface {
	Create(ctx context.Context, idea *model.IdeaRecord) error
	Get(ctx context.Context, id int64) (*model.IdeaRecord, error)
	// List 返回全部创意；trending 为 true 时按热度排序，否则按创建顺序
	List(ctx context.Context, trending bool) ([]*model.IdeaRecord, error)
	Update(ctx context.Context, id int64, title, description string) error
	// Delete 连同评分、评分事件、评论一起删除
	Delete(ctx context.Context, id int64) error
	SetTrend(ctx context.Context, id int64, trend model.Trend) error
	IncrementComments(ctx context.Context, id int64) error
}

type ideaRepository struct{ db *gorm.DB }

func NewIdeaRepository(db *gorm.DB) IdeaRepository { return &ideaRepository{db: db} }

func (r *ideaRepository) Create(ctx context.Context, idea *model.IdeaRecord) error {
	if idea.Trend == "" {
		idea.Trend = model.TrendNeutral.String()
	}
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *ideaRepository) Get(ctx context.Context, id int64) (*model.IdeaRecord, error) {
	var idea model.IdeaRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) List(ctx context.Context, trending bool) ([]*model.IdeaRecord, error) {
	var res []*model.IdeaRecord
	q := r.db.WithContext(ctx)
	if trending {
		q = q.Order(trendingOrder)
	} else {
		q = q.Order("id")
	}
	err := q.Find(&res).Error
	return res, err
}

func (r *ideaRepository) Update(ctx context.Context, id int64, title, description string) error {
	res := r.db.WithContext(ctx).
		Model(&model.IdeaRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "description": description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIdeaNotFound
	}
	return nil
}

func (r *ideaRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.IdeaRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIdeaNotFound
		}
		if err := tx.Where("idea_id = ?", id).Delete(&model.RatingRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("idea_id = ?", id).Delete(&model.RatingEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("idea_id = ?", id).Delete(&model.CommentRecord{}).Error
	})
}

func (r *ideaRepository) SetTrend(ctx context.Context, id int64, trend model.Trend) error {
	return r.db.WithContext(ctx).
		Model(&model.IdeaRecord{}).
		Where("id = ?", id).
		Update("trend", trend.String()).Error
}

func (r *ideaRepository) IncrementComments(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.IdeaRecord{}).
		Where("id = ?", id).
		UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
}
