package devserver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/ideahub/internal/model"
)

// RatingRecorder 在一个事务内写评分、重算均值、写评分事件
type RatingRecorder struct{ db *gorm.DB }

func NewRatingRecorder(db *gorm.DB) *RatingRecorder { return &RatingRecorder{db: db} }

type aggregateRow struct {
	Cnt int64
	Nov float64
	Fea float64
}

// Record stores one rating and returns the idea with recomputed averages.
// A second rating by the same user fails with ErrAlreadyRated.
func (r *RatingRecorder) Record(ctx context.Context, ideaID, userID int64, in model.RatingInput) (*model.IdeaRecord, error) {
	now := time.Now()
	var out model.IdeaRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rating := &model.RatingRecord{
			ID:          uuid.NewString(),
			IdeaID:      ideaID,
			UserID:      userID,
			Novelty:     in.Novelty,
			Feasibility: in.Feasibility,
			CreatedAt:   now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rating)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRated
		}

		var agg aggregateRow
		if err := tx.Model(&model.RatingRecord{}).
			Select("COUNT(*) AS cnt, AVG(novelty) AS nov, AVG(feasibility) AS fea").
			Where("idea_id = ?", ideaID).
			Scan(&agg).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.IdeaRecord{}).
			Where("id = ?", ideaID).
			Updates(map[string]any{"avg_novelty": agg.Nov, "avg_feasibility": agg.Fea, "ratings_count": agg.Cnt}).Error; err != nil {
			return err
		}

		ev := &model.RatingEvent{ID: uuid.NewString(), RatingID: rating.ID, IdeaID: ideaID, CreatedAt: now, Status: model.EventPending}
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", ideaID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
