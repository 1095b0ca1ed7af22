package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
)

// CommentRepository 评论仓储，只增不改
type CommentRepository interface {
	Create(ctx context.Context, c *model.CommentRecord) error
	ListByIdea(ctx context.Context, ideaID int64) ([]*model.CommentRecord, error)
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.CommentRecord) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) ListByIdea(ctx context.Context, ideaID int64) ([]*model.CommentRecord, error) {
	var res []*model.CommentRecord
	err := r.db.WithContext(ctx).Where("idea_id = ?", ideaID).Order("id").Find(&res).Error
	return res, err
}
