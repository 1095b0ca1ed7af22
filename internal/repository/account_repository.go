package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

var ErrAccountNotFound = apperr.New(apperr.KindNotFound, "account not found")

// AccountRepository 账号仓储
type AccountRepository interface {
	Create(ctx context.Context, acc *model.AccountRecord) error
	GetByID(ctx context.Context, id int64) (*model.AccountRecord, error)
	GetByEmail(ctx context.Context, email string) (*model.AccountRecord, error)
	// GetUsers 批量查作者信息，缺失的 id 不出现在结果里
	GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) error
}

type accountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) Create(ctx context.Context, acc *model.AccountRecord) error {
	acc.Email = strings.ToLower(strings.TrimSpace(acc.Email))
	return r.db.WithContext(ctx).Create(acc).Error
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*model.AccountRecord, error) {
	var acc model.AccountRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.AccountRecord, error) {
	var acc model.AccountRecord
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepository) GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.AccountRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a.User()
	}
	return out, nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, id int64, username, email string) error {
	return r.db.WithContext(ctx).
		Model(&model.AccountRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"username": username, "email": strings.ToLower(strings.TrimSpace(email))}).Error
}
