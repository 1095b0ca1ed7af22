package devserver

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/validation"
)

// Service 开发服务器的业务规则：谁能评分、谁能改删、均值由谁算
type Service interface {
	Register(ctx context.Context, in model.Credentials) (model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, userID int64) (model.User, error)
	UpdateProfile(ctx context.Context, userID int64, in model.ProfileInput) (model.User, error)

	ListIdeas(ctx context.Context, sort string) ([]model.Idea, error)
	GetIdea(ctx context.Context, id int64) (model.Idea, error)
	CreateIdea(ctx context.Context, userID int64, in model.IdeaInput) (model.Idea, error)
	UpdateIdea(ctx context.Context, userID, id int64, in model.IdeaInput) (model.Idea, error)
	DeleteIdea(ctx context.Context, userID, id int64) error

	RateIdea(ctx context.Context, userID, id int64, in model.RatingInput) (model.Idea, error)
	HasRated(ctx context.Context, userID, id int64) (bool, error)

	ListComments(ctx context.Context, id int64) ([]model.Comment, error)
	AddComment(ctx context.Context, userID, id int64, text string) (model.Comment, error)
}

type service struct {
	auth     *Auth
	accounts repository.AccountRepository
	ideas    repository.IdeaRepository
	ratings  repository.RatingRepository
	comments repository.CommentRepository
	recorder *RatingRecorder
}

func NewService(auth *Auth, accounts repository.AccountRepository, ideas repository.IdeaRepository,
	ratings repository.RatingRepository, comments repository.CommentRepository, recorder *RatingRecorder) Service {
	return &service{auth: auth, accounts: accounts, ideas: ideas, ratings: ratings, comments: comments, recorder: recorder}
}

// NewServiceFromDB wires the default gorm repositories on db.
func NewServiceFromDB(db *gorm.DB, auth *Auth) Service {
	return NewService(auth,
		repository.NewAccountRepository(db),
		repository.NewIdeaRepository(db),
		repository.NewRatingRepository(db),
		repository.NewCommentRepository(db),
		NewRatingRecorder(db),
	)
}

func (s *service) Register(ctx context.Context, in model.Credentials) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	if in.Username == "" {
		return model.User{}, apperr.New(apperr.KindValidation, "username is required")
	}
	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return model.User{}, err
	}
	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}
	acc := &model.AccountRecord{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return model.User{}, err
	}
	logger.Info("account registered", zap.Int64("user", acc.ID), zap.String("username", acc.Username))
	return acc.User(), nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.auth.CheckPassword(acc.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.auth.Issue(acc.ID)
}

func (s *service) CurrentUser(ctx context.Context, userID int64) (model.User, error) {
	acc, err := s.accounts.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, err
	}
	return acc.User(), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, in model.ProfileInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	if other, err := s.accounts.GetByEmail(ctx, in.Email); err == nil && other.ID != userID {
		return model.User{}, ErrEmailTaken
	}
	if err := s.accounts.UpdateProfile(ctx, userID, in.Username, in.Email); err != nil {
		return model.User{}, err
	}
	return s.CurrentUser(ctx, userID)
}

func (s *service) ListIdeas(ctx context.Context, sort string) ([]model.Idea, error) {
	rows, err := s.ideas.List(ctx, strings.EqualFold(strings.TrimSpace(sort), "trending"))
	if err != nil {
		return nil, err
	}
	authorIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	users, err := s.accounts.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]model.Idea, len(rows))
	for i, r := range rows {
		out[i] = r.Idea(authorOf(users, r.AuthorID))
	}
	return out, nil
}

func (s *service) GetIdea(ctx context.Context, id int64) (model.Idea, error) {
	row, err := s.ideas.Get(ctx, id)
	if err != nil {
		return model.Idea{}, err
	}
	return s.project(ctx, row)
}

func (s *service) project(ctx context.Context, row *model.IdeaRecord) (model.Idea, error) {
	users, err := s.accounts.GetUsers(ctx, []int64{row.AuthorID})
	if err != nil {
		return model.Idea{}, err
	}
	return row.Idea(authorOf(users, row.AuthorID)), nil
}

// authorOf returns the public part of an author profile; emails stay private.
func authorOf(users map[int64]model.User, id int64) model.User {
	if u, ok := users[id]; ok {
		return model.User{ID: u.ID, Username: u.Username}
	}
	return model.User{ID: id}
}

func (s *service) CreateIdea(ctx context.Context, userID int64, in model.IdeaInput) (model.Idea, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return model.Idea{}, err
	}
	row := &model.IdeaRecord{Title: in.Title, Description: in.Description, AuthorID: userID}
	if err := s.ideas.Create(ctx, row); err != nil {
		return model.Idea{}, err
	}
	return s.project(ctx, row)
}

// ownedIdea loads id and checks that userID wrote it.
func (s *service) ownedIdea(ctx context.Context, userID, id int64) (*model.IdeaRecord, error) {
	row, err := s.ideas.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.AuthorID != userID {
		return nil, ErrNotAuthor
	}
	return row, nil
}

func (s *service) UpdateIdea(ctx context.Context, userID, id int64, in model.IdeaInput) (model.Idea, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return model.Idea{}, err
	}
	if _, err := s.ownedIdea(ctx, userID, id); err != nil {
		return model.Idea{}, err
	}
	if err := s.ideas.Update(ctx, id, in.Title, in.Description); err != nil {
		return model.Idea{}, err
	}
	return s.GetIdea(ctx, id)
}

func (s *service) DeleteIdea(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedIdea(ctx, userID, id); err != nil {
		return err
	}
	return s.ideas.Delete(ctx, id)
}

func (s *service) RateIdea(ctx context.Context, userID, id int64, in model.RatingInput) (model.Idea, error) {
	if err := validation.Struct(in); err != nil {
		return model.Idea{}, err
	}
	row, err := s.ideas.Get(ctx, id)
	if err != nil {
		return model.Idea{}, err
	}
	if row.AuthorID == userID {
		return model.Idea{}, ErrRateOwnIdea
	}
	updated, err := s.recorder.Record(ctx, id, userID, in)
	if err != nil {
		return model.Idea{}, err
	}
	return s.project(ctx, updated)
}

func (s *service) HasRated(ctx context.Context, userID, id int64) (bool, error) {
	if _, err := s.ideas.Get(ctx, id); err != nil {
		return false, err
	}
	return s.ratings.Exists(ctx, id, userID)
}

func (s *service) ListComments(ctx context.Context, id int64) ([]model.Comment, error) {
	if _, err := s.ideas.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByIdea(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.AuthorID)
	}
	users, err := s.accounts.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Comment, len(rows))
	for i, r := range rows {
		out[i] = r.Comment(authorOf(users, r.AuthorID))
	}
	return out, nil
}

func (s *service) AddComment(ctx context.Context, userID, id int64, text string) (model.Comment, error) {
	in := model.CommentInput{Text: strings.TrimSpace(text)}
	if err := validation.Struct(in); err != nil {
		return model.Comment{}, err
	}
	if _, err := s.ideas.Get(ctx, id); err != nil {
		return model.Comment{}, err
	}
	row := &model.CommentRecord{IdeaID: id, AuthorID: userID, Text: in.Text}
	if err := s.comments.Create(ctx, row); err != nil {
		return model.Comment{}, err
	}
	if err := s.ideas.IncrementComments(ctx, id); err != nil {
		logger.Warn("increment comment counter failed", zap.Int64("idea", id), zap.Error(err))
	}
	users, err := s.accounts.GetUsers(ctx, []int64{userID})
	if err != nil {
		return model.Comment{}, err
	}
	return row.Comment(authorOf(users, userID)), nil
}
