package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/ideahub/internal/model"
)

// ErrSuperseded is returned when a newer request for the same view was issued
// while this one was in flight; its result was dropped without touching state.
var ErrSuperseded = errors.New("superseded by a newer request")

// FeedSource lists the idea collection; sort is "trending" or empty.
type FeedSource interface {
	ListIdeas(ctx context.Context, sort string) ([]model.Idea, error)
}

type IdeaReader interface {
	GetIdea(ctx context.Context, id int64) (model.Idea, error)
}

type IdeaWriter interface {
	CreateIdea(ctx context.Context, in model.IdeaInput) (model.Idea, error)
	UpdateIdea(ctx context.Context, id int64, in model.IdeaInput) (model.Idea, error)
	DeleteIdea(ctx context.Context, id int64) error
}

type RatingGateway interface {
	HasRated(ctx context.Context, ideaID int64) (bool, error)
	RateIdea(ctx context.Context, ideaID int64, in model.RatingInput) (model.Idea, error)
}

type CommentGateway interface {
	ListComments(ctx context.Context, ideaID int64) ([]model.Comment, error)
	AddComment(ctx context.Context, ideaID int64, text string) (model.Comment, error)
}

type AuthGateway interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (model.User, error)
	CurrentUser(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, in model.ProfileInput) (model.User, error)
}

// Collaborator is everything the core consumes from the platform.
type Collaborator interface {
	FeedSource
	IdeaReader
	IdeaWriter
	RatingGateway
	CommentGateway
	AuthGateway
}
