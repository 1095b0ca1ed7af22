package devserver

import "github.com/d60-Lab/ideahub/pkg/apperr"

var (
	ErrRateOwnIdea        = apperr.New(apperr.KindForbidden, "you cannot rate your own idea")
	ErrAlreadyRated       = apperr.New(apperr.KindAlreadyRated, "you have already rated this idea")
	ErrNotAuthor          = apperr.New(apperr.KindForbidden, "only the author can modify this idea")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	ErrEmailTaken         = apperr.New(apperr.KindValidation, "email is already registered")
	ErrInvalidToken       = apperr.New(apperr.KindUnauthenticated, "invalid or expired token")
)
