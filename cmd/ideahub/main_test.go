package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/ideahub/internal/service"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not signed in", service.ErrNotSignedIn, "please sign in first: ideahub login <email>"},
		{"bad credentials", apperr.FromStatus(401, "invalid credentials"), "please sign in to continue"},
		{"edit by non-author", fmt.Errorf("save: %w", service.ErrNotAuthor), "only the author can change this idea"},
		{"other forbidden", apperr.FromStatus(403, "cannot rate own idea"), "you are not allowed to do this"},
		{"local error", service.ErrIncomplete, service.ErrIncomplete.Error()},
		{"transport", apperr.Wrap(apperr.KindTransport, errors.New("dial tcp")), "could not reach the server, check that the backend is running"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestRatingRejectionUsesWorkflowReason(t *testing.T) {
	forbidden := apperr.FromStatus(403, "cannot rate own idea")

	err := ratingRejection(service.RatingStatus{State: service.RatingIneligible, Reason: service.ReasonIsAuthor}, forbidden)
	assert.Equal(t, "you cannot rate your own idea", userMessage(err))

	transport := apperr.Wrap(apperr.KindTransport, errors.New("connection refused"))
	err = ratingRejection(service.RatingStatus{State: service.RatingRejected, Err: transport}, transport)
	assert.ErrorIs(t, err, apperr.ErrTransport)
}
