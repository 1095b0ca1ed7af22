package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

func TestCommentThreadAppendOnly(t *testing.T) {
	p := newFakePlatform(model.User{ID: 7})
	th := NewCommentThread(1, p, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := th.Append(ctx, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}

	p.commentErr = errors.New("network down")
	_, err := th.Append(ctx, "lost")
	require.Error(t, err)
	assert.Error(t, th.Err())

	got := th.Comments()
	require.Len(t, got, 5)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("comment %d", i), c.Text)
		assert.NotZero(t, c.ID, "ids come from the server")
	}
}

func TestCommentThreadRejectsBlank(t *testing.T) {
	p := newFakePlatform(model.User{ID: 7})
	th := NewCommentThread(1, p, nil)

	_, err := th.Append(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, th.Len())
	assert.Empty(t, p.comments[1])
}

func TestCommentThreadDraftClearedOnlyOnSuccess(t *testing.T) {
	p := newFakePlatform(model.User{ID: 7})
	th := NewCommentThread(1, p, []model.Comment{{ID: 1, Text: "first"}})
	ctx := context.Background()

	th.SetDraft("second")
	p.commentErr = errors.New("timeout")
	_, err := th.SubmitDraft(ctx)
	require.Error(t, err)
	assert.Equal(t, "second", th.Draft())
	assert.Equal(t, 1, th.Len())

	p.commentErr = nil
	c, err := th.SubmitDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", c.Text)
	assert.Equal(t, "", th.Draft())
	assert.Equal(t, 2, th.Len())
}
