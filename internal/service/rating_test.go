package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

var (
	viewer7 = &model.Viewer{ID: 7, Username: "grace"}
	author3 = model.User{ID: 3, Username: "ada"}
)

func TestCanRate(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	assert.False(t, CanRate(nil, x, false))
	assert.False(t, CanRate(&model.Viewer{ID: 3}, x, false))
	assert.False(t, CanRate(viewer7, x, true))
	assert.True(t, CanRate(viewer7, x, false))
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(1, 5))
	for _, tc := range [][2]int{{0, 3}, {3, 0}, {6, 1}, {1, 6}, {-1, -1}} {
		err := ValidateRating(tc[0], tc[1])
		assert.ErrorIs(t, err, apperr.ErrValidation, "%v", tc)
	}
}

func TestSelfRatingNeverQueries(t *testing.T) {
	p := newFakePlatform(model.User{ID: 3})
	w := NewRatingWorkflow(p, nil)

	st := w.Begin(context.Background(), &model.Viewer{ID: 3}, model.Idea{ID: 1, Author: author3})
	assert.Equal(t, RatingIneligible, st.State)
	assert.Equal(t, ReasonIsAuthor, st.Reason)
	assert.Zero(t, p.hasRatedHits.Load())
	assert.ErrorIs(t, w.OpenModal(), ErrNotEligible)
}

func TestUnauthenticatedNeverQueries(t *testing.T) {
	p := newFakePlatform(model.User{})
	w := NewRatingWorkflow(p, nil)

	st := w.Begin(context.Background(), nil, model.Idea{ID: 1, Author: author3})
	assert.Equal(t, ReasonUnauthenticated, st.Reason)
	assert.Zero(t, p.hasRatedHits.Load())
}

func TestRatingSubmitOncePerSession(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	ledger := NewRatedLedger(nil)
	w := NewRatingWorkflow(p, ledger)
	ctx := context.Background()

	st := w.Begin(ctx, viewer7, x)
	require.Equal(t, RatingEligible, st.State)
	require.NoError(t, w.OpenModal())
	assert.False(t, w.CanSubmit())

	require.NoError(t, w.SetNovelty(4))
	assert.False(t, w.CanSubmit(), "partial ratings are never sendable")
	_, err := w.Submit(ctx)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Zero(t, p.rateHits.Load())

	require.NoError(t, w.SetFeasibility(5))
	assert.True(t, w.CanSubmit())
	updated, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.AvgNovelty)
	assert.Equal(t, 5.0, updated.AvgFeasibility)

	st = w.Status()
	assert.Equal(t, RatingIneligible, st.State)
	assert.Equal(t, ReasonAlreadyRated, st.Reason)
	assert.True(t, st.Committed)
	assert.ErrorIs(t, w.OpenModal(), ErrNotEligible)
	_, err = w.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotSubmittable)
	assert.Equal(t, int64(1), p.rateHits.Load())

	hits := p.hasRatedHits.Load()
	again := NewRatingWorkflow(p, ledger).Begin(ctx, viewer7, x)
	assert.Equal(t, ReasonAlreadyRated, again.Reason)
	assert.Equal(t, hits, p.hasRatedHits.Load(), "already rated is never re-queried")
	assert.False(t, CanRate(viewer7, x, ledger.Has(viewer7.ID, x.ID)))
}

func TestHasRatedTrueIsCached(t *testing.T) {
	x := model.Idea{ID: 2, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	p.rated[2] = true
	ledger := NewRatedLedger(nil)

	st := NewRatingWorkflow(p, ledger).Begin(context.Background(), viewer7, x)
	assert.Equal(t, ReasonAlreadyRated, st.Reason)
	NewRatingWorkflow(p, ledger).Begin(context.Background(), viewer7, x)
	assert.Equal(t, int64(1), p.hasRatedHits.Load())
}

func TestRatingForbiddenIsTerminal(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	p.rateErr = apperr.FromStatus(403, "cannot rate own idea")
	w := NewRatingWorkflow(p, nil)
	ctx := context.Background()

	w.Begin(ctx, viewer7, x)
	require.NoError(t, w.OpenModal())
	require.NoError(t, w.SetNovelty(3))
	require.NoError(t, w.SetFeasibility(3))
	_, err := w.Submit(ctx)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	st := w.Status()
	assert.Equal(t, RatingIneligible, st.State)
	assert.Equal(t, ReasonIsAuthor, st.Reason)
	assert.ErrorIs(t, w.OpenModal(), ErrNotEligible)
}

func TestRatingGenericFailureIsRetryable(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	p.rateErr = apperr.Wrap(apperr.KindTransport, errors.New("connection refused"))
	w := NewRatingWorkflow(p, nil)
	ctx := context.Background()

	w.Begin(ctx, viewer7, x)
	require.NoError(t, w.OpenModal())
	require.NoError(t, w.SetNovelty(2))
	require.NoError(t, w.SetFeasibility(4))
	_, err := w.Submit(ctx)
	require.Error(t, err)
	st := w.Status()
	assert.Equal(t, RatingRejected, st.State)
	assert.Error(t, st.Err)

	p.mu.Lock()
	p.rateErr = nil
	p.mu.Unlock()
	require.NoError(t, w.OpenModal())
	assert.True(t, w.CanSubmit(), "values survive a failed attempt")
	_, err = w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonAlreadyRated, w.Status().Reason)
}

func TestRatingAlreadyRatedConflict(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	p.rateErr = apperr.FromStatus(409, "already rated")
	ledger := NewRatedLedger(nil)
	w := NewRatingWorkflow(p, ledger)
	ctx := context.Background()

	w.Begin(ctx, viewer7, x)
	require.NoError(t, w.OpenModal())
	require.NoError(t, w.SetNovelty(1))
	require.NoError(t, w.SetFeasibility(1))
	_, err := w.Submit(ctx)
	assert.ErrorIs(t, err, apperr.ErrAlreadyRated)
	assert.Equal(t, ReasonAlreadyRated, w.Status().Reason)
	assert.True(t, ledger.Has(7, 1))
}

func TestSupersededSubmitStillMarksLedger(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	y := model.Idea{ID: 2, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x, y)
	p.rateGate = make(chan struct{})
	ledger := NewRatedLedger(nil)
	w := NewRatingWorkflow(p, ledger)
	ctx := context.Background()

	w.Begin(ctx, viewer7, x)
	require.NoError(t, w.OpenModal())
	require.NoError(t, w.SetNovelty(3))
	require.NoError(t, w.SetFeasibility(4))

	submitted := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx)
		submitted <- err
	}()
	require.Eventually(t, func() bool { return p.rateHits.Load() == 1 }, time.Second, 5*time.Millisecond)

	w.Begin(ctx, viewer7, y)
	close(p.rateGate)
	select {
	case err := <-submitted:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("submit did not return")
	}
	assert.True(t, ledger.Has(7, 1))
	assert.Equal(t, RatingEligible, w.Status().State, "the newer idea keeps its own state")

	hits := p.hasRatedHits.Load()
	st := NewRatingWorkflow(p, ledger).Begin(ctx, viewer7, x)
	assert.Equal(t, ReasonAlreadyRated, st.Reason)
	assert.Equal(t, hits, p.hasRatedHits.Load())
}

func TestRatingAxisRange(t *testing.T) {
	x := model.Idea{ID: 1, Author: author3}
	p := newFakePlatform(model.User{ID: 7}, x)
	w := NewRatingWorkflow(p, nil)

	assert.ErrorIs(t, w.SetNovelty(3), ErrNotSubmittable, "modal closed")
	w.Begin(context.Background(), viewer7, x)
	require.NoError(t, w.OpenModal())
	assert.ErrorIs(t, w.SetNovelty(0), apperr.ErrValidation)
	assert.ErrorIs(t, w.SetFeasibility(6), apperr.ErrValidation)

	require.NoError(t, w.SetNovelty(5))
	require.NoError(t, w.SetFeasibility(4))
	assert.True(t, w.CanSubmit())
	w.CloseModal()
	st := w.Status()
	assert.Equal(t, RatingEligible, st.State)
	assert.Zero(t, st.Novelty)
	assert.Zero(t, st.Feasibility)

	require.NoError(t, w.OpenModal())
	st = w.Status()
	assert.Zero(t, st.Novelty)
	assert.Zero(t, st.Feasibility)
	assert.False(t, st.CanSubmit)
}

func TestIdeaAggregateAdoptsServerValues(t *testing.T) {
	agg := NewIdeaAggregate(model.Idea{ID: 1, AvgNovelty: 2, AvgFeasibility: 2, CommentsCount: 1})
	agg.SetCommentCount(4)

	require.NoError(t, agg.AdoptRating(model.Idea{ID: 1, AvgNovelty: 3.5, AvgFeasibility: 2.5, CommentsCount: 1}))
	d := agg.Display()
	assert.Equal(t, 3.0, d.CombinedScore)
	assert.Equal(t, 4, d.Comments)

	assert.Error(t, agg.AdoptRating(model.Idea{ID: 2, AvgNovelty: 5, AvgFeasibility: 5}))
	assert.Equal(t, 3.5, agg.Idea().AvgNovelty)
}
