package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
)

type RatingState int

const (
	RatingIdle RatingState = iota
	RatingChecking
	RatingEligible
	RatingIneligible
	RatingModalOpen
	RatingSubmitting
	RatingRejected
)

func (s RatingState) String() string {
	switch s {
	case RatingIdle:
		return "idle"
	case RatingChecking:
		return "checking"
	case RatingEligible:
		return "eligible"
	case RatingIneligible:
		return "ineligible"
	case RatingModalOpen:
		return "modal_open"
	case RatingSubmitting:
		return "submitting"
	case RatingRejected:
		return "rejected"
	}
	return "unknown"
}

// IneligibleReason explains why the rating affordance is disabled.
type IneligibleReason int

const (
	ReasonNone IneligibleReason = iota
	ReasonUnauthenticated
	ReasonIsAuthor
	ReasonAlreadyRated
)

func (r IneligibleReason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonIsAuthor:
		return "is-author"
	case ReasonAlreadyRated:
		return "already-rated"
	}
	return ""
}

// Message is the text shown next to the disabled affordance.
func (r IneligibleReason) Message() string {
	switch r {
	case ReasonUnauthenticated:
		return "sign in to rate this idea"
	case ReasonIsAuthor:
		return "you cannot rate your own idea"
	case ReasonAlreadyRated:
		return "you have already rated this idea"
	}
	return ""
}

var (
	ErrNotEligible    = errors.New("rating is not available for this idea")
	ErrIncomplete     = errors.New("both novelty and feasibility must be set")
	ErrNotSubmittable = errors.New("rating modal is not open")
)

// RatingStatus is a snapshot of the workflow.
type RatingStatus struct {
	State       RatingState
	Reason      IneligibleReason
	Novelty     int
	Feasibility int
	CanSubmit   bool
	// Committed reports a successful submission in this session.
	Committed bool
	Err       error
}

// RatingWorkflow coordinates eligibility, the rating modal and submission for
// one idea and one viewer.
type RatingWorkflow struct {
	gw     RatingGateway
	ledger *RatedLedger

	mu          sync.Mutex
	gen         uint64
	viewer      *model.Viewer
	ideaID      int64
	state       RatingState
	reason      IneligibleReason
	novelty     int
	feasibility int
	committed   bool
	err         error
}

// NewRatingWorkflow builds an idle workflow. ledger may be nil.
func NewRatingWorkflow(gw RatingGateway, ledger *RatedLedger) *RatingWorkflow {
	if ledger == nil {
		ledger = NewRatedLedger(nil)
	}
	return &RatingWorkflow{gw: gw, ledger: ledger}
}

// Begin resolves eligibility of viewer for idea. A self-authored idea or an
// idea already in the ledger never reaches the collaborator. A failed
// eligibility query is treated as not rated; the server re-checks on submit.
func (w *RatingWorkflow) Begin(ctx context.Context, viewer *model.Viewer, idea model.Idea) RatingStatus {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.viewer = viewer
	w.ideaID = idea.ID
	w.novelty, w.feasibility = 0, 0
	w.committed = false
	w.err = nil

	switch {
	case viewer == nil:
		w.setIneligible(ReasonUnauthenticated)
	case idea.IsAuthoredBy(viewer):
		w.setIneligible(ReasonIsAuthor)
	case w.ledger.Has(viewer.ID, idea.ID):
		w.setIneligible(ReasonAlreadyRated)
	default:
		w.state = RatingChecking
		w.reason = ReasonNone
	}
	if w.state != RatingChecking {
		defer w.mu.Unlock()
		return w.statusLocked()
	}
	w.mu.Unlock()

	rated, err := w.gw.HasRated(ctx, idea.ID)
	if err != nil {
		// A cancelled check is abandoned by its caller, not a collaborator failure.
		if !errors.Is(err, context.Canceled) {
			telemetry.CaptureError(err, "has_rated", zap.Int64("idea_id", idea.ID))
		}
		rated = false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return w.statusLocked()
	}
	if rated {
		w.ledger.Mark(viewer.ID, idea.ID)
		w.setIneligible(ReasonAlreadyRated)
	} else {
		w.state = RatingEligible
	}
	return w.statusLocked()
}

// OpenModal is allowed from Eligible, with both axes reset, and from
// Rejected to retry with the values of the failed attempt.
func (w *RatingWorkflow) OpenModal() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case RatingEligible:
		w.novelty, w.feasibility = 0, 0
		w.state = RatingModalOpen
		w.err = nil
		return nil
	case RatingRejected:
		w.state = RatingModalOpen
		w.err = nil
		return nil
	case RatingModalOpen:
		return nil
	}
	return ErrNotEligible
}

// CloseModal abandons the modal and clears both axes.
func (w *RatingWorkflow) CloseModal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == RatingModalOpen || w.state == RatingRejected {
		w.state = RatingEligible
		w.novelty, w.feasibility = 0, 0
	}
}

func (w *RatingWorkflow) SetNovelty(v int) error {
	return w.setAxis(&w.novelty, v)
}

func (w *RatingWorkflow) SetFeasibility(v int) error {
	return w.setAxis(&w.feasibility, v)
}

func (w *RatingWorkflow) setAxis(axis *int, v int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != RatingModalOpen {
		return ErrNotSubmittable
	}
	if v < model.MinRating || v > model.MaxRating {
		return apperr.New(apperr.KindValidation, "rating must be between 1 and 5")
	}
	*axis = v
	return nil
}

func (w *RatingWorkflow) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canSubmitLocked()
}

func (w *RatingWorkflow) canSubmitLocked() bool {
	return w.state == RatingModalOpen && ValidateRating(w.novelty, w.feasibility) == nil
}

// Submit sends both axes as one rating. On success the idea becomes
// permanently ineligible for this viewer and the server's updated idea is
// returned for the caller to adopt. A forbidden rejection is terminal; any
// other failure leaves the workflow Rejected and retryable via OpenModal.
func (w *RatingWorkflow) Submit(ctx context.Context) (model.Idea, error) {
	w.mu.Lock()
	if w.state != RatingModalOpen {
		w.mu.Unlock()
		return model.Idea{}, ErrNotSubmittable
	}
	if ValidateRating(w.novelty, w.feasibility) != nil {
		w.mu.Unlock()
		return model.Idea{}, ErrIncomplete
	}
	w.state = RatingSubmitting
	gen := w.gen
	viewer, ideaID := w.viewer, w.ideaID
	in := model.RatingInput{Novelty: w.novelty, Feasibility: w.feasibility}
	w.mu.Unlock()

	updated, err := w.gw.RateIdea(ctx, ideaID, in)

	// The rating exists on the server whether or not this view still cares.
	if err == nil || errors.Is(err, apperr.ErrAlreadyRated) {
		w.ledger.Mark(viewer.ID, ideaID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return model.Idea{}, ErrSuperseded
	}
	switch {
	case err == nil:
		w.setIneligible(ReasonAlreadyRated)
		w.committed = true
		w.novelty, w.feasibility = 0, 0
		logger.Info("rating committed", zap.Int64("idea_id", ideaID), zap.Int64("viewer", viewer.ID))
		return updated, nil
	case errors.Is(err, apperr.ErrForbidden):
		w.setIneligible(ReasonIsAuthor)
	case errors.Is(err, apperr.ErrAlreadyRated):
		w.setIneligible(ReasonAlreadyRated)
	default:
		w.state = RatingRejected
	}
	w.err = err
	telemetry.CaptureError(err, "rate_idea", zap.Int64("idea_id", ideaID))
	return model.Idea{}, err
}

func (w *RatingWorkflow) Status() RatingStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statusLocked()
}

func (w *RatingWorkflow) setIneligible(r IneligibleReason) {
	w.state = RatingIneligible
	w.reason = r
}

func (w *RatingWorkflow) statusLocked() RatingStatus {
	return RatingStatus{
		State:       w.state,
		Reason:      w.reason,
		Novelty:     w.novelty,
		Feasibility: w.feasibility,
		CanSubmit:   w.canSubmitLocked(),
		Committed:   w.committed,
		Err:         w.err,
	}
}
