package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
)

var ErrNoIdeaOpen = errors.New("no idea is open")

// DetailGateway is what the detail view needs from the platform.
type DetailGateway interface {
	IdeaReader
	RatingGateway
	CommentGateway
}

// DetailView is the renderable state of the detail screen. Idea is nil while
// loading or after a failed load; partial data is never shown.
type DetailView struct {
	Loading  bool
	Err      error
	Idea     *model.DisplayIdea
	Comments []model.Comment
	Rating   RatingStatus
	CanEdit  bool
}

type detailEntry struct {
	id     int64
	viewer *model.Viewer
	agg    *IdeaAggregate
	thread *CommentThread
	rating *RatingWorkflow
}

// IdeaDetail loads one idea with its comments and rating eligibility. Only
// the most recent Open may populate the view.
type IdeaDetail struct {
	gw     DetailGateway
	ledger *RatedLedger

	mu      sync.Mutex
	seq     uint64
	current *detailEntry
	loading bool
	err     error
}

func NewIdeaDetail(gw DetailGateway, ledger *RatedLedger) *IdeaDetail {
	if ledger == nil {
		ledger = NewRatedLedger(nil)
	}
	return &IdeaDetail{gw: gw, ledger: ledger}
}

// Open loads idea id for viewer. Comments and eligibility are fetched
// concurrently once the idea itself arrived.
func (d *IdeaDetail) Open(ctx context.Context, id int64, viewer *model.Viewer) error {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.current = nil
	d.loading = true
	d.err = nil
	d.mu.Unlock()

	idea, err := d.gw.GetIdea(ctx, id)
	if err != nil {
		return d.fail(seq, id, err)
	}
	if !d.isCurrent(seq) {
		return ErrSuperseded
	}

	wf := NewRatingWorkflow(d.gw, d.ledger)
	var comments []model.Comment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := d.gw.ListComments(gctx, id)
		comments = cs
		return err
	})
	g.Go(func() error {
		wf.Begin(gctx, viewer, idea)
		return nil
	})
	if err := g.Wait(); err != nil {
		return d.fail(seq, id, err)
	}

	entry := &detailEntry{
		id:     id,
		viewer: viewer,
		agg:    NewIdeaAggregate(idea),
		thread: NewCommentThread(id, d.gw, comments),
		rating: wf,
	}
	entry.agg.SetCommentCount(len(comments))

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		logger.Debug("discard superseded idea detail", zap.Int64("idea_id", id))
		return ErrSuperseded
	}
	d.current = entry
	d.loading = false
	return nil
}

func (d *IdeaDetail) fail(seq uint64, id int64, err error) error {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return ErrSuperseded
	}
	d.loading = false
	d.err = err
	d.mu.Unlock()
	telemetry.CaptureError(err, "open_idea", zap.Int64("idea_id", id))
	return err
}

func (d *IdeaDetail) isCurrent(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq == d.seq
}

func (d *IdeaDetail) entry() (*detailEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil, ErrNoIdeaOpen
	}
	return d.current, nil
}

// Close drops the open idea and invalidates in-flight loads.
func (d *IdeaDetail) Close() {
	d.mu.Lock()
	d.seq++
	d.current = nil
	d.loading = false
	d.err = nil
	d.mu.Unlock()
}

func (d *IdeaDetail) View() DetailView {
	d.mu.Lock()
	e := d.current
	v := DetailView{Loading: d.loading, Err: d.err}
	d.mu.Unlock()
	if e == nil {
		return v
	}
	idea := e.agg.Display()
	v.Idea = &idea
	v.Comments = e.thread.Comments()
	v.Rating = e.rating.Status()
	v.CanEdit = e.agg.Idea().IsAuthoredBy(e.viewer)
	return v
}

// Idea returns the open idea as last known from the server.
func (d *IdeaDetail) Idea() (model.Idea, error) {
	e, err := d.entry()
	if err != nil {
		return model.Idea{}, err
	}
	return e.agg.Idea(), nil
}

func (d *IdeaDetail) Rating() (*RatingWorkflow, error) {
	e, err := d.entry()
	if err != nil {
		return nil, err
	}
	return e.rating, nil
}

func (d *IdeaDetail) Thread() (*CommentThread, error) {
	e, err := d.entry()
	if err != nil {
		return nil, err
	}
	return e.thread, nil
}

// SubmitRating submits the open rating modal and adopts the server aggregate
// if the same idea is still open when the response arrives.
func (d *IdeaDetail) SubmitRating(ctx context.Context) (model.DisplayIdea, error) {
	e, err := d.entry()
	if err != nil {
		return model.DisplayIdea{}, err
	}
	updated, err := e.rating.Submit(ctx)
	if err != nil {
		return model.DisplayIdea{}, err
	}
	if !d.stillOpen(e) {
		return model.Project(updated), nil
	}
	if err := e.agg.AdoptRating(updated); err != nil {
		return model.DisplayIdea{}, err
	}
	return e.agg.Display(), nil
}

// AddComment appends to the open thread and refreshes the comment counter.
func (d *IdeaDetail) AddComment(ctx context.Context, text string) (model.Comment, error) {
	e, err := d.entry()
	if err != nil {
		return model.Comment{}, err
	}
	c, err := e.thread.Append(ctx, text)
	if err != nil {
		return c, err
	}
	e.agg.SetCommentCount(e.thread.Len())
	return c, nil
}

// AdoptEdit replaces the open idea with an edited copy of it.
func (d *IdeaDetail) AdoptEdit(updated model.Idea) {
	d.mu.Lock()
	e := d.current
	d.mu.Unlock()
	if e == nil || e.id != updated.ID {
		return
	}
	_ = e.agg.Replace(updated)
}

func (d *IdeaDetail) stillOpen(e *detailEntry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current == e
}
