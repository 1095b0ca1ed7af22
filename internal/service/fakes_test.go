package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
)

type listResult struct {
	ideas []model.Idea
	err   error
}

// gatedFeed blocks every ListIdeas call until the test releases it, so tests
// decide completion order.
type gatedFeed struct {
	calls chan gatedCall
}

type gatedCall struct {
	sort  string
	reply chan listResult
}

func newGatedFeed() *gatedFeed { return &gatedFeed{calls: make(chan gatedCall, 8)} }

func (f *gatedFeed) ListIdeas(ctx context.Context, sort string) ([]model.Idea, error) {
	c := gatedCall{sort: sort, reply: make(chan listResult, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.ideas, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakePlatform is an in-memory collaborator.
type fakePlatform struct {
	mu           sync.Mutex
	ideas        map[int64]model.Idea
	comments     map[int64][]model.Comment
	rated        map[int64]bool
	nextID       int64
	viewer       model.User
	hasRatedHits atomic.Int64
	rateHits     atomic.Int64
	listHits     atomic.Int64

	rateResult  *model.Idea
	rateErr     error
	commentErr  error
	commentsErr error
	getErr      error
	token       string

	// Calls block on these until closed or until ctx ends.
	hasRatedGate chan struct{}
	rateGate     chan struct{}
}

func waitGate(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newFakePlatform(viewer model.User, ideas ...model.Idea) *fakePlatform {
	p := &fakePlatform{
		ideas:    make(map[int64]model.Idea),
		comments: make(map[int64][]model.Comment),
		rated:    make(map[int64]bool),
		nextID:   100,
		viewer:   viewer,
		token:    "opaque-token",
	}
	for _, i := range ideas {
		p.ideas[i.ID] = i
	}
	return p
}

func (p *fakePlatform) ListIdeas(ctx context.Context, sort string) ([]model.Idea, error) {
	p.listHits.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Idea, 0, len(p.ideas))
	for _, i := range p.ideas {
		out = append(out, i)
	}
	return out, nil
}

func (p *fakePlatform) GetIdea(ctx context.Context, id int64) (model.Idea, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return model.Idea{}, p.getErr
	}
	i, ok := p.ideas[id]
	if !ok {
		return model.Idea{}, apperr.FromStatus(404, "idea not found")
	}
	return i, nil
}

func (p *fakePlatform) CreateIdea(ctx context.Context, in model.IdeaInput) (model.Idea, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	i := model.Idea{ID: p.nextID, Title: in.Title, Description: in.Description, Author: p.viewer}
	p.ideas[i.ID] = i
	return i, nil
}

func (p *fakePlatform) UpdateIdea(ctx context.Context, id int64, in model.IdeaInput) (model.Idea, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.ideas[id]
	i.Title, i.Description = in.Title, in.Description
	p.ideas[id] = i
	return i, nil
}

func (p *fakePlatform) DeleteIdea(ctx context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ideas, id)
	return nil
}

func (p *fakePlatform) HasRated(ctx context.Context, ideaID int64) (bool, error) {
	p.hasRatedHits.Add(1)
	if err := waitGate(ctx, p.hasRatedGate); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rated[ideaID], nil
}

func (p *fakePlatform) RateIdea(ctx context.Context, ideaID int64, in model.RatingInput) (model.Idea, error) {
	p.rateHits.Add(1)
	if err := waitGate(ctx, p.rateGate); err != nil {
		return model.Idea{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rateErr != nil {
		return model.Idea{}, p.rateErr
	}
	if p.rateResult != nil {
		return *p.rateResult, nil
	}
	i := p.ideas[ideaID]
	i.AvgNovelty, i.AvgFeasibility = float64(in.Novelty), float64(in.Feasibility)
	p.ideas[ideaID] = i
	p.rated[ideaID] = true
	return i, nil
}

func (p *fakePlatform) ListComments(ctx context.Context, ideaID int64) ([]model.Comment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.commentsErr != nil {
		return nil, p.commentsErr
	}
	return append([]model.Comment(nil), p.comments[ideaID]...), nil
}

func (p *fakePlatform) AddComment(ctx context.Context, ideaID int64, text string) (model.Comment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.commentErr != nil {
		return model.Comment{}, p.commentErr
	}
	p.nextID++
	c := model.Comment{ID: p.nextID, IdeaID: ideaID, Author: p.viewer, Text: text}
	p.comments[ideaID] = append(p.comments[ideaID], c)
	return c, nil
}

func (p *fakePlatform) Login(ctx context.Context, email, password string) (string, error) {
	if password != "secret" {
		return "", apperr.FromStatus(401, "invalid credentials")
	}
	return p.token, nil
}

func (p *fakePlatform) Register(ctx context.Context, username, email, password string) (model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewer = model.User{ID: p.viewer.ID, Username: username, Email: email}
	return p.viewer, nil
}

func (p *fakePlatform) CurrentUser(ctx context.Context) (model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewer, nil
}

func (p *fakePlatform) UpdateProfile(ctx context.Context, in model.ProfileInput) (model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewer.Username, p.viewer.Email = in.Username, in.Email
	return p.viewer, nil
}
