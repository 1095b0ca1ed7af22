package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
)

type FeedOptions struct {
	// Tab is the tab selected on mount.
	Tab model.Ordering
	// RefetchOnTabChange re-fetches on every tab switch. When false only
	// trending re-fetches; new and best re-derive the cached collection.
	RefetchOnTabChange bool
	// Snapshots is optional.
	Snapshots repository.FeedSnapshotRepository
}

// FeedView is what the feed renders: the derived ordering plus flags.
type FeedView struct {
	Tab     model.Ordering
	Ideas   []model.DisplayIdea
	Loading bool
	Err     error
	// Stale is set while the collection comes from a snapshot rather than a
	// fetch of this session.
	Stale bool
}

// FeedController owns the feed collection. Of any set of overlapping loads
// only the most recently issued one may commit; earlier ones are discarded
// on arrival with ErrSuperseded.
type FeedController struct {
	src       FeedSource
	snapshots repository.FeedSnapshotRepository
	refetch   bool

	mu        sync.Mutex
	issued    uint64
	committed uint64
	tab       model.Ordering
	ideas     []model.Idea
	loading   bool
	stale     bool
	err       error
}

func NewFeedController(src FeedSource, opts FeedOptions) *FeedController {
	return &FeedController{
		src:       src,
		snapshots: opts.Snapshots,
		refetch:   opts.RefetchOnTabChange,
		tab:       opts.Tab,
	}
}

// Load fetches the collection with the sort hint of o and commits it if no
// newer load was issued meanwhile. On failure the previous collection stays.
func (c *FeedController) Load(ctx context.Context, o model.Ordering) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.loading = true
	c.mu.Unlock()

	hint := o.SortHint()
	ideas, err := c.src.ListIdeas(ctx, hint)

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		logger.Debug("discard superseded feed response", zap.Uint64("seq", seq), zap.String("sort", hint))
		return ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		telemetry.CaptureError(err, "list_ideas", zap.String("sort", hint))
		return err
	}
	c.ideas = slices.Clone(ideas)
	c.committed = seq
	c.stale = false
	c.err = nil
	c.mu.Unlock()

	c.saveSnapshot(ctx, hint, ideas)
	return nil
}

func (c *FeedController) saveSnapshot(ctx context.Context, hint string, ideas []model.Idea) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Save(ctx, hint, ideas); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("save feed snapshot failed", zap.String("sort", hint), zap.Error(err))
	}
}

// Warm shows the last snapshot for the current tab until the first fetch of
// this session commits. It never overrides fetched data.
func (c *FeedController) Warm(ctx context.Context) (bool, error) {
	if c.snapshots == nil {
		return false, nil
	}
	c.mu.Lock()
	hint := c.tab.SortHint()
	c.mu.Unlock()

	ideas, err := c.snapshots.Load(ctx, hint)
	if err != nil || ideas == nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed != 0 {
		return false, nil
	}
	c.ideas = ideas
	c.stale = true
	return true, nil
}

// Mount performs the initial load with the current tab.
func (c *FeedController) Mount(ctx context.Context) error {
	return c.Load(ctx, c.Tab())
}

// SelectTab switches the ordering. Whether it re-fetches depends on the
// RefetchOnTabChange option; trending always does.
func (c *FeedController) SelectTab(ctx context.Context, o model.Ordering) error {
	c.mu.Lock()
	c.tab = o
	c.mu.Unlock()
	if o == model.OrderingTrending || c.refetch {
		return c.Load(ctx, o)
	}
	return nil
}

// Refresh reloads the current tab, e.g. after an idea was created or deleted.
func (c *FeedController) Refresh(ctx context.Context) error {
	return c.Load(ctx, c.Tab())
}

func (c *FeedController) Tab() model.Ordering {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// View derives the display list for the current tab from the committed
// collection. Nothing derived is stored.
func (c *FeedController) View() FeedView {
	c.mu.Lock()
	tab := c.tab
	ideas := slices.Clone(c.ideas)
	v := FeedView{Tab: tab, Loading: c.loading, Err: c.err, Stale: c.stale}
	c.mu.Unlock()
	v.Ideas = DeriveOrdering(ideas, tab)
	return v
}

// Ideas returns a copy of the committed collection in server order.
func (c *FeedController) Ideas() []model.Idea {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ideas)
}

// DeriveOrdering projects ideas for display under o.
//
//   - trending keeps the server order
//   - new sorts by id descending
//   - best keeps rated ideas only, by combined score descending
//
// Sorting is stable so ties keep server order.
func DeriveOrdering(ideas []model.Idea, o model.Ordering) []model.DisplayIdea {
	out := make([]model.DisplayIdea, 0, len(ideas))
	for _, idea := range ideas {
		d := model.Project(idea)
		if o == model.OrderingBest && !d.Rated {
			continue
		}
		out = append(out, d)
	}
	switch o {
	case model.OrderingNew:
		slices.SortStableFunc(out, func(a, b model.DisplayIdea) int {
			return cmp.Compare(b.ID, a.ID)
		})
	case model.OrderingBest:
		slices.SortStableFunc(out, func(a, b model.DisplayIdea) int {
			return cmp.Compare(b.CombinedScore, a.CombinedScore)
		})
	}
	return out
}
