package service

import (
	"fmt"
	"sync"

	"github.com/d60-Lab/ideahub/internal/model"
)

// IdeaAggregate is the normalized view of one open idea.
type IdeaAggregate struct {
	mu           sync.RWMutex
	idea         model.Idea
	commentCount int
	countKnown   bool
}

func NewIdeaAggregate(idea model.Idea) *IdeaAggregate {
	return &IdeaAggregate{idea: idea}
}

func (a *IdeaAggregate) Idea() model.Idea {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idea
}

// AdoptRating overwrites the averages with what the server returned after a
// rating submission. Averages are never recomputed locally.
func (a *IdeaAggregate) AdoptRating(server model.Idea) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if server.ID != a.idea.ID {
		return fmt.Errorf("rating result for idea %d applied to idea %d", server.ID, a.idea.ID)
	}
	a.idea.AvgNovelty = server.AvgNovelty
	a.idea.AvgFeasibility = server.AvgFeasibility
	a.idea.Likes = server.Likes
	a.idea.Trend = server.Trend
	if !a.countKnown {
		a.idea.CommentsCount = server.CommentsCount
	}
	return nil
}

// Replace swaps in an edited copy of the same idea.
func (a *IdeaAggregate) Replace(server model.Idea) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if server.ID != a.idea.ID {
		return fmt.Errorf("edit result for idea %d applied to idea %d", server.ID, a.idea.ID)
	}
	a.idea = server
	return nil
}

// SetCommentCount records the length of the loaded thread, which is more
// current than the server counter fetched with the idea.
func (a *IdeaAggregate) SetCommentCount(n int) {
	a.mu.Lock()
	a.commentCount = n
	a.countKnown = true
	a.mu.Unlock()
}

func (a *IdeaAggregate) Display() model.DisplayIdea {
	a.mu.RLock()
	defer a.mu.RUnlock()
	d := model.Project(a.idea)
	if a.countKnown {
		d.Comments = a.commentCount
	}
	return d
}
