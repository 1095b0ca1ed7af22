package model

import (
	"fmt"
	"time"
)

// CombinedScore is the mean of both axes, defined only once both averages
// are non-zero. A rated idea can never score zero because the minimum is 1.
func (i Idea) CombinedScore() (float64, bool) {
	if i.AvgNovelty <= 0 || i.AvgFeasibility <= 0 {
		return 0, false
	}
	return (i.AvgNovelty + i.AvgFeasibility) / 2, true
}

// DisplayIdea 渲染用投影，每次派生时重新计算，从不缓存
type DisplayIdea struct {
	ID             int64
	Title          string
	Description    string
	AuthorID       int64
	AuthorName     string
	CreatedAt      time.Time
	Likes          int
	Comments       int
	Trend          Trend
	AvgNovelty     float64
	AvgFeasibility float64
	CombinedScore  float64
	Rated          bool
}

// Project derives the display view of one idea.
func Project(i Idea) DisplayIdea {
	score, rated := i.CombinedScore()
	return DisplayIdea{
		ID:             i.ID,
		Title:          i.Title,
		Description:    i.Description,
		AuthorID:       i.Author.ID,
		AuthorName:     i.Author.Username,
		CreatedAt:      i.CreatedAt,
		Likes:          max(i.Likes, 0),
		Comments:       max(i.CommentsCount, 0),
		Trend:          i.Trend,
		AvgNovelty:     i.AvgNovelty,
		AvgFeasibility: i.AvgFeasibility,
		CombinedScore:  score,
		Rated:          rated,
	}
}

// ScoreLabel renders the combined score badge, empty when unrated.
func (d DisplayIdea) ScoreLabel() string {
	if !d.Rated {
		return ""
	}
	return fmt.Sprintf("★ %.1f", d.CombinedScore)
}

// FormatRelative renders t relative to now: "just now", "N minutes ago",
// "N hours ago", "N days ago", and a full date after a week.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
	return t.Local().Format("2 January 2006, 15:04")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
