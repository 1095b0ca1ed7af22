package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/service"
)

func trendMark(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "↑"
	case model.TrendDown:
		return "↓"
	}
	return "·"
}

func renderFeed(w io.Writer, v service.FeedView) {
	if v.Stale {
		fmt.Fprintln(w, "(cached, refreshing...)")
	}
	if len(v.Ideas) == 0 {
		if v.Tab == model.OrderingBest {
			fmt.Fprintln(w, "no rated ideas yet")
		} else {
			fmt.Fprintln(w, "no ideas yet")
		}
		return
	}
	now := time.Now()
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTREND\tSCORE\tTITLE\tAUTHOR\tLIKES\tCOMMENTS\tPOSTED\n")
	for _, d := range v.Ideas {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			d.ID, trendMark(d.Trend), d.ScoreLabel(), d.Title, d.AuthorName, d.Likes, d.Comments, model.FormatRelative(d.CreatedAt, now))
	}
	_ = tw.Flush()
}

func renderDetail(w io.Writer, v service.DetailView) {
	if v.Idea == nil {
		fmt.Fprintln(w, "idea not available")
		return
	}
	d := v.Idea
	now := time.Now()
	fmt.Fprintf(w, "#%d %s %s\n", d.ID, d.Title, trendMark(d.Trend))
	fmt.Fprintf(w, "by %s, %s\n\n", d.AuthorName, model.FormatRelative(d.CreatedAt, now))
	fmt.Fprintln(w, d.Description)
	fmt.Fprintln(w)
	if d.Rated {
		fmt.Fprintf(w, "%s  novelty %.1f  feasibility %.1f  (%d ratings)\n", d.ScoreLabel(), d.AvgNovelty, d.AvgFeasibility, d.Likes)
	} else {
		fmt.Fprintln(w, "not rated yet")
	}
	switch v.Rating.State {
	case service.RatingEligible:
		fmt.Fprintf(w, "rate it: ideahub rate %d <novelty> <feasibility>\n", d.ID)
	case service.RatingIneligible:
		fmt.Fprintln(w, v.Rating.Reason.Message())
	}
	if v.CanEdit {
		fmt.Fprintf(w, "you wrote this: ideahub edit %d ... / ideahub delete %d\n", d.ID, d.ID)
	}

	fmt.Fprintf(w, "\ncomments (%d)\n", d.Comments)
	for _, c := range v.Comments {
		fmt.Fprintf(w, "  %s, %s: %s\n", c.Author.Username, model.FormatRelative(c.CreatedAt, now), strings.TrimSpace(c.Text))
	}
}
