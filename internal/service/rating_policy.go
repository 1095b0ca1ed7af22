package service

import (
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/validation"
)

// CanRate decides whether the rating affordance is offered.
func CanRate(viewer *model.Viewer, idea model.Idea, hasRated bool) bool {
	if viewer == nil {
		return false
	}
	if viewer.ID == idea.Author.ID {
		return false
	}
	return !hasRated
}

// CombinedScore is defined only when both averages are non-zero.
func CombinedScore(idea model.Idea) (float64, bool) {
	return idea.CombinedScore()
}

// ValidateRating rejects partial or out-of-range ratings.
func ValidateRating(novelty, feasibility int) error {
	return validation.Struct(model.RatingInput{Novelty: novelty, Feasibility: feasibility})
}
