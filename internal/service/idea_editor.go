package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
	"github.com/d60-Lab/ideahub/pkg/validation"
)

var ErrNotAuthor = apperr.New(apperr.KindForbidden, "only the author can change this idea")

// IdeaEditor creates, edits and deletes ideas. Author checks run locally
// first; the server enforces them again.
type IdeaEditor struct {
	reader IdeaReader
	writer IdeaWriter
	feed   *FeedController
}

// NewIdeaEditor builds an editor. feed may be nil; when set it is refreshed
// after a create or delete.
func NewIdeaEditor(reader IdeaReader, writer IdeaWriter, feed *FeedController) *IdeaEditor {
	return &IdeaEditor{reader: reader, writer: writer, feed: feed}
}

func normalizeInput(in model.IdeaInput) (model.IdeaInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in, validation.Struct(in)
}

func (e *IdeaEditor) Create(ctx context.Context, viewer *model.Viewer, in model.IdeaInput) (model.Idea, error) {
	if viewer == nil {
		return model.Idea{}, ErrNotSignedIn
	}
	in, err := normalizeInput(in)
	if err != nil {
		return model.Idea{}, err
	}
	idea, err := e.writer.CreateIdea(ctx, in)
	if err != nil {
		telemetry.CaptureError(err, "create_idea")
		return model.Idea{}, err
	}
	e.refresh(ctx)
	return idea, nil
}

func (e *IdeaEditor) Update(ctx context.Context, viewer *model.Viewer, id int64, in model.IdeaInput) (model.Idea, error) {
	if err := e.checkAuthor(ctx, viewer, id); err != nil {
		return model.Idea{}, err
	}
	in, err := normalizeInput(in)
	if err != nil {
		return model.Idea{}, err
	}
	idea, err := e.writer.UpdateIdea(ctx, id, in)
	if err != nil {
		telemetry.CaptureError(err, "update_idea", zap.Int64("idea_id", id))
		return model.Idea{}, err
	}
	return idea, nil
}

func (e *IdeaEditor) Delete(ctx context.Context, viewer *model.Viewer, id int64) error {
	if err := e.checkAuthor(ctx, viewer, id); err != nil {
		return err
	}
	if err := e.writer.DeleteIdea(ctx, id); err != nil {
		telemetry.CaptureError(err, "delete_idea", zap.Int64("idea_id", id))
		return err
	}
	e.refresh(ctx)
	return nil
}

func (e *IdeaEditor) checkAuthor(ctx context.Context, viewer *model.Viewer, id int64) error {
	if viewer == nil {
		return ErrNotSignedIn
	}
	idea, err := e.reader.GetIdea(ctx, id)
	if err != nil {
		return err
	}
	if !idea.IsAuthoredBy(viewer) {
		return ErrNotAuthor
	}
	return nil
}

func (e *IdeaEditor) refresh(ctx context.Context) {
	if e.feed == nil {
		return
	}
	if err := e.feed.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logger.Warn("refresh feed after edit failed", zap.Error(err))
	}
}
