package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
	"github.com/d60-Lab/ideahub/pkg/validation"
)

// CommentThread is the append-only comment log of one idea. A comment is
// appended only after the server accepted it, with the server's id.
type CommentThread struct {
	ideaID int64
	gw     CommentGateway

	sendMu sync.Mutex // serializes Append so thread order equals call order

	mu       sync.RWMutex
	comments []model.Comment
	draft    string
	err      error
}

func NewCommentThread(ideaID int64, gw CommentGateway, initial []model.Comment) *CommentThread {
	cs := make([]model.Comment, len(initial))
	copy(cs, initial)
	return &CommentThread{ideaID: ideaID, gw: gw, comments: cs}
}

func (t *CommentThread) IdeaID() int64 { return t.ideaID }

// Append sends text and, on success, appends the returned comment.
func (t *CommentThread) Append(ctx context.Context, text string) (model.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validation.Struct(model.CommentInput{Text: text}); err != nil {
		t.setErr(err)
		return model.Comment{}, err
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	c, err := t.gw.AddComment(ctx, t.ideaID, text)
	if err != nil {
		telemetry.CaptureError(err, "add_comment", zap.Int64("idea_id", t.ideaID))
		t.setErr(err)
		return model.Comment{}, err
	}

	t.mu.Lock()
	t.comments = append(t.comments, c)
	t.err = nil
	t.mu.Unlock()
	return c, nil
}

func (t *CommentThread) SetDraft(text string) {
	t.mu.Lock()
	t.draft = text
	t.mu.Unlock()
}

func (t *CommentThread) Draft() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.draft
}

// SubmitDraft appends the current draft. The draft is cleared only when the
// append succeeded, so a failed attempt can be retried as typed.
func (t *CommentThread) SubmitDraft(ctx context.Context) (model.Comment, error) {
	draft := t.Draft()
	c, err := t.Append(ctx, draft)
	if err != nil {
		return c, err
	}
	t.mu.Lock()
	if t.draft == draft {
		t.draft = ""
	}
	t.mu.Unlock()
	return c, nil
}

// Comments returns a copy in arrival order.
func (t *CommentThread) Comments() []model.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Comment, len(t.comments))
	copy(out, t.comments)
	return out
}

func (t *CommentThread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.comments)
}

// Err is the last append failure, cleared by the next success.
func (t *CommentThread) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *CommentThread) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}
