package devserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

// trendEpsilon 窗口内外均分差小于它视为持平
const trendEpsilon = 0.05

// TrendWorker 消费评分事件并重算创意的趋势标签
type TrendWorker struct {
	db           *gorm.DB
	ideas        repository.IdeaRepository
	ratings      repository.RatingRepository
	window       time.Duration
	claimLimit   int
	pollInterval time.Duration
	metricsCh    chan time.Duration // event -> processed latency
	now          func() time.Time
}

func NewTrendWorker(db *gorm.DB, ideas repository.IdeaRepository, ratings repository.RatingRepository, window, pollInterval time.Duration) *TrendWorker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &TrendWorker{
		db:           db,
		ideas:        ideas,
		ratings:      ratings,
		window:       window,
		claimLimit:   128,
		pollInterval: pollInterval,
		metricsCh:    make(chan time.Duration, 1024),
		now:          time.Now,
	}
}

func (w *TrendWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动单个轮询 worker；返回停止函数
func (w *TrendWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.loop(stop)
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *TrendWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(context.Background()); err != nil {
				logger.Warn("trend worker pass failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claims a batch of pending rating events, relabels the affected
// ideas and resets ideas without recent activity to neutral. It returns the
// number of events handled.
func (w *TrendWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}

	since := w.now().Add(-w.window)
	seen := make(map[int64]struct{}, len(batch))
	for _, ev := range batch {
		if _, ok := seen[ev.IdeaID]; ok {
			continue
		}
		seen[ev.IdeaID] = struct{}{}
		stats, err := w.ratings.Window(ctx, ev.IdeaID, since)
		if err != nil {
			return 0, err
		}
		if err := w.ideas.SetTrend(ctx, ev.IdeaID, classifyTrend(stats)); err != nil {
			return 0, err
		}
	}

	if len(batch) > 0 {
		ids := make([]string, len(batch))
		for i, ev := range batch {
			ids[i] = ev.ID
		}
		now := w.now()
		if err := w.db.WithContext(ctx).Model(&model.RatingEvent{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.EventDone, "processed_at": now}).Error; err != nil {
			return 0, err
		}
		for _, ev := range batch {
			select {
			case w.metricsCh <- now.Sub(ev.CreatedAt):
			default:
			}
		}
	}

	return len(batch), w.decay(ctx, since)
}

func (w *TrendWorker) claim(ctx context.Context) ([]model.RatingEvent, error) {
	var batch []model.RatingEvent
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", model.EventPending).Order("created_at").Limit(w.claimLimit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, ev := range batch {
			ids[i] = ev.ID
		}
		return tx.Model(&model.RatingEvent{}).Where("id IN ?", ids).Update("status", model.EventProcessing).Error
	})
	return batch, err
}

// decay resets labels of ideas that received no rating inside the window.
func (w *TrendWorker) decay(ctx context.Context, since time.Time) error {
	active, err := w.ratings.ActiveIdeaIDs(ctx, since)
	if err != nil {
		return err
	}
	q := w.db.WithContext(ctx).Model(&model.IdeaRecord{}).Where("trend <> ?", model.TrendNeutral.String())
	if len(active) > 0 {
		q = q.Where("id NOT IN ?", active)
	}
	return q.Update("trend", model.TrendNeutral.String()).Error
}

func classifyTrend(s repository.WindowStats) model.Trend {
	switch {
	case s.RecentCount == 0:
		return model.TrendNeutral
	case s.PriorCount == 0:
		return model.TrendUp
	case s.RecentAvg > s.PriorAvg+trendEpsilon:
		return model.TrendUp
	case s.RecentAvg < s.PriorAvg-trendEpsilon:
		return model.TrendDown
	}
	return model.TrendNeutral
}
