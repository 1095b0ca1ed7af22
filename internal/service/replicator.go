package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

type markJob struct {
	userID int64
	ideaID int64
	enqAt  time.Time
}

// MarkReplicator 异步把"已评分"标记落到本地库，不阻塞评分流程
type MarkReplicator struct {
	repo      repository.RatedRepository
	ch        chan markJob
	metricsCh chan time.Duration
}

func NewMarkReplicator(repo repository.RatedRepository, queueSize int) *MarkReplicator {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &MarkReplicator{repo: repo, ch: make(chan markJob, queueSize), metricsCh: make(chan time.Duration, 1024)}
}

// Start runs the writers and returns a stop function. Stop waits for writes
// already in flight, then persists whatever is still queued, all bounded by ctx.
func (r *MarkReplicator) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 1
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-r.ch:
					r.write(job)
				case <-stopCh:
					return
				}
			}
		}()
	}
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		idle := make(chan struct{})
		go func() {
			wg.Wait()
			close(idle)
		}()
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
		// 停止后由调用方同步排空剩余任务
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case job := <-r.ch:
				r.write(job)
			default:
				return nil
			}
		}
	}
}

func (r *MarkReplicator) write(job markJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.repo.Mark(ctx, job.userID, job.ideaID); err != nil {
		logger.Warn("persist rated mark failed", zap.Int64("user", job.userID), zap.Int64("idea", job.ideaID), zap.Error(err))
		return
	}
	select {
	case r.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

func (r *MarkReplicator) Enqueue(userID, ideaID int64) {
	select {
	case r.ch <- markJob{userID: userID, ideaID: ideaID, enqAt: time.Now()}:
	default:
		logger.Warn("mark replicator queue full, drop", zap.Int64("user", userID), zap.Int64("idea", ideaID))
	}
}

// Metrics 返回落库耗时的只读通道
func (r *MarkReplicator) Metrics() <-chan time.Duration { return r.metricsCh }

// QueueLen 当前排队数（采样值）
func (r *MarkReplicator) QueueLen() int { return len(r.ch) }
