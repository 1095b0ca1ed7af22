package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ideahub/internal/repository"
)

func TestLedgerReplicatesMarks(t *testing.T) {
	repo := repository.NewRatedRepository(setupDB(t))
	repl := NewMarkReplicator(repo, 16)
	stop := repl.Start(1)
	ledger := NewRatedLedger(repl)

	ledger.Mark(7, 1)
	ledger.Mark(7, 1)
	ledger.Mark(7, 2)
	assert.True(t, ledger.Has(7, 1))
	assert.False(t, ledger.Has(8, 1))
	assert.Equal(t, 2, ledger.Len())

	require.Eventually(t, func() bool {
		ids, err := repo.ListIdeaIDs(context.Background(), 7)
		return err == nil && len(ids) == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, stop(context.Background()))

	select {
	case d := <-repl.Metrics():
		assert.GreaterOrEqual(t, d, time.Duration(0))
	default:
		t.Fatal("expected a replication latency sample")
	}
}

// slowRatedRepo holds each Mark until release is closed.
type slowRatedRepo struct {
	repository.RatedRepository
	started chan struct{}
	release chan struct{}
	done    atomic.Int64
}

func (r *slowRatedRepo) Mark(ctx context.Context, userID, ideaID int64) error {
	r.started <- struct{}{}
	<-r.release
	r.done.Add(1)
	return nil
}

func TestReplicatorStopWaitsForInFlightWrites(t *testing.T) {
	repo := &slowRatedRepo{started: make(chan struct{}, 4), release: make(chan struct{})}
	repl := NewMarkReplicator(repo, 16)
	stop := repl.Start(1)

	repl.Enqueue(7, 1)
	repl.Enqueue(7, 2)
	select {
	case <-repo.started:
	case <-time.After(time.Second):
		t.Fatal("write never started")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- stop(context.Background()) }()
	select {
	case <-stopped:
		t.Fatal("stop returned while a write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
	assert.Equal(t, int64(2), repo.done.Load(), "queued marks are persisted on stop")
	assert.Zero(t, repl.QueueLen())
}

func TestReplicatorStopIsBoundedByContext(t *testing.T) {
	repo := &slowRatedRepo{started: make(chan struct{}, 4), release: make(chan struct{})}
	defer close(repo.release)
	repl := NewMarkReplicator(repo, 16)
	stop := repl.Start(1)

	repl.Enqueue(7, 1)
	<-repo.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, stop(ctx), context.DeadlineExceeded)
}
