package service

import (
	"context"
	"sync"

	"github.com/d60-Lab/ideahub/internal/repository"
)

type ledgerKey struct {
	userID int64
	ideaID int64
}

// RatedLedger remembers which ideas a viewer has rated. Entries only ever go
// from absent to present; a present entry is never re-queried.
type RatedLedger struct {
	mu    sync.RWMutex
	marks map[ledgerKey]struct{}
	repl  *MarkReplicator
}

// NewRatedLedger builds a ledger. repl may be nil for a memory-only ledger.
func NewRatedLedger(repl *MarkReplicator) *RatedLedger {
	return &RatedLedger{marks: make(map[ledgerKey]struct{}), repl: repl}
}

func (l *RatedLedger) Has(userID, ideaID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.marks[ledgerKey{userID, ideaID}]
	return ok
}

func (l *RatedLedger) Mark(userID, ideaID int64) {
	k := ledgerKey{userID, ideaID}
	l.mu.Lock()
	_, seen := l.marks[k]
	l.marks[k] = struct{}{}
	l.mu.Unlock()
	if !seen && l.repl != nil {
		l.repl.Enqueue(userID, ideaID)
	}
}

// Preload copies the persisted marks of userID into memory.
func (l *RatedLedger) Preload(ctx context.Context, repo repository.RatedRepository, userID int64) error {
	ids, err := repo.ListIdeaIDs(ctx, userID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	for _, id := range ids {
		l.marks[ledgerKey{userID, id}] = struct{}{}
	}
	l.mu.Unlock()
	return nil
}

func (l *RatedLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.marks)
}
