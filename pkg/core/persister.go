package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/storage"
)

const saveTimeout = 10 * time.Second

// persister writes snapshots from a single goroutine, in the order they
// were scheduled. A failed save is logged and dropped; the next scheduled
// snapshot carries the full state again.
type persister struct {
	store  storage.SnapshotStore
	logger *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*storage.Snapshot
	inflight bool
	closed   bool
	done     chan struct{}
}

func newPersister(store storage.SnapshotStore, logger *zap.Logger) *persister {
	p := &persister{
		store:  store,
		logger: logger,
		done:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// schedule queues snap. It never blocks on the store and reports false
// once the persister is closed.
func (p *persister) schedule(snap *storage.Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, snap)
	p.cond.Broadcast()
	return true
}

func (p *persister) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		snap := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.inflight = true
		p.mu.Unlock()

		p.save(snap)

		p.mu.Lock()
		p.inflight = false
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

func (p *persister) save(snap *storage.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := p.store.Save(ctx, snap); err != nil {
		p.logger.Error("failed to persist snapshot",
			zap.Error(NewEngineError("Save", err)),
			zap.Int("long_term", len(snap.LongTermMemory)),
			zap.Int("preferences", len(snap.Preferences)),
			zap.Int("routines", len(snap.Routines)),
		)
		return
	}
	p.logger.Debug("snapshot persisted", zap.Time("saved_at", snap.SavedAt))
}

// flush waits until every scheduled snapshot has been handled.
func (p *persister) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) > 0 || p.inflight {
		p.cond.Wait()
	}
}

// close drains the queue and stops the worker.
func (p *persister) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}
