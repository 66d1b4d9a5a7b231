package conversation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intent"
)

type pending struct {
	utterance string
	snapshot  *intent.Snapshot
	result    chan *Outcome
}

// queue holds utterances waiting for the worker, in arrival order.
type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []pending
	started bool
	closed  bool
	done    chan struct{}
}

func (q *queue) init() {
	q.cond = sync.NewCond(&q.mu)
	q.done = make(chan struct{})
}

// Start runs the worker that processes enqueued utterances one at a time.
// Utterances still queued when ctx is done are dropped.
func (m *Manager) Start(ctx context.Context) error {
	q := &m.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.closed:
		return ErrClosed
	case q.started:
		return ErrAlreadyStarted
	}
	q.started = true

	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	go func() {
		defer close(q.done)
		defer stop()
		m.work(ctx)
	}()
	return nil
}

func (m *Manager) work(ctx context.Context) {
	q := &m.queue
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.closed = true
			q.mu.Unlock()
			return
		}
		p := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := ctx.Err(); err != nil {
			p.result <- &Outcome{Kind: OutcomeDropped, Utterance: p.utterance, Err: err}
			close(p.result)
			continue
		}
		p.result <- m.ProcessUtterance(ctx, p.utterance, p.snapshot)
		close(p.result)
	}
}

// Enqueue queues an utterance for the worker. The returned channel
// receives its Outcome once processed. Queued utterances are never merged.
func (m *Manager) Enqueue(utterance string, snapshot *intent.Snapshot) (<-chan *Outcome, error) {
	q := &m.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.closed:
		return nil, ErrClosed
	case !q.started:
		return nil, ErrNotStarted
	}

	result := make(chan *Outcome, 1)
	q.items = append(q.items, pending{utterance: utterance, snapshot: snapshot, result: result})
	q.cond.Signal()
	return result, nil
}

// Pending returns how many utterances wait for the worker.
func (m *Manager) Pending() int {
	m.queue.mu.Lock()
	defer m.queue.mu.Unlock()
	return len(m.queue.items)
}

// Close stops accepting utterances and waits for the worker to finish the
// queued ones.
func (m *Manager) Close() error {
	q := &m.queue
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	q.cond.Broadcast()
	q.mu.Unlock()

	if started {
		<-q.done
	}
	return nil
}

// Listen feeds everything the voice hears to the worker until ctx is done
// or the input ends. A line heard while a question is pending answers
// that question instead. Start must have been called.
func (m *Manager) Listen(ctx context.Context) error {
	if m.io == nil {
		return ErrNoVoice
	}
	m.mu.Lock()
	m.listening = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.listening = false
		m.mu.Unlock()
	}()

	return m.io.ListenContinuous(ctx, func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || m.offerReply(text) {
			return
		}

		var frame *intent.Snapshot
		if m.frames != nil {
			frame = m.frames(ctx)
		}
		if _, err := m.Enqueue(text, frame); err != nil {
			m.logger.Warn("utterance dropped", zap.String("utterance", text), zap.Error(err))
		}
	})
}
