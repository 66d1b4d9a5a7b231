package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/intelligence"
	"github.com/methmouth/Robot/pkg/oracle"
	"github.com/methmouth/Robot/pkg/storage"
	"github.com/methmouth/Robot/pkg/voice"
)

const loadTimeout = 10 * time.Second

// Engine is the assistant's memory and learning engine.
//
// It owns the memory records, preferences, context, routines and
// personality, interprets utterances through the oracle and persists its
// durable state through a snapshot store. All state is guarded by a single
// mutex; slow work (oracle queries, saves, speech) happens outside it.
//
// The engine is safe for concurrent use.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	engine, _ := core.NewEngine(config)
//	defer engine.Close()
//
//	in := engine.UnderstandIntent(ctx, "open maps", nil)
type Engine struct {
	cfg    *Config
	store  storage.SnapshotStore
	oracle oracle.Oracle
	voice  voice.IO
	logger *zap.Logger
	now    func() time.Time

	node      *snowflake.Node
	scorer    *intelligence.ImportanceScorer
	detector  *intelligence.RoutineDetector
	persister *persister

	mu          sync.Mutex
	shortTerm   []MemoryRecord
	longTerm    []MemoryRecord
	working     map[string]any
	preferences map[string]*Preference
	context     ContextState
	routines    []*Routine
	personality Personality
	closed      bool
}

// NewEngine creates an engine.
//
// A nil cfg uses DefaultConfig. The store and oracle come from options when
// given, otherwise they are built from cfg. Saved state is loaded before
// NewEngine returns; a missing or unreadable snapshot is logged and the
// engine starts empty.
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		c := *cfg
		cfg = &c
		cfg.ApplyDefaults()
	}

	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := o.now
	if now == nil {
		now = time.Now
	}

	nodeID := cfg.Engine.NodeID
	if o.nodeID != nil {
		nodeID = *o.nodeID
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	store := o.store
	if store == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if store, err = initStorage(cfg.Store); err != nil {
			return nil, err
		}
	}

	orc := o.oracle
	if orc == nil && !o.noOracle && cfg.Oracle.Provider != "" {
		if err := cfg.Validate(); err != nil {
			_ = closeIfOwned(o.store, store)
			return nil, err
		}
		if orc, err = NewOracleFromConfig(cfg.Oracle, logger); err != nil {
			_ = closeIfOwned(o.store, store)
			return nil, err
		}
	}

	e := &Engine{
		cfg:         cfg,
		store:       store,
		oracle:      orc,
		voice:       o.voice,
		logger:      logger,
		now:         now,
		node:        node,
		scorer:      intelligence.NewImportanceScorer(),
		detector:    intelligence.NewRoutineDetector(now),
		working:     make(map[string]any),
		preferences: make(map[string]*Preference),
		personality: cfg.Personality,
		context: ContextState{
			CurrentActivity: "idle",
			TimeOfDay:       daypart.Of(now()),
		},
	}

	e.load()
	e.persister = newPersister(store, logger)
	return e, nil
}

// closeIfOwned closes store when NewEngine opened it itself.
func closeIfOwned(given, store storage.SnapshotStore) error {
	if given != nil || store == nil {
		return nil
	}
	return store.Close()
}

func (e *Engine) load() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	snap, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		e.logger.Info("no saved state, starting fresh")
		return
	case err != nil:
		e.logger.Warn("could not load saved state, starting fresh",
			zap.Error(NewEngineError("Load", err)))
		return
	}

	e.mu.Lock()
	e.applySnapshot(snap)
	e.mu.Unlock()

	e.logger.Info("saved state loaded",
		zap.Int("long_term", len(snap.LongTermMemory)),
		zap.Int("preferences", len(snap.Preferences)),
		zap.Int("routines", len(snap.Routines)),
	)
}

// scheduleSaveLocked queues a snapshot of the current state. The caller
// holds e.mu.
func (e *Engine) scheduleSaveLocked() {
	if e.closed {
		return
	}
	e.persister.schedule(e.snapshotLocked())
}

// Flush waits for every scheduled save to finish.
func (e *Engine) Flush() {
	e.persister.flush()
}

// Close drains pending saves and closes the store and the oracle when it
// can be closed. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.persister.close()

	var errs []error
	if closer, ok := e.oracle.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if err := e.store.Close(); err != nil {
		errs = append(errs, NewEngineError("Close", err))
	}
	return errors.Join(errs...)
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return *e.cfg
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Voice returns the configured voice, or nil.
func (e *Engine) Voice() voice.IO {
	return e.voice
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Personality returns the current persona.
func (e *Engine) Personality() Personality {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.personality
}

// SetPersonality replaces the persona and persists it. Empty text fields
// keep their current value.
func (e *Engine) SetPersonality(p Personality) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.Name == "" {
		p.Name = e.personality.Name
	}
	if p.Tone == "" {
		p.Tone = e.personality.Tone
	}
	if p.Verbosity == "" {
		p.Verbosity = e.personality.Verbosity
	}
	e.personality = p
	e.scheduleSaveLocked()
}

// speak announces text on the engine voice, if any. Failures are logged.
func (e *Engine) speak(ctx context.Context, text string) {
	if e.voice == nil {
		return
	}
	if err := e.voice.Speak(ctx, text); err != nil {
		e.logger.Warn("speak failed", zap.Error(err))
	}
}
