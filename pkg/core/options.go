package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/oracle"
	"github.com/methmouth/Robot/pkg/storage"
	"github.com/methmouth/Robot/pkg/voice"
)

// Option configures an Engine.
//
// Options override what NewEngine would otherwise build from the Config.
type Option func(*engineOptions)

type engineOptions struct {
	store    storage.SnapshotStore
	oracle   oracle.Oracle
	noOracle bool
	voice    voice.IO
	logger   *zap.Logger
	now      func() time.Time
	nodeID   *int64
}

// WithStore sets the snapshot store instead of opening Config.Store.
// The engine closes it in Close.
func WithStore(store storage.SnapshotStore) Option {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithOracle sets the oracle instead of building one from Config.Oracle.
// A nil oracle runs the engine without one.
func WithOracle(orc oracle.Oracle) Option {
	return func(o *engineOptions) {
		o.oracle = orc
		o.noOracle = orc == nil
	}
}

// WithVoice sets the voice used for spontaneous announcements, such as
// automation suggestions, and as the default dialog of the coordinator.
func WithVoice(io voice.IO) Option {
	return func(o *engineOptions) {
		o.voice = io
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithClock replaces time.Now, for tests.
//
// Example:
//
//	at := time.Date(2024, 6, 1, 7, 30, 0, 0, time.Local)
//	engine, _ := core.NewEngine(nil, core.WithClock(func() time.Time { return at }))
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) {
		o.now = now
	}
}

// WithIDNode sets the snowflake node id, overriding Config.Engine.NodeID.
func WithIDNode(id int64) Option {
	return func(o *engineOptions) {
		o.nodeID = &id
	}
}
