package core

import (
	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intent"
)

// RecordInteraction remembers an interpreted utterance.
//
// The record always enters short-term memory, evicting the oldest record
// when full. Records whose importance reaches intelligence.LongTermThreshold
// are also kept in long-term memory and a save is scheduled.
func (e *Engine) RecordInteraction(utterance string, in *intent.Intent) MemoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordInteractionLocked(utterance, in)
}

func (e *Engine) recordInteractionLocked(utterance string, in *intent.Intent) MemoryRecord {
	content := map[string]any{"input": utterance}
	if in != nil {
		content["category"] = string(in.Category)
		content["action"] = in.Action
		content["confidence"] = in.Confidence
		if len(in.Parameters) > 0 {
			content["parameters"] = cloneMap(in.Parameters)
		}
	}

	score := e.scorer.Score(in)
	rec := MemoryRecord{
		ID:         e.node.Generate().Int64(),
		Timestamp:  e.now(),
		Kind:       KindCommand,
		Content:    content,
		Importance: score,
	}

	e.shortTerm = append(e.shortTerm, rec)
	if over := len(e.shortTerm) - e.cfg.Engine.ShortTermCapacity; over > 0 {
		e.shortTerm = append(e.shortTerm[:0:0], e.shortTerm[over:]...)
	}

	if e.scorer.Promote(score) {
		e.longTerm = append(e.longTerm, copyRecord(rec))
		e.logger.Debug("interaction promoted to long-term memory",
			zap.Int64("id", rec.ID), zap.Int("importance", score))
		e.scheduleSaveLocked()
	}
	return copyRecord(rec)
}

// ShortTermMemory returns the short-term records, oldest first.
func (e *Engine) ShortTermMemory() []MemoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyRecords(e.shortTerm)
}

// LongTermMemory returns the long-term records, oldest first.
func (e *Engine) LongTermMemory() []MemoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyRecords(e.longTerm)
}

// SetWorking stores a scratch value for the task at hand. Working memory
// is never persisted.
func (e *Engine) SetWorking(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working[key] = value
}

// Working returns a scratch value.
func (e *Engine) Working(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.working[key]
	return v, ok
}

// ClearWorking empties working memory.
func (e *Engine) ClearWorking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = make(map[string]any)
}

func copyRecord(rec MemoryRecord) MemoryRecord {
	rec.Content = cloneMap(rec.Content)
	return rec
}

func copyRecords(records []MemoryRecord) []MemoryRecord {
	out := make([]MemoryRecord, len(records))
	for i, rec := range records {
		out[i] = copyRecord(rec)
	}
	return out
}
