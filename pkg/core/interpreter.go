package core

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intelligence"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/oracle"
)

// UnderstandIntent interprets utterance with the oracle.
//
// It never fails: when the oracle is missing, errors, times out or answers
// with something that does not validate, the fallback intent is returned.
// A successful interpretation is recorded in memory and, when the intent
// asks for it, learned from.
func (e *Engine) UnderstandIntent(ctx context.Context, utterance string, snapshot *intent.Snapshot) *intent.Intent {
	e.mu.Lock()
	req := &oracle.Request{
		Persona:     e.personaLocked(),
		Context:     e.buildRichContextLocked(snapshot),
		Preferences: e.relevantPreferencesLocked(),
		Utterance:   utterance,
		Schema:      intent.SchemaText(),
		Image:       snapshot,
	}
	orc := e.oracle
	e.mu.Unlock()

	if orc == nil {
		e.logger.Warn("interpretation skipped", zap.Error(NewEngineError("UnderstandIntent", ErrOracleUnavailable)))
		return intent.Fallback(utterance)
	}

	qctx, cancel := context.WithTimeout(ctx, e.cfg.OracleTimeout())
	defer cancel()

	in, err := orc.Query(qctx, req)
	if err == nil {
		if in == nil {
			err = errors.New("oracle returned no intent")
		} else {
			err = in.Validate()
		}
	}
	if err != nil {
		e.logger.Warn("oracle query failed, using fallback intent",
			zap.String("utterance", utterance),
			zap.Bool("timeout", errors.Is(qctx.Err(), context.DeadlineExceeded)),
			zap.Error(err))
		return intent.Fallback(utterance)
	}

	e.mu.Lock()
	e.recordInteractionLocked(utterance, in)
	if in.LearnFromThis {
		e.learnFromLocked(in)
	}
	e.mu.Unlock()

	e.logger.Debug("intent understood",
		zap.String("category", string(in.Category)),
		zap.String("action", in.Action),
		zap.Float64("confidence", in.Confidence))
	return in
}

// learnFromLocked folds the implicit signals of in into the preferences.
func (e *Engine) learnFromLocked(in *intent.Intent) {
	at := e.now()
	signals := intelligence.ExtractSignals(in, at)
	if len(signals) == 0 {
		return
	}

	for _, s := range signals {
		var existing any
		if p, ok := e.preferences[s.Key]; ok {
			existing = p.Value
		}
		switch s.Kind {
		case intelligence.SignalPreference:
			e.learnPreferenceLocked(s.Key, s.Value, SourceImplicit)
		case intelligence.SignalActionHour:
			hour, _ := s.Value.(int)
			e.setPatternLocked(s.Key, intelligence.AppendHour(existing, hour, intelligence.MaxActionHours),
				ActionTimeConfidence, at)
		case intelligence.SignalFavoriteApp:
			app, _ := s.Value.(string)
			e.setPatternLocked(s.Key, intelligence.PushFavorite(existing, app, intelligence.MaxFavoriteApps),
				ImplicitConfidence, at)
		}
	}
	e.scheduleSaveLocked()
}

func (e *Engine) personaLocked() oracle.Persona {
	p := e.personality
	return oracle.Persona{Name: p.Name, Tone: p.Tone, Verbosity: p.Verbosity, Proactive: p.Proactive}
}
