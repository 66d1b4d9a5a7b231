package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/methmouth/Robot/pkg/core"
	"github.com/methmouth/Robot/pkg/intelligence"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/oracle"
)

func answer(in *intent.Intent) oracle.Func {
	return func(context.Context, *oracle.Request) (*intent.Intent, error) {
		return in.Clone(), nil
	}
}

func TestUnderstandIntentRecordsInteraction(t *testing.T) {
	engine, _ := newEngine(t, core.WithOracle(answer(&intent.Intent{
		Category:   intent.CategoryInformation,
		Action:     "weather",
		Confidence: 0.8,
		Parameters: map[string]any{"city": "Lima"},
	})))

	in := engine.UnderstandIntent(context.Background(), "what's the weather", nil)
	require.NotNil(t, in)
	assert.False(t, in.Fallback)
	assert.Equal(t, "weather", in.Action)

	records := engine.ShortTermMemory()
	require.Len(t, records, 1)
	assert.Equal(t, core.KindCommand, records[0].Kind)
	assert.Equal(t, "what's the weather", records[0].Content["input"])
	assert.Equal(t, "information", records[0].Content["category"])
	assert.Equal(t, map[string]any{"city": "Lima"}, records[0].Content["parameters"])
	assert.Empty(t, engine.Preferences(), "nothing learned unless asked")
}

func TestUnderstandIntentFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		oracle oracle.Func
	}{
		{
			name: "oracle error",
			oracle: func(context.Context, *oracle.Request) (*intent.Intent, error) {
				return nil, errors.New("service unavailable")
			},
		},
		{
			name: "nil intent",
			oracle: func(context.Context, *oracle.Request) (*intent.Intent, error) {
				return nil, nil
			},
		},
		{
			name:   "invalid category",
			oracle: answer(&intent.Intent{Category: "gossip", Action: "x", Confidence: 0.5}),
		},
		{
			name:   "confidence out of range",
			oracle: answer(&intent.Intent{Category: intent.CategoryMeta, Action: "x", Confidence: 1.5}),
		},
		{
			name: "unknown step",
			oracle: answer(&intent.Intent{
				Category: intent.CategoryAppControl, Action: "x", Confidence: 0.5,
				ExecutionSteps: []intent.Step{step("teleport", nil)},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, logs := observer.New(zap.WarnLevel)
			engine, _ := newEngine(t, core.WithOracle(tt.oracle), core.WithLogger(zap.New(obs)))

			in := engine.UnderstandIntent(context.Background(), "do the thing", nil)
			require.NotNil(t, in)
			assert.True(t, in.Fallback)
			assert.Equal(t, intent.CategoryAmbiguous, in.Category)
			assert.Equal(t, 0.3, in.Confidence)
			assert.Contains(t, in.SuggestedResponse, "do the thing")
			assert.Empty(t, engine.ShortTermMemory())
			assert.Equal(t, 1, logs.FilterMessage("oracle query failed, using fallback intent").Len())
		})
	}
}

func TestUnderstandIntentTimesOut(t *testing.T) {
	blocking := oracle.Func(func(ctx context.Context, _ *oracle.Request) (*intent.Intent, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	engine, _ := newEngine(t, core.WithOracle(blocking))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	in := engine.UnderstandIntent(ctx, "slow", nil)
	assert.True(t, in.Fallback)
}

func TestUnderstandIntentRequest(t *testing.T) {
	var got *oracle.Request
	capture := oracle.Func(func(_ context.Context, req *oracle.Request) (*intent.Intent, error) {
		got = req
		return &intent.Intent{Category: intent.CategoryMeta, Action: "noop", Confidence: 0.5}, nil
	})
	engine, _ := newEngine(t, core.WithOracle(capture))
	engine.LearnPreference("language", "es", core.SourceExplicit)
	engine.LearnPreference("ringtone", "bell", core.SourceImplicit)

	snap := &intent.Snapshot{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	engine.UnderstandIntent(context.Background(), "what is on screen", snap)

	require.NotNil(t, got)
	assert.Equal(t, "what is on screen", got.Utterance)
	assert.Equal(t, "Atlas", got.Persona.Name)
	assert.True(t, got.Context.VisualAvailable)
	assert.Same(t, snap, got.Image)
	assert.NotEmpty(t, got.Schema)
	assert.Equal(t, map[string]any{"language": "es", "ringtone": "bell"}, got.Preferences)
}

func TestUnderstandIntentLearns(t *testing.T) {
	in := &intent.Intent{
		Category:      intent.CategoryInformation,
		Action:        "search",
		Confidence:    0.9,
		Parameters:    map[string]any{"browser": "firefox", "query": "news"},
		LearnFromThis: true,
		ExecutionSteps: []intent.Step{
			step(intent.ActionOpenApp, map[string]any{"package": "firefox"}),
			step(intent.ActionSearch, map[string]any{"query": "news"}),
		},
	}
	engine, store := newEngine(t, core.WithOracle(answer(in)))
	ctx := context.Background()

	engine.UnderstandIntent(ctx, "search news in firefox", nil)
	engine.UnderstandIntent(ctx, "search news in firefox", nil)

	browser, ok := engine.Preference(intelligence.PreferredBrowserKey)
	require.True(t, ok)
	assert.Equal(t, "firefox", browser.Value)
	assert.Equal(t, core.SourceImplicit, browser.Source)
	assert.InDelta(t, 0.8, browser.Confidence, 1e-9)

	apps, ok := engine.Preference(intelligence.FavoriteAppsKey)
	require.True(t, ok)
	assert.Equal(t, []string{"firefox"}, apps.Value)
	assert.Equal(t, core.ImplicitConfidence, apps.Confidence)

	hours, ok := engine.Preference(intelligence.ActionTimePrefix + "search")
	require.True(t, ok)
	assert.Equal(t, []int{9, 9}, hours.Value)
	assert.Equal(t, core.ActionTimeConfidence, hours.Confidence)

	engine.Flush()
	assert.Equal(t, 2, store.saveCount())
}
