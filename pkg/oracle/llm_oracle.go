package oracle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/llm"
)

// LLMOracle answers requests with an llm.Provider.
type LLMOracle struct {
	provider llm.Provider
	logger   *zap.Logger
	genOpts  []llm.GenerateOption
}

// Option configures an LLMOracle.
type Option func(*LLMOracle)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *LLMOracle) {
		o.logger = l
	}
}

// WithGenerateOptions overrides the generation options. The default is a
// low temperature in JSON mode.
func WithGenerateOptions(opts ...llm.GenerateOption) Option {
	return func(o *LLMOracle) {
		o.genOpts = opts
	}
}

// NewLLMOracle creates an oracle backed by provider.
func NewLLMOracle(provider llm.Provider, opts ...Option) *LLMOracle {
	o := &LLMOracle{
		provider: provider,
		logger:   zap.NewNop(),
		genOpts: []llm.GenerateOption{
			llm.WithTemperature(0.2),
			llm.WithMaxTokens(1200),
			llm.WithJSONMode(),
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Query implements Oracle.
func (o *LLMOracle) Query(ctx context.Context, req *Request) (*intent.Intent, error) {
	if req == nil {
		return nil, errors.New("oracle: nil request")
	}

	user := llm.Message{Role: llm.RoleUser, Content: BuildUserPrompt(req)}
	if wantsImage(req) {
		user.Images = []llm.Image{{MIMEType: req.Image.MIMEType, Data: req.Image.Data}}
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: BuildSystemPrompt(req)},
		user,
	}

	response, err := o.provider.GenerateWithMessages(ctx, messages, o.genOpts...)
	if err != nil {
		return nil, fmt.Errorf("oracle: generate: %w", err)
	}

	in, err := intent.Decode([]byte(response))
	if err != nil {
		o.logger.Debug("rejected oracle response", zap.String("response", response), zap.Error(err))
		return nil, fmt.Errorf("oracle: %w", err)
	}
	return in, nil
}

// Close releases the underlying provider.
func (o *LLMOracle) Close() error {
	return o.provider.Close()
}
