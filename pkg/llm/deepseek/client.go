// Package deepseek implements llm.Provider on the DeepSeek API, which is
// OpenAI-compatible and reuses the OpenAI SDK.
package deepseek

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/methmouth/Robot/pkg/llm"
)

// DefaultBaseURL is the public DeepSeek endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

// Client is a DeepSeek LLM client.
// DeepSeek chat models have no vision input, so image attachments are
// replaced by a short textual marker.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for DeepSeek LLM.
// APIKey: DeepSeek API key (required)
// Model: Model name to use, defaults to "deepseek-chat"
// BaseURL: API base URL, defaults to DefaultBaseURL
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new DeepSeek LLM client.
//
// Args:
//   - cfg: DeepSeek configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *Client: client instance
//   - error: Returns an error if the configuration is missing or invalid
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("deepseek: nil config")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Generate generates text based on the prompt.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - prompt: User input prompt
//   - opts: Optional generation parameters (temperature, max_tokens, JSON mode, etc.)
//
// Returns:
//   - string: Generated text content
//   - error: Returns an error if generation fails
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages generates text using message history.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - messages: Message history; images are replaced by a text note because the API is text-only
//   - opts: Optional generation parameters (temperature, max_tokens, JSON mode, etc.)
//
// Returns:
//   - string: Generated text content
//   - error: Returns an error if the request fails or no content is returned
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		content := msg.Content
		if len(msg.Images) > 0 {
			content = strings.TrimSpace(content + "\n\n[screen image omitted: model has no vision input]")
		}
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	}
	if options.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("llm generation failed: no choices returned from DeepSeek API")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
