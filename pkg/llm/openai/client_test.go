package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/llm"
	"github.com/methmouth/Robot/pkg/llm/openai"
)

type capturedRequest struct {
	Model          string            `json:"model"`
	Messages       []json.RawMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newServer(t *testing.T, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}}},
		})
	}))
}

func TestGenerateWithMessagesSendsImages(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, `{"ok":true}`, &captured)
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{APIKey: "test", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	out, err := client.GenerateWithMessages(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "what is on screen?", Images: []llm.Image{{MIMEType: "image/png", Data: []byte("png")}}},
	}, llm.WithJSONMode())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, string(captured.Messages[0]), `"content":"be brief"`)
	assert.Contains(t, string(captured.Messages[1]), `"image_url"`)
	assert.Contains(t, string(captured.Messages[1]), "data:image/png;base64,cG5n")
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestGenerateDefaultsModel(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, "hi", &captured)
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Nil(t, captured.ResponseFormat)
}

func TestNewClientNilConfig(t *testing.T) {
	_, err := openai.NewClient(nil)
	assert.Error(t, err)
}
