package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/generator"
)

func TestComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
			"content": [{"type": "text", "text": "coach says hi"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	g := NewGenerator(generator.WithAPIKey("k"), generator.WithBaseURL(srv.URL), generator.WithModel("m"))
	out, err := g.Complete(context.Background(), generator.Request{
		System: "system prompt",
		Messages: []generator.Message{
			{Role: generator.RoleUser, Content: "hello"},
			{Role: generator.RoleAssistant, Content: "hi"},
			{Role: generator.RoleUser, Content: "help"},
		},
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "coach says hi", out)

	assert.Equal(t, "m", got["model"])
	assert.EqualValues(t, 64, got["max_tokens"])
	assert.Len(t, got["messages"], 3)
	assert.NotNil(t, got["system"])
}
