// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(&Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "llama-3.3-70b-versatile",
		Timeout: 5 * time.Second,
	}, logger.NewTestLogger(t))
}

func TestComplete_Success(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "Namaskara!"}, "finish_reason": "stop"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	msg, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "policy"},
		{Role: RoleUser, Content: "hello"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Namaskara!", msg.Content)
	assert.Equal(t, "llama-3.3-70b-versatile", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, RoleSystem, captured.Messages[0].Role)
	assert.Empty(t, captured.Tools)
}

func TestComplete_SerializesToolDefinitions(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`)
	}))
	defer server.Close()

	tool := NewToolDefinition("get_weather", "weather lookup", validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"city": {Type: "string"},
		},
		Required: []string{"city"},
	})

	client := newTestClient(t, server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, []ToolDefinition{tool})
	require.NoError(t, err)

	toolsJSON, ok := captured["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, toolsJSON, 1)
	first := toolsJSON[0].(map[string]interface{})
	assert.Equal(t, "function", first["type"])
	fn := first["function"].(map[string]interface{})
	assert.Equal(t, "get_weather", fn["name"])
	params := fn["parameters"].(map[string]interface{})
	assert.Equal(t, "object", params["type"])
}

func TestComplete_ParsesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "", "tool_calls": [
			{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\": \"Mysuru\"}"}}
		]}, "finish_reason": "tool_calls"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	msg, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "weather?"}}, nil)

	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city": "Mysuru"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestComplete_ErrorStatusIsNotRetried(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
	assert.Equal(t, 1, attempts, "completion calls must never be retried")
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	assert.True(t, errors.Is(err, ErrCompletionEmpty))
}

func TestComplete_APIErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error": {"message": "model overloaded", "type": "server_error"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestComplete_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, []Message{{Role: RoleUser, Content: "hi"}}, nil)
	assert.Error(t, err)
}
