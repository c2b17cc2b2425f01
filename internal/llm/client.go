// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"agri-officer/internal/common/logger"
)

var (
	ErrCompletionFailed = errors.New("LLM_COMPLETION_FAILED")
	ErrCompletionEmpty  = errors.New("LLM_COMPLETION_EMPTY")
)

// Config holds the chat completions endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: config,
		client: &http.Client{
			// No client-level timeout; the per-call context bounds each request.
		},
		logger: log.With(map[string]interface{}{
			"component": "llm-client",
			"model":     config.Model,
		}),
	}
}

type completionRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete submits the conversation and returns the assistant message.
// Passing a nil or empty tools slice disables function calling for the
// call, which forces a natural-language reply. The call is never retried;
// failures surface to the caller exactly once.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBody := completionRequest{
		Model:    c.config.Model,
		Messages: messages,
		Tools:    tools,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("completion request rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(snippet),
		})
		return nil, fmt.Errorf("%w: status %d", ErrCompletionFailed, resp.StatusCode)
	}

	var apiResponse completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrCompletionFailed, err)
	}

	if apiResponse.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompletionFailed, apiResponse.Error.Message)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, ErrCompletionEmpty
	}

	msg := apiResponse.Choices[0].Message
	c.logger.Info("completion received", map[string]interface{}{
		"finishReason": apiResponse.Choices[0].FinishReason,
		"toolCalls":    len(msg.ToolCalls),
		"contentLen":   len(msg.Content),
	})

	return &msg, nil
}
