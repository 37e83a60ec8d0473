package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marlonsouza/magic-pipe/internal/chunk"
)

const defaultCompletionsURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You are a helpful code review assistant. Provide clear, constructive feedback focusing on code quality, best practices, potential bugs, and security issues."

// Direct posts prompts straight to an OpenAI-compatible chat completions
// endpoint.
type Direct struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewDirect creates the direct-API backend. The API key is required here;
// MCP mode delegates authentication to the intermediary server.
func NewDirect(cfg Config) (*Direct, error) {
	if cfg.APIKey == "" {
		return nil, &FatalError{Message: "API_KEY is not set"}
	}
	url := cfg.BaseURL
	if url == "" {
		url = defaultCompletionsURL
	}
	return &Direct{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		url:    url,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (d *Direct) Name() string { return "direct" }

// Send performs a single completion call. Retry policy belongs to the
// caller; errors come back classified as transient or fatal.
func (d *Direct) Send(ctx context.Context, req chunk.ReviewRequest) (string, error) {
	body := completionRequest{
		Model: d.model,
		Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &FatalError{Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return "", &FatalError{Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyStatus(httpResp.StatusCode, string(respBody))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &TransientError{Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &TransientError{Err: fmt.Errorf("empty completion in response")}
	}

	return result.Choices[0].Message.Content, nil
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

type completionChoice struct {
	Message completionMessage `json:"message"`
}
