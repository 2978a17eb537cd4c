package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// DefaultAnthropicEndpoint is the Messages API URL.
const DefaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// ClaudeClient calls the Anthropic Messages API over HTTP.
type ClaudeClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// ClaudeOption configures ClaudeClient.
type ClaudeOption func(*ClaudeClient)

// WithClaudeModel sets the default model.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) { c.model = model }
}

// WithClaudeHTTPClient sets the transport.
func WithClaudeHTTPClient(hc *http.Client) ClaudeOption {
	return func(c *ClaudeClient) { c.httpClient = hc }
}

// NewClaudeClient creates a client. An empty endpoint uses
// DefaultAnthropicEndpoint.
func NewClaudeClient(endpoint, apiKey string, opts ...ClaudeOption) *ClaudeClient {
	if endpoint == "" {
		endpoint = DefaultAnthropicEndpoint
	}
	c := &ClaudeClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements Client.
func (c *ClaudeClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []anthropicMessage
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			continue
		}
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	body := anthropicRequest{
		Model:       model,
		Messages:    messages,
		System:      req.SystemPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var out anthropicResponse
	if err := postJSON(ctx, c.httpClient, c.endpoint, headers, body, &out); err != nil {
		return nil, NewError("anthropic", "complete", err)
	}
	if out.Error != nil {
		return nil, NewError("anthropic", "complete", &flerrors.HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    out.Error.Type + ": " + out.Error.Message,
			Endpoint:   c.endpoint,
		})
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, NewError("anthropic", "complete", &flerrors.JSONParseError{Message: "response has no text content"})
	}

	if out.Model != "" {
		model = out.Model
	}
	return &CompletionResponse{
		Content: text.String(),
		Usage: TokenUsage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
		},
		Model:        model,
		FinishReason: out.StopReason,
		Duration:     time.Since(start),
	}, nil
}
