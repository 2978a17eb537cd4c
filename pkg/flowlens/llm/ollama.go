package llm

import (
	"context"
	"net/http"
	"time"

	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// DefaultOllamaEndpoint is the local generate URL.
const DefaultOllamaEndpoint = "http://localhost:11434/api/generate"

// OllamaClient calls a local Ollama server's generate API.
// Ollama does not report token usage, so Usage is always zero.
type OllamaClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// OllamaOption configures OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithOllamaHTTPClient sets the transport.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.httpClient = hc }
}

// NewOllamaClient creates a client. An empty endpoint uses
// DefaultOllamaEndpoint.
func NewOllamaClient(endpoint string, opts ...OllamaOption) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	c := &OllamaClient{endpoint: endpoint, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Complete implements Client.
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	body := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt(),
		System: req.SystemPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var out ollamaResponse
	if err := postJSON(ctx, c.httpClient, c.endpoint, nil, body, &out); err != nil {
		return nil, NewError("ollama", "complete", err)
	}
	if out.Error != "" {
		return nil, NewError("ollama", "complete", &flerrors.HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    out.Error,
			Endpoint:   c.endpoint,
		})
	}

	finish := ""
	if out.Done {
		finish = "stop"
	}
	return &CompletionResponse{
		Content:      out.Response,
		Model:        model,
		FinishReason: finish,
		Duration:     time.Since(start),
	}, nil
}
