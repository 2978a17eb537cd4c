package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// LM Studio is served by the same client without an API key.
type OpenAIClient struct {
	client   *openai.Client
	provider string
	endpoint string
	model    string
}

// OpenAIOption configures OpenAIClient.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	provider   string
	model      string
	httpClient *http.Client
}

// WithProvider sets the provider name reported in errors.
func WithProvider(name string) OpenAIOption {
	return func(c *openAIConfig) { c.provider = name }
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithOpenAIHTTPClient sets the transport.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) { c.httpClient = hc }
}

// NewOpenAIClient creates a client for endpoint, which may be a full
// ".../chat/completions" URL or an API base URL. apiKey may be empty.
func NewOpenAIClient(endpoint, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openAIConfig{provider: "openai"}
	for _, opt := range opts {
		opt(&cfg)
	}

	oc := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		oc.BaseURL = BaseURL(endpoint)
	}
	if cfg.httpClient != nil {
		oc.HTTPClient = cfg.httpClient
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(oc),
		provider: cfg.provider,
		endpoint: endpoint,
		model:    cfg.model,
	}
}

// BaseURL strips the chat completions path from an endpoint.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	return strings.TrimSuffix(base, "/chat/completions")
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError(c.provider, "complete", ctx.Err())
		}
		return nil, NewError(c.provider, "complete", c.translate(err))
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(c.provider, "complete", &flerrors.JSONParseError{Message: "response has no choices"})
	}

	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:        model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Duration:     time.Since(start),
	}, nil
}

// translate maps go-openai errors onto the shared error types so they
// categorize like the raw HTTP clients.
func (c *OpenAIClient) translate(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &flerrors.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Endpoint: c.endpoint}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := reqErr.HTTPStatus
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &flerrors.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: msg, Endpoint: c.endpoint}
	}
	if strings.Contains(err.Error(), "unmarshal") || strings.Contains(err.Error(), "invalid character") {
		return &flerrors.JSONParseError{Message: err.Error()}
	}
	return err
}
