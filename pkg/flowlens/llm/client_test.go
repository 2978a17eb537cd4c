package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
	"github.com/randalmurphal/flowlens/pkg/flowlens/llm"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1"},
		{"http://localhost:1234/v1/chat/completions/", "http://localhost:1234/v1"},
		{"http://localhost:1234/v1", "http://localhost:1234/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.BaseURL(tt.endpoint))
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotBody = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"issues\":[]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`)
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient(srv.URL+"/v1/chat/completions", "sk-test", llm.WithOpenAIModel("gpt-4"))
	req := llm.UserPrompt("analyze")
	req.SystemPrompt = "answer in JSON"
	req.MaxTokens = 100
	req.Temperature = 0.3

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, `{"issues":[]}`, resp.Content)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "Bearer sk-test", gotAuth)

	assert.Equal(t, "gpt-4", gotBody["model"])
	assert.EqualValues(t, 100, gotBody["max_tokens"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "analyze", messages[1].(map[string]any)["content"])
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`, false},
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "slow down", "type": "rate_limit"}}`, true},
		{"server error", http.StatusInternalServerError, `oops`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := llm.NewOpenAIClient(srv.URL+"/v1/chat/completions", "", llm.WithProvider("lmstudio"))
			_, err := client.Complete(context.Background(), llm.UserPrompt("x"))
			require.Error(t, err)

			var llmErr *llm.Error
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, "lmstudio", llmErr.Provider)
			assert.Equal(t, tt.retryable, llmErr.Retryable)

			var httpErr *flerrors.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
		})
	}
}

func TestClaudeClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := decodeBody(t, r)
		assert.Equal(t, "claude-3-haiku-20240307", body["model"])
		assert.EqualValues(t, 4096, body["max_tokens"])
		assert.Equal(t, "be brief", body["system"])

		_, _ = io.WriteString(w, `{
			"content": [{"type": "text", "text": "part one "}, {"type": "text", "text": "part two"}],
			"model": "claude-3-haiku-20240307",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 12}
		}`)
	}))
	defer srv.Close()

	client := llm.NewClaudeClient(srv.URL, "key-1", llm.WithClaudeModel("claude-3-haiku-20240307"))
	req := llm.UserPrompt("analyze")
	req.SystemPrompt = "be brief"
	req.MaxTokens = 4096

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Content)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

func TestClaudeClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		assertKind func(t *testing.T, err error)
	}{
		{
			name:   "overloaded",
			status: http.StatusServiceUnavailable,
			body:   `{"error": {"type": "overloaded_error", "message": "busy"}}`,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, flerrors.IsTransient(err))
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `not json`,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, flerrors.IsMalformed(err))
			},
		},
		{
			name:   "no text content",
			status: http.StatusOK,
			body:   `{"content": []}`,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, flerrors.IsMalformed(err))
			},
		},
		{
			name:   "error envelope",
			status: http.StatusOK,
			body:   `{"error": {"type": "invalid_request_error", "message": "bad model"}}`,
			assertKind: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "bad model")
				assert.False(t, flerrors.IsTransient(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := llm.NewClaudeClient(srv.URL, "k").Complete(context.Background(), llm.UserPrompt("x"))
			require.Error(t, err)
			tt.assertKind(t, err)
		})
	}
}

func TestOllamaClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "codellama:7b", body["model"])
		assert.Equal(t, "first\n\nsecond", body["prompt"])
		assert.Equal(t, false, body["stream"])
		opts, ok := body["options"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 2048, opts["num_predict"])
		assert.InDelta(t, 0.2, opts["temperature"], 1e-9)

		_, _ = io.WriteString(w, `{"model": "codellama:7b", "response": "looks fine", "done": true}`)
	}))
	defer srv.Close()

	client := llm.NewOllamaClient(srv.URL + "/api/generate")
	resp, err := client.Complete(context.Background(), llm.CompletionRequest{
		Model: "codellama:7b",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "first"},
			{Role: llm.RoleAssistant, Content: "ignored"},
			{Role: llm.RoleUser, Content: "second"},
		},
		MaxTokens:   2048,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", resp.Content)
	assert.Zero(t, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOllamaClient_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error": "model 'nope' not found"}`)
	}))
	defer srv.Close()

	_, err := llm.NewOllamaClient(srv.URL).Complete(context.Background(), llm.UserPrompt("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClient_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := llm.NewOllamaClient(srv.URL).Complete(ctx, llm.UserPrompt("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, flerrors.IsTransient(err))
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	clients := map[string]llm.Client{
		"anthropic": llm.NewClaudeClient(url, "sk-ant-test"),
		"ollama":    llm.NewOllamaClient(url),
	}
	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			_, err := client.Complete(context.Background(), llm.UserPrompt("x"))
			require.Error(t, err)
			assert.True(t, flerrors.IsTransient(err))

			var catErr *flerrors.CategorizedError
			require.ErrorAs(t, err, &catErr)
			assert.Equal(t, "send request", catErr.Context)

			var llmErr *llm.Error
			require.ErrorAs(t, err, &llmErr)
			assert.True(t, llmErr.Retryable)
		})
	}
}
