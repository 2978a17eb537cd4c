// Package llm holds the completion clients used for AI-assisted flow
// analysis: an OpenAI-compatible client (OpenAI and LM Studio), an
// Anthropic Messages client, an Ollama generate client, and a mock.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	flerrors "github.com/randalmurphal/flowlens/pkg/flowlens/errors"
)

// Client performs a single completion.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Error wraps a backend failure with the operation and provider.
type Error struct {
	Op        string
	Provider  string
	Err       error
	Retryable bool
}

// NewError wraps err. Retryable follows the error's category.
func NewError(provider, op string, err error) *Error {
	return &Error{Op: op, Provider: provider, Err: err, Retryable: flerrors.IsTransient(err)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// maxErrorBody bounds how much of a failed response is kept in errors.
const maxErrorBody = 512

// postJSON sends body to url and decodes a 2xx response into out.
// Non-2xx responses become *errors.HTTPError; undecodable bodies
// become *errors.JSONParseError.
func postJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return flerrors.Permanent(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return flerrors.Permanent(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return flerrors.Transient(err, "send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return flerrors.Transient(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &flerrors.HTTPError{StatusCode: resp.StatusCode, Message: msg, Endpoint: url}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &flerrors.JSONParseError{Input: string(raw), Message: err.Error()}
	}
	return nil
}
