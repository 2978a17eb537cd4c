package models

import (
	"context"
	"net/http"
	"strings"
)

// ProbeURL maps a generation endpoint to its cheap listing endpoint:
// /api/generate becomes /api/tags and /v1/chat/completions becomes
// /v1/models.
func ProbeURL(endpoint string) string {
	u := strings.Replace(endpoint, "/api/generate", "/api/tags", 1)
	return strings.Replace(u, "/v1/chat/completions", "/v1/models", 1)
}

// IsModelAvailable reports whether id can serve a request right now.
// The builtin analyzer always can. Credentialed providers need a key.
// Local daemons must answer a GET on their probe URL within the probe
// timeout.
func (r *Registry) IsModelAvailable(ctx context.Context, id string) bool {
	d, ok := r.Model(id)
	if !ok {
		return false
	}
	if d.Provider == ProviderBuiltin {
		return true
	}
	if d.RequiresAPIKey && !r.HasAPIKey(d.Provider) {
		return false
	}
	if d.Provider.Local() {
		return r.probe(ctx, r.Endpoint(id))
	}
	return true
}

func (r *Registry) probe(ctx context.Context, endpoint string) bool {
	if endpoint == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ProbeURL(endpoint), nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
