package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/archivist/internal/core"
)

const defaultTimeout = 60 * time.Second

// Options are shared by every HTTP provider.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type baseProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newBaseProvider(opts Options) baseProvider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return baseProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		model:   opts.Model,
	}
}

// modelFor picks the per-request model, falling back to the configured one.
func (b *baseProvider) modelFor(req core.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return b.model
}

func (b *baseProvider) doRequest(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.AppUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resp, nil
}

// readBody drains resp and turns any non-200 status into a *core.StatusError.
func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &core.StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
