package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatible_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  the answer  "}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Options{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	text, err := p.Complete(context.Background(), core.CompletionRequest{
		System:      "sys",
		Prompt:      "question",
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "  the answer  ", text, "text is returned verbatim")

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "question", msgs[1].(map[string]any)["content"])
}

func TestOpenAICompatible_ReasoningModelPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Options{BaseURL: srv.URL, APIKey: "k", Model: "o3-mini"})
	_, err := p.Complete(context.Background(), core.CompletionRequest{Prompt: "q", Temperature: 0.7, MaxTokens: 500})
	require.NoError(t, err)

	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "max_tokens")
	assert.EqualValues(t, 500, got["max_completion_tokens"])
}

func TestOpenAICompatible_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewOpenRouter(Options{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := p.Complete(context.Background(), core.CompletionRequest{Prompt: "q"})

	var se *core.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, se.Body, "bad key")
	assert.False(t, se.Retryable())
}

func TestOpenAICompatible_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p := NewCustomOpenAI(Options{BaseURL: srv.URL, Model: "m", Timeout: 20 * time.Millisecond})
	_, err := p.Complete(context.Background(), core.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
}

func TestOpenAICompatible_Models(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, core.AppName, r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(`{"data":[{"id":"a/b","name":"B","context_length":8192},{"id":"c"}]}`))
	}))
	defer srv.Close()

	models, err := NewOpenRouter(Options{BaseURL: srv.URL, APIKey: "k"}).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Model{
		{ID: "a/b", Name: "B", ContextLength: 8192},
		{ID: "c", Name: "c"},
	}, models)
}

func TestAnthropic_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hel"},{"type":"tool_use"},{"type":"text","text":"lo"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropic(Options{BaseURL: srv.URL, APIKey: "k", Model: "claude"})
	text, err := p.Complete(context.Background(), core.CompletionRequest{System: "sys", Prompt: "q", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "sys", got["system"])
	assert.EqualValues(t, anthropicMaxTokens, got["max_tokens"])
}

func TestIsReasoningModel(t *testing.T) {
	tests := map[string]bool{
		"o3-mini":        true,
		"openai/o1":      true,
		"o4-mini-high":   true,
		"gpt-4o":         false,
		"llama3.1:8b":    false,
		"anthropic/opus": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, isReasoningModel(name), name)
	}
}

type stubClient struct {
	errs  []error
	calls int
}

func (s *stubClient) Complete(context.Context, core.CompletionRequest) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return "done", nil
}

func TestRetrying(t *testing.T) {
	fast := &retry.Config{MaxRetries: 3, BackoffFactor: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success", nil, 1, false},
		{"transient then success", []error{&core.StatusError{Code: 503}, errors.New("reset")}, 3, false},
		{"client error is final", []error{&core.StatusError{Code: 400}}, 1, true},
		{"rate limit retried", []error{&core.StatusError{Code: 429}}, 2, false},
		{"gives up", []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClient{errs: tt.errs}
			text, err := NewRetrying(stub, fast).Complete(context.Background(), core.CompletionRequest{})
			assert.Equal(t, tt.wantCalls, stub.calls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "done", text)
		})
	}
}

type fakeChatModel struct {
	input []*schema.Message
	opts  *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = model.GetCommonOptions(nil, opts...)
	return schema.AssistantMessage("from eino", nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEino_Complete(t *testing.T) {
	fake := &fakeChatModel{}
	e := newEinoWithModel(fake, "gpt-4o-mini")

	text, err := e.Complete(context.Background(), core.CompletionRequest{
		System:      "sys",
		Prompt:      "q",
		Temperature: 0.5,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "from eino", text)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "q", fake.input[1].Content)
	require.NotNil(t, fake.opts.Temperature)
	assert.InDelta(t, 0.5, *fake.opts.Temperature, 1e-6)
	require.NotNil(t, fake.opts.MaxTokens)
	assert.Equal(t, 256, *fake.opts.MaxTokens)
}
