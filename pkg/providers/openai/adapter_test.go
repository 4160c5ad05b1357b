package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kringlelabs/kringle/pkg/errorsx"
	"github.com/kringlelabs/kringle/pkg/llm"
	"github.com/kringlelabs/kringle/pkg/resilience"
)

func TestGenerateDecodesCompletion(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": "Ho ho ho!"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer srv.Close()

	a := NewAdapter("sk-test", "gpt-4o-mini")
	a.BaseURL = srv.URL
	resp, err := a.Generate(context.Background(), llm.TurnContext("be santa", "hello"))
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if resp.Text != "Ho ho ho!" || resp.FinishReason != "stop" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Fatalf("usage not decoded: %+v", resp.Usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", gotBody.Messages)
	}
}

func TestGenerateRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewAdapter("sk-test", "gpt-4o-mini")
	a.BaseURL = srv.URL
	_, err := a.Generate(context.Background(), llm.TurnContext("sys", "hi"))
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	a := NewAdapter("sk-test", "gpt-4o-mini")
	a.BaseURL = srv.URL
	_, err := a.Generate(context.Background(), llm.TurnContext("sys", "hi"))
	if !errorsx.HasReason(err, errorsx.ReasonModelResponse) {
		t.Fatalf("expected malformed-response reason, got %v", err)
	}
}
