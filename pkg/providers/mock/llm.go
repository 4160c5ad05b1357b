package mock

import (
	"context"
	"sync"

	"github.com/kringlelabs/kringle/pkg/llm"
)

type LLMConfig struct {
	ResponseText string
	Err          error
	FinishReason string
}

// ChatModel is a configurable in-memory model for tests and local runs.
// It records the contexts it was called with.
type ChatModel struct {
	cfg   LLMConfig
	mu    sync.Mutex
	calls []llm.Context
}

func NewChatModel(cfg LLMConfig) *ChatModel {
	if cfg.ResponseText == "" && cfg.Err == nil {
		cfg.ResponseText = "mock response"
	}
	return &ChatModel{cfg: cfg}
}

func (m *ChatModel) Name() string { return "mock_llm" }

func (m *ChatModel) Generate(ctx context.Context, input llm.Context) (llm.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
	if m.cfg.Err != nil {
		return llm.Response{}, m.cfg.Err
	}
	return llm.Response{
		Text:         m.cfg.ResponseText,
		FinishReason: m.cfg.FinishReason,
	}, nil
}

// Calls returns every context Generate has seen.
func (m *ChatModel) Calls() []llm.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Context, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastSystemPrompt returns the system message of the most recent call.
func (m *ChatModel) LastSystemPrompt() string {
	calls := m.Calls()
	if len(calls) == 0 {
		return ""
	}
	for _, msg := range calls[len(calls)-1].Messages {
		if msg.Role == llm.RoleSystem {
			return msg.Content
		}
	}
	return ""
}
