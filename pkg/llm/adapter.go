package llm

import "context"

// Message is one conversational entry in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Context carries everything a provider needs for one completion. The
// relay replays no history: a turn is one system prompt plus one
// utterance.
type Context struct {
	Messages []Message
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	Text         string
	Usage        Usage
	FinishReason string
}

// ChatModel is the language-model chat capability the orchestrator
// depends on. Generate is a single attempt; callers decide what a
// failure means.
type ChatModel interface {
	Name() string
	Generate(ctx context.Context, input Context) (Response, error)
}

// TurnContext builds the one-shot context for a turn.
func TurnContext(systemPrompt, utterance string) Context {
	return Context{Messages: []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: utterance},
	}}
}
