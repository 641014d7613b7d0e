package chat

import (
	"github.com/cloudwego/eino/schema"
)

// FinalAnswerMarker separates the reasoning trace from the answer in a
// complex response.
const FinalAnswerMarker = "**Final Answer**"

// DefaultComplexPrompt directs step-by-step reasoning closed by the marker.
const DefaultComplexPrompt = "You are an AI assistant that uses advanced reasoning methods like Chain of Thought (CoT), " +
	"Self-Consistency, and Tree of Thoughts (ToT) to provide accurate and detailed answers. " +
	"Always think step-by-step, explain your reasoning, and then provide a final answer. " +
	"Make sure to clearly separate your thinking process from the final answer by writing " +
	FinalAnswerMarker + " on its own line before the answer. " +
	"You were created by **Aniket Kumar**, a passionate developer and AI enthusiast who believes in the power of **optimism**."

// DefaultSimplePrompt directs terse direct answers.
const DefaultSimplePrompt = "You are an AI assistant that provides concise and immediate answers to straightforward questions. " +
	"Keep your responses short and to the point. " +
	"You were created by **Aniket Kumar**, a passionate developer and AI enthusiast."

// Prompts holds the two system instructions.
type Prompts struct {
	Simple  string
	Complex string
}

// DefaultPrompts returns the built-in system instructions.
func DefaultPrompts() Prompts {
	return Prompts{Simple: DefaultSimplePrompt, Complex: DefaultComplexPrompt}
}

// For returns the system instruction matching a verdict, falling back to the
// built-in text when the configured one is empty.
func (p Prompts) For(v Verdict) string {
	if v.IsComplex() {
		if p.Complex != "" {
			return p.Complex
		}
		return DefaultComplexPrompt
	}
	if p.Simple != "" {
		return p.Simple
	}
	return DefaultSimplePrompt
}

// ComposeOptions tunes message composition.
type ComposeOptions struct {
	Prompts Prompts
	// HistoryLimit keeps only the newest N turns when positive.
	HistoryLimit int
	// TokenBudget, when positive, drops the oldest turns until the estimated
	// prompt size fits. The newest turn is always kept.
	TokenBudget int
}

const charsPerToken = 4

// estimateTokens approximates the prompt cost of one message.
func estimateTokens(content string) int {
	return len(content)/charsPerToken + 4
}

// fitBudget returns the index of the oldest turn that fits in budget
// alongside the system prompt.
func fitBudget(system string, history []Turn, budget int) int {
	used := estimateTokens(system)
	for i := len(history) - 1; i >= 0; i-- {
		used += estimateTokens(history[i].Content)
		if used > budget && i < len(history)-1 {
			return i + 1
		}
	}
	return 0
}

// Compose builds the message sequence sent to the completion endpoint: one
// system message followed by the history in chronological order. Thinking
// traces are never replayed.
func Compose(v Verdict, history []Turn, opts ComposeOptions) []*schema.Message {
	if opts.HistoryLimit > 0 && len(history) > opts.HistoryLimit {
		history = history[len(history)-opts.HistoryLimit:]
	}

	system := opts.Prompts.For(v)
	if opts.TokenBudget > 0 {
		history = history[fitBudget(system, history, opts.TokenBudget):]
	}

	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, schema.SystemMessage(system))
	for _, t := range history {
		msgs = append(msgs, t.ToSchemaMessage())
	}
	return msgs
}
