// Package budget provides token budget estimation and message trimming for
// the grounded generator. OpenAI-family backends use a real tiktoken
// (cl100k_base) count; every other backend falls back to a conservative
// character heuristic of 1 token ≈ 4 characters, which deliberately
// under-estimates to leave headroom for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// charsPerToken is the character-to-token ratio used by the heuristic
	// estimator. 4 chars/token is standard for English prose and code.
	charsPerToken = 4

	// perMessageOverhead approximates the fixed per-message token cost
	// (~4 tokens in most chat APIs).
	perMessageOverhead = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving room
	// for the output.
	DefaultMaxContextTokens = 6000
)

// Estimator estimates token counts for strings and chat messages.
// The zero value uses the character heuristic.
type Estimator struct {
	// enc is the tiktoken encoder, nil when using the heuristic.
	enc *tiktoken.Tiktoken
}

// For returns an Estimator appropriate for the given backend name.
// "openai" and "azure" get a cl100k_base tiktoken estimator when the
// encoding can be loaded; everything else (and any load failure) gets the
// character heuristic.
func For(backend string) *Estimator {
	switch backend {
	case "openai", "azure":
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			return &Estimator{enc: enc}
		}
	}
	return &Estimator{}
}

// Estimate returns the token count for s.
func (e *Estimator) Estimate(s string) int {
	if e.enc != nil {
		return len(e.enc.Encode(s, nil, nil))
	}
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content + per-message overhead.
func (e *Estimator) EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead
		total += e.Estimate(string(m.Role))
		total += e.Estimate(m.Content)
	}
	return total
}

// TrimHistory removes the oldest messages from history until the total
// estimated token count of fixed + history fits within maxTokens.
// fixed contains messages that must not be trimmed (system prompt, retrieved
// context, current question). history contains prior conversation turns that
// may be dropped oldest-first.
//
// Returns the trimmed history slice. If even an empty history exceeds the
// budget the empty slice is returned — fixed messages are never dropped
// here; callers should warn separately if fixed alone exceeds the budget.
func (e *Estimator) TrimHistory(fixed, history []*schema.Message, maxTokens int) []*schema.Message {
	if len(history) == 0 {
		return history
	}

	fixedTokens := e.EstimateMessages(fixed)

	// History is typically ≤20 messages; a linear scan dropping the oldest
	// is clear and correct.
	for len(history) > 0 {
		if fixedTokens+e.EstimateMessages(history) <= maxTokens {
			break
		}
		history = history[1:]
	}
	return history
}
