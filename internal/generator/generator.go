// Package generator implements grounded answer generation: it retrieves
// supporting context from memory, refuses to answer when nothing relevant is
// found, and otherwise asks the chat model to answer strictly from the
// retrieved excerpts, returning the citations alongside the answer text.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vk8459698/mem0-ai/internal/budget"
	"github.com/vk8459698/mem0-ai/internal/logging"
	"github.com/vk8459698/mem0-ai/internal/memory"
	"github.com/vk8459698/mem0-ai/internal/store"
)

// FallbackAnswer is returned verbatim when memory holds nothing relevant to
// the question. The model is never called in that case — an ungrounded
// prompt is exactly the hallucination path this service exists to close.
const FallbackAnswer = "I don't have enough information in my sources to answer that."

// Citation identifies one retrieved excerpt that was injected into the
// prompt. Index matches the bracketed marker the model was told to use.
type Citation struct {
	// Index is the 1-based excerpt number as cited in the answer text.
	Index int `json:"index"`
	// Source is the origin URI or label of the cited document.
	Source string `json:"source"`
	// Score is the retrieval similarity of the cited document.
	Score float32 `json:"score"`
}

// Answer is the result of one grounded generation.
type Answer struct {
	// Text is the full answer text.
	Text string `json:"text"`
	// Sources lists the excerpts injected into the prompt, in injection
	// order. Empty when Grounded is false.
	Sources []Citation `json:"sources"`
	// Grounded is false when the fallback answer was returned without
	// calling the model.
	Grounded bool `json:"grounded"`
}

// Config holds the dependencies required to construct a Generator.
type Config struct {
	// ChatModel is the LLM backend constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// Retriever fetches grounding context from memory. Must not be nil —
	// a generator without retrieval is just an ungrounded chat wrapper.
	Retriever memory.Retriever

	// TopK controls how many documents are retrieved per question.
	// Defaults to 5 if zero.
	TopK int

	// History is the optional conversation store used to persist and replay
	// prior turns. If nil, each question is stateless.
	History store.ConversationStore

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per question. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the token budget for the full input context
	// (system prompt + history + excerpts + question). History is trimmed
	// oldest-first to fit. Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int

	// Estimator counts tokens for budget trimming. Defaults to the
	// character heuristic if nil.
	Estimator *budget.Estimator

	// AllowDegraded permits answering without context when retrieval FAILS
	// (store unreachable, embedder down). The no-relevant-documents case
	// always falls back regardless of this flag.
	AllowDegraded bool
}

// Generator produces grounded answers with citations.
type Generator struct {
	chatModel     model.ToolCallingChatModel
	retriever     memory.Retriever
	topK          int
	history       store.ConversationStore
	historyDepth  int
	maxContext    int
	estimator     *budget.Estimator
	allowDegraded bool
}

// New constructs a Generator from the provided Config.
func New(cfg *Config) (*Generator, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("generator: ChatModel must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("generator: Retriever must not be nil")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}
	est := cfg.Estimator
	if est == nil {
		est = &budget.Estimator{}
	}

	return &Generator{
		chatModel:     cfg.ChatModel,
		retriever:     cfg.Retriever,
		topK:          topK,
		history:       cfg.History,
		historyDepth:  depth,
		maxContext:    maxCtx,
		estimator:     est,
		allowDegraded: cfg.AllowDegraded,
	}, nil
}

// Answer runs one grounded generation for the question, streaming the answer
// text to w as it arrives. session selects the conversation thread for
// history injection; pass "" for a stateless question.
//
// The returned Answer always carries the full text and, when grounded, one
// Citation per injected excerpt in injection order.
func (g *Generator) Answer(ctx context.Context, question, session string, w io.Writer) (*Answer, error) {
	log := logging.FromContext(ctx)

	// degraded is set only when retrieval itself failed. A retrieval that
	// succeeds but finds nothing relevant always falls back: the memory
	// answered, and its answer was "nothing here".
	degraded := false
	docs, err := g.retriever.Retrieve(ctx, question, g.topK)
	if err != nil {
		if !g.allowDegraded {
			log.Warn("retrieval failed, returning fallback", slog.Any("error", err))
			return g.fallback(ctx, question, session, w)
		}
		// Degraded mode: answer without context, loudly.
		log.Warn("retrieval failed, answering without grounding context", slog.Any("error", err))
		docs = nil
		degraded = true
	}

	if len(docs) == 0 && !degraded {
		return g.fallback(ctx, question, session, w)
	}

	messages := g.buildMessages(ctx, question, session, docs)

	text, err := g.stream(ctx, messages, w)
	if err != nil {
		return nil, err
	}

	g.persistTurn(ctx, session, question, text)

	ans := &Answer{
		Text:     text,
		Sources:  citations(docs),
		Grounded: len(docs) > 0,
	}

	if g.history != nil {
		if err := g.history.RecordAnswer(ctx, session, question, text, ans.Grounded, ans.Sources); err != nil {
			log.Warn("audit: failed to record answer", slog.Any("error", err))
		}
	}

	return ans, nil
}

// fallback writes the fallback answer without calling the model and records
// the refusal in the audit trail.
func (g *Generator) fallback(ctx context.Context, question, session string, w io.Writer) (*Answer, error) {
	if _, err := fmt.Fprint(w, FallbackAnswer); err != nil {
		return nil, fmt.Errorf("generator: write error: %w", err)
	}

	g.persistTurn(ctx, session, question, FallbackAnswer)

	if g.history != nil {
		if err := g.history.RecordAnswer(ctx, session, question, FallbackAnswer, false, nil); err != nil {
			logging.FromContext(ctx).Warn("audit: failed to record fallback", slog.Any("error", err))
		}
	}

	return &Answer{Text: FallbackAnswer, Grounded: false}, nil
}

// stream drives the chat model stream, copying chunks to w as they arrive
// and returning the accumulated text.
func (g *Generator) stream(ctx context.Context, messages []*schema.Message, w io.Writer) (string, error) {
	sr, err := g.chatModel.Stream(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generator: stream failed: %w", err)
	}
	defer sr.Close()

	var sb strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("generator: stream receive error: %w", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		sb.WriteString(msg.Content)
		if _, err := fmt.Fprint(w, msg.Content); err != nil {
			return "", fmt.Errorf("generator: write error: %w", err)
		}
	}

	return sb.String(), nil
}

// persistTurn appends the user question and assistant answer to the
// conversation store. Persistence failure is non-fatal.
func (g *Generator) persistTurn(ctx context.Context, session, question, answer string) {
	if g.history == nil {
		return
	}
	log := logging.FromContext(ctx)
	if err := g.history.Append(ctx, session, store.RoleUser, question); err != nil {
		log.Warn("history: failed to persist user message", slog.Any("error", err))
	}
	if err := g.history.Append(ctx, session, store.RoleAssistant, answer); err != nil {
		log.Warn("history: failed to persist assistant message", slog.Any("error", err))
	}
}

// buildMessages constructs the message slice for the model: system prompt,
// trimmed conversation history, retrieved excerpts, and the user question.
func (g *Generator) buildMessages(ctx context.Context, question, session string, docs []memory.Document) []*schema.Message {
	log := logging.FromContext(ctx)

	// Load prior turns so the model has multi-turn context.
	var historyMsgs []*schema.Message
	if g.history != nil && session != "" {
		prior, err := g.history.Recent(ctx, session, g.historyDepth*2)
		if err != nil {
			log.Warn("history: failed to load prior messages", slog.Any("error", err))
		} else {
			for _, m := range prior {
				switch m.Role {
				case store.RoleUser:
					historyMsgs = append(historyMsgs, schema.UserMessage(m.Content))
				case store.RoleAssistant:
					historyMsgs = append(historyMsgs, schema.AssistantMessage(m.Content, nil))
				}
			}
		}
	}

	fixed := []*schema.Message{schema.SystemMessage(systemPrompt)}
	if len(docs) > 0 {
		fixed = append(fixed, schema.SystemMessage(buildContext(docs)))
	}
	fixed = append(fixed, schema.UserMessage(question))

	// Trim history oldest-first so the total stays within the budget.
	before := len(historyMsgs)
	historyMsgs = g.estimator.TrimHistory(fixed, historyMsgs, g.maxContext)
	if dropped := before - len(historyMsgs); dropped > 0 {
		log.Warn("budget: dropped history messages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(historyMsgs)),
			slog.Int("max_tokens", g.maxContext),
		)
	}

	// Final order: [system, ...history, excerpts, question].
	result := make([]*schema.Message, 0, len(fixed)+len(historyMsgs))
	result = append(result, fixed[0])
	result = append(result, historyMsgs...)
	result = append(result, fixed[1:]...)
	return result
}

// citations maps the injected documents to their Citation records,
// preserving injection order so markers line up with [n] in the answer.
func citations(docs []memory.Document) []Citation {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Citation, 0, len(docs))
	for i, doc := range docs {
		out = append(out, Citation{
			Index:  i + 1,
			Source: doc.Source,
			Score:  doc.Score,
		})
	}
	return out
}
