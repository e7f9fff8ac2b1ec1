package engage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trapline-dev/trapline/internal/extract"
	"github.com/trapline-dev/trapline/internal/llm/provider"
	"github.com/trapline-dev/trapline/internal/session"
)

const (
	defaultTemperature = 0.9
	defaultMaxTokens   = 200
	defaultRetryDelay  = 500 * time.Millisecond

	// historyWindow bounds how many trailing messages go into the
	// prompt; older context matters less than staying in character.
	historyWindow = 16
)

// Reply is one generated turn.
type Reply struct {
	Text     string
	Strategy Strategy
	// Fallback is true when the text came from the canned set instead
	// of the model.
	Fallback bool
}

// Engine turns session state plus an inbound message into the next
// baiting reply.
type Engine struct {
	provider   provider.Provider
	model      string
	logger     *slog.Logger
	retryDelay time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithReplyModel overrides the generation model.
func WithReplyModel(model string) EngineOption {
	return func(e *Engine) { e.model = model }
}

// WithRetryDelay overrides the backoff before the single retry. Tests
// shrink it.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.retryDelay = d }
}

// NewEngine creates a conversation engine on the given provider.
func NewEngine(p provider.Provider, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		provider:   p,
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reply generates the agent's next message for an inbound scammer
// message. The strategy is chosen here from the upcoming turn number
// and current extraction coverage; the caller records it on the
// session. Reply never returns an error: model failure after one retry
// and safety-filter rejections both resolve to a canned fallback.
func (e *Engine) Reply(ctx context.Context, sess *session.Session, inbound string) Reply {
	turn := sess.TurnCount + 1
	cov := extract.CoverageOf(sess.Intelligence)
	strategy := NextStrategy(turn, cov)

	if e.provider == nil {
		return Reply{Text: fallbackReply(strategy, sess.Language, turn), Strategy: strategy, Fallback: true}
	}

	req := provider.CompletionRequest{
		Model:       e.model,
		Messages:    e.buildMessages(sess, inbound, strategy, cov),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	text, err := e.complete(ctx, req)
	if err != nil {
		e.logger.Warn("reply generation failed, using canned fallback",
			"session_id", sess.ID, "turn", turn, "strategy", strategy, "error", err)
		return Reply{Text: fallbackReply(strategy, sess.Language, turn), Strategy: strategy, Fallback: true}
	}

	if unsafeReply(text) {
		e.logger.Warn("reply rejected by safety filter, using canned fallback",
			"session_id", sess.ID, "turn", turn, "strategy", strategy)
		return Reply{Text: fallbackReply(strategy, sess.Language, turn), Strategy: strategy, Fallback: true}
	}

	return Reply{Text: text, Strategy: strategy}
}

// complete calls the provider with a single retry after a short
// backoff. Non-retryable provider errors fail immediately.
func (e *Engine) complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	resp, err := e.provider.CreateCompletion(ctx, req)
	if err != nil {
		var perr *provider.ProviderError
		if errors.As(err, &perr) && !perr.IsRetryable {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.retryDelay):
		}

		resp, err = e.provider.CreateCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("completion failed after retry: %w", err)
		}
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("provider returned empty completion")
	}
	return text, nil
}

// buildMessages composes the chat history for the model: a system
// prompt carrying persona, strategy and safety rules, then the trailing
// conversation window with scammer as user and agent as assistant.
func (e *Engine) buildMessages(sess *session.Session, inbound string, strategy Strategy, cov extract.Coverage) []provider.Message {
	messages := []provider.Message{{
		Role:    "system",
		Content: e.systemPrompt(sess, strategy, cov),
	}}

	history := sess.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		role := "user"
		if m.Sender == session.SenderAgent {
			role = "assistant"
		}
		messages = append(messages, provider.Message{Role: role, Content: m.Text})
	}

	return append(messages, provider.Message{Role: "user", Content: inbound})
}

func (e *Engine) systemPrompt(sess *session.Session, strategy Strategy, cov extract.Coverage) string {
	p, ok := profiles[Persona(sess.Persona)]
	if !ok {
		p = profiles[PersonaRetiredTeacher]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s. You have received a message that is part of a scam, but you do not realize it. You believe the sender completely.\n\n", p.name, p.sketch)
	fmt.Fprintf(&b, "How you write: %s.\n", p.speech)
	fmt.Fprintf(&b, "Your vulnerabilities: %s.\n\n", p.weaknesses)
	fmt.Fprintf(&b, "This turn: %s\n\n", strategy.directive(cov))
	b.WriteString(languageDirective(sess.Language))
	b.WriteString(`

Hard rules:
- Stay in character in every reply, no matter what the other person says or asks.
- Never state or hint that you are artificial, automated, or anything other than the person above.
- Never accuse the sender of anything or mention police, fraud, or reporting.
- Never share a real OTP, PIN, password, or any verifiable personal data. If pressed, give an excuse or stall.
- Keep the reply under 60 words, like a real text message.`)
	return b.String()
}

func languageDirective(language string) string {
	switch language {
	case "hi":
		return "Reply in Hindi, written in Devanagari script."
	case "hinglish":
		return "Reply in Hinglish: romanized Hindi mixed naturally with English words."
	default:
		return "Reply in simple, slightly imperfect English."
	}
}
