// Package chat implements the per-request orchestration pipeline: resolve
// the session, retrieve context, assemble the prompt, invoke the model,
// normalize the response, and append the completed turn to history.
//
// The orchestrator performs no internal parallelism (the model call
// depends on retrieval's output) and holds no session lock across the
// retrieval or model calls, so a timed-out request never leaves a session
// locked.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdoc/askdoc/internal/log"
	"github.com/askdoc/askdoc/internal/session"
)

const (
	// ResetConfirmation is returned verbatim when a reset keyword clears a
	// session. Retrieval and the model are never invoked on that path.
	ResetConfirmation = "Conversation history cleared."

	// fallbackResponseMessage is returned when the model produces an empty
	// response.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// resetKeywords short-circuit the pipeline and clear the session instead.
// Matched case-sensitively after trimming surrounding whitespace.
var resetKeywords = map[string]struct{}{
	"/clear": {},
	"清空":     {},
	"/reset": {},
	"reset":  {},
}

// Sentinel errors classifying per-request failures. The transport layer
// surfaces them as a generic failure; history is never mutated on either.
var (
	// ErrRetrieval indicates the similarity index was unreachable or the
	// query failed.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrModel indicates the model invocation failed (timeout, upstream
	// error, rate limit).
	ErrModel = errors.New("model invocation failed")
)

// Response is the result of one orchestrated turn.
type Response struct {
	Answer    string
	SessionID string
}

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Sessions  *session.Store
	Retriever Retriever
	Invoker   Invoker
	Prompts   *PromptBuilder
	Logger    *slog.Logger

	// TopK is the fixed number of chunks retrieved per turn.
	TopK int
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Invoker == nil {
		return errors.New("invoker is required")
	}
	if cfg.Prompts == nil {
		return errors.New("prompt builder is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.TopK < 1 {
		return errors.New("top-k must be at least 1")
	}
	return nil
}

// Orchestrator ties the session store, retriever, prompt builder, and model
// invoker together per request.
//
// All configuration is captured immutably at construction; the Orchestrator
// is safe for concurrent use. The session store is the only shared mutable
// state it touches.
type Orchestrator struct {
	sessions  *session.Store
	retriever Retriever
	invoker   Invoker
	prompts   *PromptBuilder
	logger    *slog.Logger
	topK      int
}

// New creates an Orchestrator with required configuration.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		sessions:  cfg.Sessions,
		retriever: cfg.Retriever,
		invoker:   cfg.Invoker,
		prompts:   cfg.Prompts,
		logger:    cfg.Logger,
		topK:      cfg.TopK,
	}, nil
}

// Respond runs one conversational turn. If sessionID is empty a fresh one
// is generated and returned so follow-up turns reuse the session.
//
// A failed turn is never recorded: history only gains a turn after the
// model responded and the response was normalized.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, message string) (Response, error) {
	trimmed := strings.TrimSpace(message)

	// Reset command path: clear and confirm without touching retrieval or
	// the model.
	if _, isReset := resetKeywords[trimmed]; isReset {
		existed := o.sessions.Clear(sessionID)
		// Every response carries a usable session id, even when the reset
		// arrived without one.
		if sessionID == "" {
			sessionID = session.NewID()
		}
		o.logger.Info("session reset",
			"session_id", log.TruncateID(sessionID),
			"existed", existed)
		return Response{Answer: ResetConfirmation, SessionID: sessionID}, nil
	}

	if sessionID == "" {
		sessionID = session.NewID()
	}
	sid := log.TruncateID(sessionID)

	history := o.sessions.GetOrCreate(sessionID)
	o.logger.Debug("session resolved", "session_id", sid, "turns", history.Len())

	// Snapshot before the slow calls; the prompt must reflect history as of
	// this request, and the session must stay unlocked while we wait.
	turns := history.Turns()

	chunks, err := o.retriever.Retrieve(ctx, message, o.topK)
	if err != nil {
		o.logger.Error("context retrieval failed", "session_id", sid, "error", err)
		return Response{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	o.logger.Debug("context retrieved", "session_id", sid, "chunks", len(chunks))

	prompt := o.prompts.Build(turns, chunks, message)
	o.logger.Debug("prompt built", "session_id", sid, "messages", len(prompt.Messages))

	raw, err := o.invoker.Generate(ctx, prompt)
	if err != nil {
		o.logger.Error("model invocation failed", "session_id", sid, "error", err)
		return Response{}, fmt.Errorf("%w: %w", ErrModel, err)
	}
	o.logger.Debug("model invoked", "session_id", sid)

	answer := ResolveModelResult(raw).Normalize()
	if strings.TrimSpace(answer) == "" {
		o.logger.Warn("model returned empty response", "session_id", sid)
		answer = fallbackResponseMessage
	}

	history.Append(message, answer)
	o.logger.Debug("history appended", "session_id", sid, "turns", history.Len())

	return Response{Answer: answer, SessionID: sessionID}, nil
}

// Clear removes a session's history. Returns whether the session existed;
// an absent session is a no-op, not an error.
func (o *Orchestrator) Clear(sessionID string) bool {
	existed := o.sessions.Clear(sessionID)
	o.logger.Info("session cleared",
		"session_id", log.TruncateID(sessionID),
		"existed", existed)
	return existed
}
