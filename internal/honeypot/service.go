// Package honeypot orchestrates one engagement turn: detect the scam,
// serialize on the session, generate the baiting reply, re-derive the
// extracted intelligence and persist the result. It is the only
// package that sees the whole pipeline.
package honeypot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/trapline-dev/trapline/internal/detect"
	"github.com/trapline-dev/trapline/internal/engage"
	"github.com/trapline-dev/trapline/internal/extract"
	"github.com/trapline-dev/trapline/internal/session"
	"github.com/trapline-dev/trapline/pkg/observability"
)

// Request and validation errors.
var (
	ErrEmptyMessage = errors.New("message must not be empty")
	ErrBatchTooLong = errors.New("batch exceeds the maximum of 100 items")
)

// MaxBatchSize caps one batch request.
const MaxBatchSize = 100

// maxMessageLen guards against pathological inputs; scam texts are
// short.
const maxMessageLen = 10000

// EngageRequest is one inbound scammer message.
type EngageRequest struct {
	// SessionID continues an existing conversation when set; empty
	// starts a new one.
	SessionID string `json:"session_id"`

	// Message is the raw scammer text.
	Message string `json:"message"`

	// Language optionally pins the conversation language ("en", "hi",
	// "hinglish"). Empty or "auto" means detect from the message. Only
	// honored when the session is created; the language is fixed after
	// that.
	Language string `json:"language,omitempty"`
}

// Engagement groups the conversation-side outcome of a turn.
type Engagement struct {
	AgentResponse   string `json:"agent_response"`
	TurnCount       int    `json:"turn_count"`
	MaxTurnsReached bool   `json:"max_turns_reached"`
	Strategy        string `json:"strategy,omitempty"`
	Persona         string `json:"persona,omitempty"`
}

// EngageResponse is the outcome of one engagement turn.
type EngageResponse struct {
	SessionID        string          `json:"session_id"`
	State            string          `json:"state"`
	ScamDetected     bool            `json:"scam_detected"`
	Confidence       float64         `json:"confidence"`
	LanguageDetected string          `json:"language_detected,omitempty"`
	Reply            string          `json:"reply,omitempty"`
	Engagement       Engagement      `json:"engagement"`
	Intelligence     *extract.Report `json:"extracted_intelligence,omitempty"`

	// History is the full conversation log after this turn, length
	// 2*turn_count.
	History []session.Message `json:"conversation_history,omitempty"`

	// Degraded is true when detection ran without the classifier or
	// storage is on the fallback layer.
	Degraded bool `json:"degraded,omitempty"`
}

// Auditor receives completed exchanges off the request path. Satisfied
// by *session.AuditStore.
type Auditor interface {
	RecordExchange(ctx context.Context, sess *session.Session, inbound, reply string)
}

// Service wires the detection, conversation, extraction and storage
// layers together.
type Service struct {
	detector *detect.Detector
	engine   *engage.Engine
	store    session.Store
	audit    Auditor
	locks    *session.KeyedMutex
	logger   *slog.Logger
	tracer   trace.Tracer

	// degraded reports fallback storage, wired from the failover store
	// when present.
	degraded func() bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAuditor attaches best-effort Postgres auditing.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *Service) { s.audit = a }
}

// WithTracer attaches a tracer for per-stage spans.
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithDegradedFunc wires storage degradation into responses and
// metrics.
func WithDegradedFunc(f func() bool) ServiceOption {
	return func(s *Service) { s.degraded = f }
}

// NewService creates the engagement orchestrator.
func NewService(detector *detect.Detector, engine *engage.Engine, store session.Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		detector: detector,
		engine:   engine,
		store:    store,
		locks:    session.NewKeyedMutex(),
		logger:   logger,
		tracer:   noop.NewTracerProvider().Tracer("honeypot"),
		degraded: func() bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engage runs the full pipeline for one inbound message. Concurrent
// calls for the same session are serialized; calls for different
// sessions proceed in parallel.
func (s *Service) Engage(ctx context.Context, req EngageRequest) (*EngageResponse, error) {
	start := time.Now()
	resp, err := s.engage(ctx, req)

	outcome := "error"
	if err == nil {
		switch {
		case resp.State == string(engage.StateMaxTurnsReached):
			outcome = "max_turns"
		case !resp.ScamDetected:
			outcome = "not_scam"
		default:
			outcome = "engaged"
		}
	}
	observability.RecordEngagement(outcome, time.Since(start))
	return resp, err
}

func (s *Service) engage(ctx context.Context, req EngageRequest) (*EngageResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len(message) > maxMessageLen {
		// Back off to a rune boundary so Devanagari text is never cut
		// mid-character.
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut]
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "honeypot.engage",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	// Detection runs outside the session lock; it does not touch
	// session state.
	det := s.detector.Detect(ctx, message)
	observability.RecordDetection(verdict(det.IsScam), det.Degraded)
	span.SetAttributes(
		attribute.Float64("detect.confidence", det.Confidence),
		attribute.Bool("detect.degraded", det.Degraded),
	)

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		if !det.IsScam {
			// Nothing worth engaging and no history to honor.
			return &EngageResponse{
				SessionID:        sessionID,
				State:            string(engage.StateNew),
				ScamDetected:     false,
				Confidence:       det.Confidence,
				LanguageDetected: det.Language,
				Degraded:         det.Degraded || s.degraded(),
			}, nil
		}
		lang := det.Language
		if req.Language != "" && req.Language != "auto" {
			lang = req.Language
		}
		sess = s.newSession(sessionID, lang)
	case err != nil:
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	// An established conversation is engaged to the end even when a
	// single message scores low: confidence only ratchets up.
	sess.RaiseConfidence(det.Confidence)

	if engage.StateOf(sess.TurnCount) == engage.StateMaxTurnsReached {
		return s.terminalResponse(sess), nil
	}

	// Re-derive intelligence from the whole transcript including the
	// pending message, so strategy selection sees current coverage.
	prev := sess.Intelligence
	sess.Intelligence = extract.Extract(sess.Transcript(message))
	recordNewEntities(prev, sess.Intelligence)

	reply := s.engine.Reply(ctx, sess, message)
	observability.RecordReply(string(reply.Strategy), reply.Fallback)
	sess.Strategy = string(reply.Strategy)
	sess.AppendExchange(message, reply.Text, time.Now().UTC())

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sessionID, err)
	}
	observability.SetStoreDegraded(s.degraded())

	if s.audit != nil {
		// Off the request path; its own lifetime, detached from the
		// request context's cancellation.
		go s.audit.RecordExchange(context.WithoutCancel(ctx), sess, message, reply.Text)
	}

	s.logger.Info("engaged scammer",
		"session_id", sess.ID,
		"turn", sess.TurnCount,
		"strategy", sess.Strategy,
		"confidence", sess.ScamConfidence,
		"fallback_reply", reply.Fallback,
		"entities", countEntities(sess.Intelligence),
	)

	state := engage.StateOf(sess.TurnCount)
	intel := sess.Intelligence.Clone()
	return &EngageResponse{
		SessionID:        sess.ID,
		State:            string(state),
		ScamDetected:     true,
		Confidence:       sess.ScamConfidence,
		LanguageDetected: sess.Language,
		Reply:            reply.Text,
		Engagement: Engagement{
			AgentResponse:   reply.Text,
			TurnCount:       sess.TurnCount,
			MaxTurnsReached: state == engage.StateMaxTurnsReached,
			Strategy:        sess.Strategy,
			Persona:         sess.Persona,
		},
		Intelligence: &intel,
		History:      append([]session.Message(nil), sess.Messages...),
		Degraded:     det.Degraded || s.degraded(),
	}, nil
}

// GetSession returns the stored session state.
func (s *Service) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) newSession(id, language string) *session.Session {
	now := time.Now().UTC()
	return &session.Session{
		ID:        id,
		Language:  language,
		Persona:   string(engage.PersonaFor(id)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// terminalResponse answers for a session past the turn ceiling: the
// closing agent line is replayed verbatim and the turn counter stays
// put.
func (s *Service) terminalResponse(sess *session.Session) *EngageResponse {
	closing := ""
	if n := len(sess.Messages); n > 0 {
		closing = sess.Messages[n-1].Text
	}
	intel := sess.Intelligence.Clone()
	return &EngageResponse{
		SessionID:        sess.ID,
		State:            string(engage.StateMaxTurnsReached),
		ScamDetected:     true,
		Confidence:       sess.ScamConfidence,
		LanguageDetected: sess.Language,
		Reply:            closing,
		Engagement: Engagement{
			AgentResponse:   closing,
			TurnCount:       sess.TurnCount,
			MaxTurnsReached: true,
			Strategy:        sess.Strategy,
			Persona:         sess.Persona,
		},
		Intelligence: &intel,
		History:      append([]session.Message(nil), sess.Messages...),
		Degraded:     s.degraded(),
	}
}

func verdict(isScam bool) string {
	if isScam {
		return "scam"
	}
	return "benign"
}

func countEntities(r extract.Report) int {
	return len(r.UPIIDs) + len(r.BankAccounts) + len(r.IFSCCodes) +
		len(r.PhoneNumbers) + len(r.PhishingLinks) + len(r.SuspiciousKeywords)
}

func recordNewEntities(prev, cur extract.Report) {
	observability.RecordEntities("upi_id", len(cur.UPIIDs)-len(prev.UPIIDs))
	observability.RecordEntities("bank_account", len(cur.BankAccounts)-len(prev.BankAccounts))
	observability.RecordEntities("ifsc_code", len(cur.IFSCCodes)-len(prev.IFSCCodes))
	observability.RecordEntities("phone_number", len(cur.PhoneNumbers)-len(prev.PhoneNumbers))
	observability.RecordEntities("phishing_link", len(cur.PhishingLinks)-len(prev.PhishingLinks))
	observability.RecordEntities("suspicious_keyword", len(cur.SuspiciousKeywords)-len(prev.SuspiciousKeywords))
}
