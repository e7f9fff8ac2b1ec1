// Package session provides durable-with-fallback persistence for
// honeypot conversation state. A Redis-backed primary store is fronted
// by a failover wrapper that switches to an in-process store when the
// primary is unavailable, so the engagement pipeline never fails
// purely because storage is down.
package session

import (
	"time"

	"github.com/trapline-dev/trapline/internal/extract"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderAgent   Sender = "agent"
)

// Message is one utterance in the conversation log. The log is
// append-only and alternates scammer/agent starting with scammer.
type Message struct {
	Turn      int       `json:"turn"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the unit of conversational state.
type Session struct {
	// ID is the opaque session identifier (UUID-shaped).
	ID string `json:"id"`

	// Language is the resolved conversation language ("en", "hi",
	// "hinglish"). Fixed once resolved on the first turn.
	Language string `json:"language"`

	// Persona is the victim profile tag, chosen once at creation and
	// immutable for the session lifetime.
	Persona string `json:"persona"`

	// Strategy is the tactic used on the most recent turn.
	Strategy string `json:"strategy"`

	// TurnCount is the number of completed scammer/agent exchanges.
	TurnCount int `json:"turn_count"`

	// Messages is the ordered append-only conversation log; its length
	// is always 2*TurnCount.
	Messages []Message `json:"messages"`

	// ScamConfidence is monotonically non-decreasing across turns: new
	// evidence can raise certainty but never lower it.
	ScamConfidence float64 `json:"scam_confidence"`

	// Intelligence is the latest extraction report, re-derived from
	// the full conversation text each turn.
	Intelligence extract.Report `json:"extracted_intelligence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendExchange records one completed scammer/agent exchange and
// advances the turn counter.
func (s *Session) AppendExchange(inbound, reply string, now time.Time) {
	turn := s.TurnCount + 1
	s.Messages = append(s.Messages,
		Message{Turn: turn, Sender: SenderScammer, Text: inbound, Timestamp: now},
		Message{Turn: turn, Sender: SenderAgent, Text: reply, Timestamp: now},
	)
	s.TurnCount = turn
	s.UpdatedAt = now
}

// RaiseConfidence updates ScamConfidence to the maximum of the stored
// and observed values, preserving the monotone non-decreasing
// contract.
func (s *Session) RaiseConfidence(observed float64) {
	if observed > s.ScamConfidence {
		s.ScamConfidence = observed
	}
}

// Transcript returns the full dialogue (both sides) plus a trailing
// inbound message as one newline-joined text, the shape the extraction
// engine consumes.
func (s *Session) Transcript(pending string) string {
	var b []byte
	for _, m := range s.Messages {
		b = append(b, m.Text...)
		b = append(b, '\n')
	}
	b = append(b, pending...)
	return string(b)
}
