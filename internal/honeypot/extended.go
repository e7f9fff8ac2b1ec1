package honeypot

import (
	"encoding/json"
	"time"
)

// ExtendedMessage is the nested message form used by upstream
// platforms: sender/text/timestamp instead of a bare string.
type ExtendedMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ExtendedRequest is the alternate input shape: a nested message, an
// optional prior-turn history, and free-form metadata. It is
// normalized onto EngageRequest before reaching the pipeline; the
// pipeline never sees this shape.
type ExtendedRequest struct {
	SessionID string          `json:"session_id"`
	Message   ExtendedMessage `json:"message"`

	// ConversationHistory is the caller's view of prior turns. The
	// stored session log is authoritative, so this is accepted for
	// compatibility but not replayed into state.
	ConversationHistory []ExtendedMessage `json:"conversation_history,omitempty"`

	// Metadata is carried through untouched for the caller's own
	// bookkeeping.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Normalize maps the extended shape onto the canonical request.
func (r ExtendedRequest) Normalize() EngageRequest {
	return EngageRequest{
		SessionID: r.SessionID,
		Message:   r.Message.Text,
	}
}
