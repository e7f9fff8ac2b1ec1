package engage

import (
	"strings"

	"github.com/trapline-dev/trapline/internal/extract"
)

// MaxTurns is the engagement ceiling: once a session completes this
// many exchanges it stops producing replies.
const MaxTurns = 20

// State is the session lifecycle phase, derived from the turn count.
type State string

const (
	StateNew             State = "NEW"
	StateEngaging        State = "ENGAGING"
	StateMaxTurnsReached State = "MAX_TURNS_REACHED"
)

// StateOf derives the lifecycle state from completed turns.
func StateOf(turnCount int) State {
	switch {
	case turnCount == 0:
		return StateNew
	case turnCount >= MaxTurns:
		return StateMaxTurnsReached
	default:
		return StateEngaging
	}
}

// Strategy is a closed set of per-turn tactics.
type Strategy string

const (
	// StrategyBuildTrust plays along naively in the opening turns.
	StrategyBuildTrust Strategy = "build_trust"

	// StrategyShowInterest signals eagerness to comply, drawing the
	// scammer into explaining their scheme.
	StrategyShowInterest Strategy = "show_interest"

	// StrategyRequestDetails probes for the concrete financial details
	// not yet captured.
	StrategyRequestDetails Strategy = "request_details"

	// StrategyStall burns the scammer's time with confusion and fake
	// technical problems once details are in hand or turns run long.
	StrategyStall Strategy = "stall"
)

// AllStrategies lists every tactic.
var AllStrategies = []Strategy{
	StrategyBuildTrust,
	StrategyShowInterest,
	StrategyRequestDetails,
	StrategyStall,
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	for _, known := range AllStrategies {
		if s == known {
			return true
		}
	}
	return false
}

// NextStrategy picks the tactic for the upcoming turn from the turn
// number (1-based) and what intelligence has already been captured.
// The progression is trust first, then escalating probes for missing
// details, then stalling once the well is dry or the clock runs long.
func NextStrategy(turn int, cov extract.Coverage) Strategy {
	switch {
	case turn <= 2:
		return StrategyBuildTrust
	case cov.Captured() >= 4 || turn > 16:
		return StrategyStall
	case turn >= 5 && len(cov.Missing()) > 0:
		return StrategyRequestDetails
	default:
		return StrategyShowInterest
	}
}

// directive renders the strategy into prompt instructions, folding in
// the specific detail types still missing when probing.
func (s Strategy) directive(cov extract.Coverage) string {
	switch s {
	case StrategyBuildTrust:
		return "Be friendly and a little naive. React believably to what they said. Do not ask for any details yet."
	case StrategyShowInterest:
		return "Show genuine excitement or worry about what they are offering or claiming. Ask simple questions about how it works so they keep explaining."
	case StrategyRequestDetails:
		missing := cov.Missing()
		if len(missing) == 0 {
			return "Ask them to re-confirm the payment details they gave, claiming you may have written them down wrong."
		}
		return "Say you are ready to proceed but confused about where to send things. Naturally get them to give you their " +
			strings.Join(missing, " or ") + ". Ask for at most one thing in this message."
	case StrategyStall:
		return "Stall for time. Invent a small believable obstacle: the app is not working, the OTP never arrived, the bank is closed, a relative borrowed the phone. Apologize and keep them hopeful."
	default:
		return "React believably and keep the conversation going."
	}
}
