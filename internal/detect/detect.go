// Package detect decides whether an inbound message is a scam worth
// engaging. A model-backed classifier provides the primary score and a
// keyword heuristic provides a floor; when the classifier is
// unavailable the heuristic alone carries detection in degraded mode,
// so the honeypot keeps answering while the model is down.
package detect

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/trapline-dev/trapline/internal/extract"
	"github.com/trapline-dev/trapline/internal/llm/provider"
)

// ScamThreshold is the minimum confidence at which a message is
// treated as a scam and engaged.
const ScamThreshold = 0.70

// Result is the outcome of one detection pass.
type Result struct {
	// IsScam is true when Confidence >= ScamThreshold.
	IsScam bool `json:"is_scam"`

	// Confidence is the blended scam score in [0,1].
	Confidence float64 `json:"confidence"`

	// Language is the detected message language: "en", "hi" or
	// "hinglish".
	Language string `json:"language"`

	// Signals lists the heuristic indicators that contributed.
	Signals []string `json:"signals,omitempty"`

	// Degraded is true when the classifier was unavailable and the
	// score came from heuristics alone.
	Degraded bool `json:"degraded"`
}

// Detector scores inbound messages. A nil provider yields a permanent
// heuristic-only detector, useful for offline runs.
type Detector struct {
	provider  provider.Provider
	model     string
	threshold float64
	logger    *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithModel overrides the classifier model name.
func WithModel(model string) Option {
	return func(d *Detector) { d.model = model }
}

// WithThreshold overrides the scam threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) { d.threshold = threshold }
}

// New creates a Detector backed by the given provider.
func New(p provider.Provider, logger *slog.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{
		provider:  p,
		threshold: ScamThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

const classifierSystemPrompt = `You are a scam-detection classifier for messages received in India.
Score how likely the message is part of a scam (lottery, KYC fraud, digital arrest, phishing, investment fraud, fake customs fees).
Respond with ONLY a decimal number between 0.0 and 1.0. No words, no explanation.`

// Detect scores a single message. It never returns an error: a
// classifier failure downgrades to heuristic-only scoring and is
// reported through Result.Degraded.
func (d *Detector) Detect(ctx context.Context, text string) Result {
	res := Result{Language: DetectLanguage(text)}
	if strings.TrimSpace(text) == "" {
		return res
	}

	heuristic, signals := heuristicScore(text)
	res.Signals = signals
	res.Confidence = heuristic

	if d.provider == nil {
		res.Degraded = true
	} else if score, err := d.classify(ctx, text); err != nil {
		d.logger.Warn("classifier unavailable, scoring on heuristics only", "error", err)
		res.Degraded = true
	} else if score > res.Confidence {
		// The heuristic is a floor: explicit indicators keep obvious
		// scams flagged even when the model is timid.
		res.Confidence = score
	}

	res.IsScam = res.Confidence >= d.threshold
	return res
}

// classify asks the model for a scalar score.
func (d *Detector) classify(ctx context.Context, text string) (float64, error) {
	resp, err := d.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Model: d.model,
		Messages: []provider.Message{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return 0, err
	}
	return parseScore(resp.Content)
}

var scorePattern = regexp.MustCompile(`\d*\.?\d+`)

// parseScore extracts a [0,1] score from the model output, tolerating
// stray prose around the number.
func parseScore(content string) (float64, error) {
	s := strings.TrimSpace(content)
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		m := scorePattern.FindString(s)
		if m == "" {
			return 0, &strconv.NumError{Func: "ParseFloat", Num: s, Err: strconv.ErrSyntax}
		}
		score, err = strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, err
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// keywordWeights gives the first few distinct keyword hits most of the
// heuristic mass; further hits add nothing.
var keywordWeights = []float64{0.25, 0.15, 0.10}

// heuristicScore scores a message from hard indicators alone. It is
// the whole signal in degraded mode, so financial-detail presence
// weighs heavily.
func heuristicScore(text string) (float64, []string) {
	report := extract.Extract(text)

	score := 0.0
	var signals []string

	for i, kw := range report.SuspiciousKeywords {
		if i < len(keywordWeights) {
			score += keywordWeights[i]
		}
		signals = append(signals, "keyword:"+kw)
	}
	if len(report.UPIIDs) > 0 || len(report.BankAccounts) > 0 || len(report.IFSCCodes) > 0 {
		score += 0.25
		signals = append(signals, "payment_details")
	}
	if len(report.PhishingLinks) > 0 {
		score += 0.20
		signals = append(signals, "link")
	}
	if len(report.PhoneNumbers) > 0 {
		score += 0.15
		signals = append(signals, "phone")
	}

	if score > 0.95 {
		score = 0.95
	}
	return score, signals
}

// hinglishVocabulary is romanized Hindi function words common in scam
// messages. Two or more distinct hits in otherwise Latin text flag the
// message as Hinglish.
var hinglishVocabulary = []string{
	"aap", "aapka", "apka", "hai", "hain", "nahi", "nahin", "kya",
	"karo", "kare", "karen", "bhejo", "bhej", "paisa", "paise",
	"rupaye", "rupee", "jaldi", "abhi", "turant", "bhai", "beta",
	"ji", "acha", "accha", "theek", "thik", "khata", "band",
	"hoga", "hogi", "kijiye", "dijiye",
}

// DetectLanguage classifies text as "hi" (Devanagari present),
// "hinglish" (romanized Hindi vocabulary) or "en".
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return "hi"
		}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	seen := make(map[string]struct{})
	hits := 0
	for _, w := range words {
		for _, v := range hinglishVocabulary {
			if w == v {
				if _, dup := seen[w]; !dup {
					seen[w] = struct{}{}
					hits++
				}
				break
			}
		}
	}
	if hits >= 2 {
		return "hinglish"
	}
	return "en"
}
