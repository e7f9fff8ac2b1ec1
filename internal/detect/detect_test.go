package detect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/trapline-dev/trapline/internal/llm/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetectObviousScamWithClassifier(t *testing.T) {
	mock := provider.NewMockProvider().Enqueue("0.92")
	d := New(mock, testLogger())

	res := d.Detect(context.Background(), "Congratulations! You won 10 lakh in the lottery. Share your OTP now.")
	if !res.IsScam {
		t.Errorf("expected scam, got confidence %v", res.Confidence)
	}
	if res.Confidence < 0.92 {
		t.Errorf("classifier score should carry: got %v", res.Confidence)
	}
	if res.Degraded {
		t.Error("healthy classifier should not report degraded")
	}
}

func TestDetectBenignMessage(t *testing.T) {
	mock := provider.NewMockProvider().Enqueue("0.05")
	d := New(mock, testLogger())

	res := d.Detect(context.Background(), "Hey, are we still meeting for lunch tomorrow?")
	if res.IsScam {
		t.Errorf("benign message flagged as scam: %+v", res)
	}
}

func TestDetectDegradedModeOnProviderFailure(t *testing.T) {
	mock := provider.NewMockProvider().FailWith(errors.New("connection refused"), -1)
	d := New(mock, testLogger())

	res := d.Detect(context.Background(), "URGENT: your KYC is blocked. Verify at http://sbi-kyc-update.xyz or account will be closed")
	if !res.Degraded {
		t.Error("provider failure should report degraded mode")
	}
	if !res.IsScam {
		t.Errorf("keyword heuristics alone should flag this, got %v", res.Confidence)
	}
}

func TestDetectNilProviderIsDegraded(t *testing.T) {
	d := New(nil, testLogger())

	res := d.Detect(context.Background(), "You won a prize! Pay the processing fee to winner@paytm urgently.")
	if !res.Degraded {
		t.Error("nil provider should always be degraded")
	}
	if !res.IsScam {
		t.Errorf("expected heuristic scam flag, got %v", res.Confidence)
	}
}

func TestDetectHeuristicFloorBeatsTimidClassifier(t *testing.T) {
	mock := provider.NewMockProvider().Enqueue("0.10")
	d := New(mock, testLogger())

	res := d.Detect(context.Background(), "Your electricity bill is overdue. Pay immediately to 9876543210@ybl or power will be blocked. Call 9123456780.")
	if res.Confidence <= 0.10 {
		t.Errorf("heuristic floor should override a timid classifier, got %v", res.Confidence)
	}
	if !res.IsScam {
		t.Errorf("expected scam, got %+v", res)
	}
}

func TestDetectEmptyMessage(t *testing.T) {
	d := New(provider.NewMockProvider(), testLogger())

	res := d.Detect(context.Background(), "   ")
	if res.IsScam || res.Confidence != 0 {
		t.Errorf("empty message should score zero, got %+v", res)
	}
}

func TestDetectMalformedClassifierOutput(t *testing.T) {
	mock := provider.NewMockProvider().Enqueue("The score is 0.88 out of 1.")
	d := New(mock, testLogger())

	res := d.Detect(context.Background(), "lottery winner claim prize")
	if res.Degraded {
		t.Error("parseable prose should not degrade")
	}
	if res.Confidence < 0.88 {
		t.Errorf("expected embedded score to be parsed, got %v", res.Confidence)
	}
}

func TestParseScoreClamps(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0.75", 0.75},
		{" 0.75\n", 0.75},
		{"1.8", 1.0},
		{"score: 0.4", 0.4},
	}
	for _, tc := range cases {
		got, err := parseScore(tc.in)
		if err != nil {
			t.Errorf("parseScore(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseScore(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := parseScore("no number here"); err == nil {
		t.Error("expected error for unparseable output")
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Your account will be blocked today", "en"},
		{"आपका खाता बंद हो जाएगा", "hi"},
		{"Aapka khata band ho jayega, jaldi paise bhejo", "hinglish"},
		{"Hello ji", "en"}, // one vocabulary hit is not enough
		{"", "en"},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.text); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
