package extract

import (
	"regexp"
	"strings"
)

// EntityType identifies a category of extracted indicator.
type EntityType string

const (
	EntityUPIID             EntityType = "upi_id"
	EntityBankAccount       EntityType = "bank_account"
	EntityIFSCCode          EntityType = "ifsc_code"
	EntityPhoneNumber       EntityType = "phone_number"
	EntityPhishingLink      EntityType = "phishing_link"
	EntitySuspiciousKeyword EntityType = "suspicious_keyword"
)

// AllEntityTypes lists every extractable category, in report order.
var AllEntityTypes = []EntityType{
	EntityUPIID,
	EntityBankAccount,
	EntityIFSCCode,
	EntityPhoneNumber,
	EntityPhishingLink,
	EntitySuspiciousKeyword,
}

// upiProviders is the known payment-provider suffix vocabulary. A
// localpart@suffix match only counts as a payment handle when the
// suffix is in this set, which keeps e-mail addresses out.
var upiProviders = []string{
	"paytm", "ybl", "upi", "apl", "axl", "ibl", "sbi", "oksbi",
	"okaxis", "okhdfcbank", "okicici", "ptyes", "ptaxis", "pthdfc",
	"ptsbi", "yapl", "fam", "freecharge", "mobikwik", "airtel",
	"jio", "gpay", "phonepe", "icici", "hdfcbank", "axisbank",
	"kotak", "barodampay",
}

// suspiciousKeywords is the curated scam vocabulary. Matching is
// case-insensitive on word boundaries; the canonical (lowercase) form
// is what gets reported.
var suspiciousKeywords = []string{
	"otp", "urgent", "urgently", "immediately", "lottery", "lakh",
	"crore", "prize", "winner", "won", "jackpot", "lucky draw",
	"verify", "verification", "kyc", "blocked", "block", "suspend",
	"suspended", "expire", "expires", "refund", "cashback", "claim",
	"processing fee", "registration fee", "customs", "parcel",
	"police", "arrest", "court", "income tax", "electricity bill",
	"pan card", "aadhaar", "account will be closed", "last chance",
	"act now", "limited time", "congratulations", "selected",
	"transfer", "deposit", "advance payment", "gift card",
	"bitcoin", "investment", "double your money", "guaranteed returns",
}

// suspiciousTLDs are the cheap-registrar TLDs that dominate SMS
// phishing campaigns; a bare host under one of these counts as a link
// even without a scheme prefix.
var suspiciousTLDs = []string{
	"xyz", "top", "online", "site", "club", "icu", "buzz",
	"win", "vip", "live", "click", "link",
}

// rule binds an entity type to its pattern and normalizer. Patterns
// are structural, not learned; the table is data, the engine is the
// only control flow.
type rule struct {
	entity    EntityType
	pattern   *regexp.Regexp
	group     int                 // submatch index holding the value, 0 for whole match
	normalize func(string) string // canonical form for report and dedup
	accept    func(string) bool   // optional post-match filter, on the raw value
}

var digitRun = regexp.MustCompile(`\d+`)

var rules = []rule{
	{
		entity:    EntityUPIID,
		pattern:   regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9._-]{1,}@(` + strings.Join(upiProviders, "|") + `)\b`),
		normalize: strings.ToLower,
	},
	{
		// Maximal digit runs, classified by shape: 9-18 digits that do
		// not look like a mobile number are treated as account numbers.
		entity:    EntityBankAccount,
		pattern:   digitRun,
		normalize: func(s string) string { return s },
		accept: func(s string) bool {
			return len(s) >= 9 && len(s) <= 18 && !isPhoneShaped(s)
		},
	},
	{
		entity:    EntityIFSCCode,
		pattern:   regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`),
		normalize: strings.ToUpper,
	},
	{
		// Indian mobile numbers, with or without the 91 country code
		// or a leading 0, tolerating space/dash separators inside the
		// number ("98765 43210", "+91-98765-43210"). Shape checks run
		// on the bare digits, so account-length runs fall through to
		// the bank-account rule above.
		entity:    EntityPhoneNumber,
		pattern:   regexp.MustCompile(`\+?\d(?:[ -]?\d){9,12}`),
		normalize: normalizePhone,
		accept: func(s string) bool {
			return isPhoneShaped(digitsOf(s))
		},
	},
	{
		// Scheme-prefixed URLs, plus bare hosts under the cheap TLDs
		// that dominate SMS phishing ("claim-prize.xyz/win").
		entity: EntityPhishingLink,
		pattern: regexp.MustCompile(`(?i)\b(?:https?://[^\s<>"']+` +
			`|[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:` + strings.Join(suspiciousTLDs, "|") + `)(?:/[^\s<>"']*)?)`),
		normalize: normalizeURL,
	},
	{
		entity:    EntitySuspiciousKeyword,
		pattern:   regexp.MustCompile(`(?i)\b(` + keywordAlternation() + `)\b`),
		group:     1,
		normalize: strings.ToLower,
	},
}

func keywordAlternation() string {
	quoted := make([]string, len(suspiciousKeywords))
	for i, kw := range suspiciousKeywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return strings.Join(quoted, "|")
}

// isPhoneShaped reports whether a digit run looks like an Indian
// mobile number rather than an account number: a bare 10-digit mobile,
// an 11-digit run with a leading 0, or a 12-digit run with the 91
// country code.
func isPhoneShaped(digits string) bool {
	switch len(digits) {
	case 10:
		return digits[0] >= '6' && digits[0] <= '9'
	case 11:
		return digits[0] == '0' && digits[1] >= '6' && digits[1] <= '9'
	case 12:
		return strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9'
	default:
		return false
	}
}

// digitsOf strips everything but digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizePhone strips separators and reduces every accepted shape to
// the +91XXXXXXXXXX form.
func normalizePhone(s string) string {
	d := digitsOf(s)
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}
	return "+91" + d
}

// normalizeURL lowercases the scheme and host, leaves path casing
// alone, and trims trailing punctuation a sentence leaves on the
// match. Works for scheme-less bare hosts too.
func normalizeURL(s string) string {
	s = strings.TrimRight(s, ".,;:!?)]}'\"")
	hostStart := 0
	if i := strings.Index(s, "://"); i >= 0 {
		hostStart = i + 3
	}
	if j := strings.IndexAny(s[hostStart:], "/?#"); j >= 0 {
		return strings.ToLower(s[:hostStart+j]) + s[hostStart+j:]
	}
	return strings.ToLower(s)
}
