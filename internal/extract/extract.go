// Package extract mines structured fraud indicators out of raw
// dialogue text. Extraction is stateless: every call re-derives the
// full report from the complete conversation text, which makes it
// idempotent and keeps incremental-update bugs out of the design.
package extract

// Report holds the deduplicated indicators found in a conversation,
// one ordered list per entity type, plus an aggregate confidence.
type Report struct {
	UPIIDs             []string `json:"upi_ids"`
	BankAccounts       []string `json:"bank_accounts"`
	IFSCCodes          []string `json:"ifsc_codes"`
	PhoneNumbers       []string `json:"phone_numbers"`
	PhishingLinks      []string `json:"phishing_links"`
	SuspiciousKeywords []string `json:"suspicious_keywords"`

	// Confidence is in [0,1]: 0.0 for no matches, growing with the
	// number of distinct entity types found, with diminishing returns.
	Confidence float64 `json:"extraction_confidence"`
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	out := r
	out.UPIIDs = append([]string(nil), r.UPIIDs...)
	out.BankAccounts = append([]string(nil), r.BankAccounts...)
	out.IFSCCodes = append([]string(nil), r.IFSCCodes...)
	out.PhoneNumbers = append([]string(nil), r.PhoneNumbers...)
	out.PhishingLinks = append([]string(nil), r.PhishingLinks...)
	out.SuspiciousKeywords = append([]string(nil), r.SuspiciousKeywords...)
	return out
}

// typeWeights gives each additional distinct entity type a smaller
// confidence contribution. The weights sum to 1.0, so a conversation
// yielding all six types scores exactly 1.0.
var typeWeights = []float64{0.40, 0.25, 0.15, 0.10, 0.05, 0.05}

// Extract derives a Report from the full concatenated dialogue text.
// Malformed or empty input yields an empty report, never an error.
func Extract(text string) Report {
	var report Report
	if text == "" {
		return report
	}

	for _, r := range rules {
		values := applyRule(r, text)
		switch r.entity {
		case EntityUPIID:
			report.UPIIDs = values
		case EntityBankAccount:
			report.BankAccounts = values
		case EntityIFSCCode:
			report.IFSCCodes = values
		case EntityPhoneNumber:
			report.PhoneNumbers = values
		case EntityPhishingLink:
			report.PhishingLinks = values
		case EntitySuspiciousKeyword:
			report.SuspiciousKeywords = values
		}
	}

	report.Confidence = confidenceFor(report.typesFound())
	return report
}

// applyRule runs one rule over the text and returns normalized,
// order-preserving, case-insensitively deduplicated values.
func applyRule(r rule, text string) []string {
	matches := r.pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var values []string
	for _, m := range matches {
		raw := m[r.group]
		if r.accept != nil && !r.accept(raw) {
			continue
		}
		v := r.normalize(raw)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// typesFound counts the distinct entity types with at least one match.
func (r Report) typesFound() int {
	n := 0
	for _, vs := range [][]string{
		r.UPIIDs, r.BankAccounts, r.IFSCCodes,
		r.PhoneNumbers, r.PhishingLinks, r.SuspiciousKeywords,
	} {
		if len(vs) > 0 {
			n++
		}
	}
	return n
}

// confidenceFor maps a distinct-type count onto [0,1].
func confidenceFor(types int) float64 {
	if types >= len(typeWeights) {
		return 1.0
	}
	score := 0.0
	for i := 0; i < types && i < len(typeWeights); i++ {
		score += typeWeights[i]
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Coverage reports which target entity types have been captured so
// far. The conversation engine uses it to steer strategy selection
// toward the indicator types still missing.
type Coverage struct {
	HasPayment bool
	HasBank    bool
	HasRouting bool
	HasPhone   bool
	HasLink    bool
}

// CoverageOf summarizes a report into per-target-type presence.
func CoverageOf(r Report) Coverage {
	return Coverage{
		HasPayment: len(r.UPIIDs) > 0,
		HasBank:    len(r.BankAccounts) > 0,
		HasRouting: len(r.IFSCCodes) > 0,
		HasPhone:   len(r.PhoneNumbers) > 0,
		HasLink:    len(r.PhishingLinks) > 0,
	}
}

// Captured counts the target types already observed.
func (c Coverage) Captured() int {
	n := 0
	for _, b := range []bool{c.HasPayment, c.HasBank, c.HasRouting, c.HasPhone, c.HasLink} {
		if b {
			n++
		}
	}
	return n
}

// Missing lists human-readable names of target types not yet observed,
// in probing priority order: payment handles first, then phone, then
// bank details.
func (c Coverage) Missing() []string {
	var missing []string
	if !c.HasPayment {
		missing = append(missing, "payment handle")
	}
	if !c.HasPhone {
		missing = append(missing, "phone number")
	}
	if !c.HasBank {
		missing = append(missing, "bank account")
	}
	if !c.HasRouting {
		missing = append(missing, "bank routing code")
	}
	if !c.HasLink {
		missing = append(missing, "website link")
	}
	return missing
}
