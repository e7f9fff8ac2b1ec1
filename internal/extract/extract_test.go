package extract

import (
	"reflect"
	"testing"
)

func TestExtractLotteryMessage(t *testing.T) {
	r := Extract("You won 10 lakh! Share OTP to scammer@paytm")

	if !reflect.DeepEqual(r.UPIIDs, []string{"scammer@paytm"}) {
		t.Errorf("upi_ids = %v, want [scammer@paytm]", r.UPIIDs)
	}
	for _, kw := range []string{"won", "lakh", "otp"} {
		if !containsValue(r.SuspiciousKeywords, kw) {
			t.Errorf("suspicious_keywords missing %q: %v", kw, r.SuspiciousKeywords)
		}
	}
	if r.Confidence <= 0 {
		t.Errorf("confidence should be positive, got %v", r.Confidence)
	}
}

func TestExtractBankDetails(t *testing.T) {
	r := Extract("Send to account 12345678901234, IFSC SBIN0001234, call +919876543210")

	if !reflect.DeepEqual(r.BankAccounts, []string{"12345678901234"}) {
		t.Errorf("bank_accounts = %v", r.BankAccounts)
	}
	if !reflect.DeepEqual(r.IFSCCodes, []string{"SBIN0001234"}) {
		t.Errorf("ifsc_codes = %v", r.IFSCCodes)
	}
	if !reflect.DeepEqual(r.PhoneNumbers, []string{"+919876543210"}) {
		t.Errorf("phone_numbers = %v", r.PhoneNumbers)
	}
}

func TestExtractPhoneShapes(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"call 9876543210", "+919876543210"},
		{"call 09876543210", "+919876543210"},
		{"call 919876543210", "+919876543210"},
		{"call +91 9876543210", "+919876543210"},
		{"call 98765 43210", "+919876543210"},
		{"call 98765-43210", "+919876543210"},
		{"call +91 98765 43210", "+919876543210"},
		{"call +91-98765-43210", "+919876543210"},
	}
	for _, tc := range cases {
		r := Extract(tc.text)
		if len(r.PhoneNumbers) != 1 || r.PhoneNumbers[0] != tc.want {
			t.Errorf("Extract(%q).PhoneNumbers = %v, want [%s]", tc.text, r.PhoneNumbers, tc.want)
		}
		if len(r.BankAccounts) != 0 {
			t.Errorf("Extract(%q) misread phone as account: %v", tc.text, r.BankAccounts)
		}
	}
}

func TestExtractPhoneNotMistakenForAccount(t *testing.T) {
	// 10 digits starting with 5 is not a valid mobile, so it counts as
	// an account number.
	r := Extract("account 5876543210")
	if len(r.PhoneNumbers) != 0 {
		t.Errorf("unexpected phone: %v", r.PhoneNumbers)
	}
	if !reflect.DeepEqual(r.BankAccounts, []string{"5876543210"}) {
		t.Errorf("bank_accounts = %v", r.BankAccounts)
	}
}

func TestExtractUPIRequiresKnownProvider(t *testing.T) {
	r := Extract("mail me at someone@gmail.com or pay victim123@okicici")
	if !reflect.DeepEqual(r.UPIIDs, []string{"victim123@okicici"}) {
		t.Errorf("upi_ids = %v, want only the known provider handle", r.UPIIDs)
	}
}

func TestExtractURLs(t *testing.T) {
	r := Extract("Click HTTP://Fake-Bank.XYZ/Verify?id=9 now, or see https://safe-prize.win.")
	want := []string{"http://fake-bank.xyz/Verify?id=9", "https://safe-prize.win"}
	if !reflect.DeepEqual(r.PhishingLinks, want) {
		t.Errorf("phishing_links = %v, want %v", r.PhishingLinks, want)
	}
}

func TestExtractSchemelessPhishingHosts(t *testing.T) {
	r := Extract("Claim your prize at claim-prize.xyz/win or visit Lucky-Offer.TOP today")
	want := []string{"claim-prize.xyz/win", "lucky-offer.top"}
	if !reflect.DeepEqual(r.PhishingLinks, want) {
		t.Errorf("phishing_links = %v, want %v", r.PhishingLinks, want)
	}
}

func TestExtractDedupIsCaseInsensitive(t *testing.T) {
	r := Extract("Pay SCAMMER@PAYTM or scammer@paytm. URGENT urgent OTP otp")
	if len(r.UPIIDs) != 1 {
		t.Errorf("duplicate handles not collapsed: %v", r.UPIIDs)
	}
	if got := countValue(r.SuspiciousKeywords, "urgent"); got != 1 {
		t.Errorf("keyword %q appears %d times", "urgent", got)
	}
}

func TestExtractPreservesFirstSeenOrder(t *testing.T) {
	r := Extract("first@ybl then second@paytm then first@ybl again")
	want := []string{"first@ybl", "second@paytm"}
	if !reflect.DeepEqual(r.UPIIDs, want) {
		t.Errorf("upi_ids = %v, want %v", r.UPIIDs, want)
	}
}

func TestExtractEmptyAndBenign(t *testing.T) {
	if r := Extract(""); r.Confidence != 0 || r.typesFound() != 0 {
		t.Errorf("empty input should yield zero report: %+v", r)
	}
	if r := Extract("see you at dinner tonight"); r.Confidence != 0 {
		t.Errorf("benign text should score zero, got %+v", r)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "Won lottery! Pay fee to win@paytm, acc 123456789012, IFSC HDFC0ABC123, http://claim.xyz call 9123456789"
	first := Extract(text)
	second := Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestConfidenceDiminishingReturns(t *testing.T) {
	one := Extract("urgent")
	two := Extract("urgent, pay to rahul@paytm")
	three := Extract("urgent, pay to rahul@paytm, call 9876543210")

	if !(one.Confidence < two.Confidence && two.Confidence < three.Confidence) {
		t.Fatalf("confidence should grow with type coverage: %v %v %v",
			one.Confidence, two.Confidence, three.Confidence)
	}
	firstGain := two.Confidence - one.Confidence
	secondGain := three.Confidence - two.Confidence
	if secondGain >= firstGain {
		t.Errorf("returns should diminish: gains %v then %v", firstGain, secondGain)
	}
}

func TestConfidenceFullCoverageIsOne(t *testing.T) {
	text := "URGENT! Pay fee to win@paytm, account 123456789012, IFSC HDFC0ABC123, visit http://claim.xyz or call 9123456789"
	r := Extract(text)
	if r.typesFound() != 6 {
		t.Fatalf("expected all 6 types, found %d: %+v", r.typesFound(), r)
	}
	if r.Confidence != 1.0 {
		t.Errorf("full coverage confidence = %v, want 1.0", r.Confidence)
	}
}

func TestCoverage(t *testing.T) {
	r := Extract("pay win@paytm or call 9876543210")
	cov := CoverageOf(r)

	if !cov.HasPayment || !cov.HasPhone {
		t.Errorf("coverage missed captured types: %+v", cov)
	}
	if cov.Captured() != 2 {
		t.Errorf("Captured() = %d, want 2", cov.Captured())
	}
	missing := cov.Missing()
	for _, want := range []string{"bank account", "bank routing code", "website link"} {
		if !containsValue(missing, want) {
			t.Errorf("Missing() lacks %q: %v", want, missing)
		}
	}
}

func containsValue(vs []string, want string) bool {
	for _, v := range vs {
		if v == want {
			return true
		}
	}
	return false
}

func countValue(vs []string, want string) int {
	n := 0
	for _, v := range vs {
		if v == want {
			n++
		}
	}
	return n
}
