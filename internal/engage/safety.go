package engage

import "strings"

// bannedFragments are substrings that must never appear in an outbound
// reply: anything that breaks character or reveals the system's
// nature. Matching is case-insensitive.
var bannedFragments = []string{
	"i am an ai",
	"i'm an ai",
	"as an ai",
	"i am a bot",
	"i'm a bot",
	"i am a chatbot",
	"i'm a chatbot",
	"language model",
	"i am an artificial",
	"i'm an artificial",
	"virtual assistant",
	"i am a honeypot",
	"i cannot assist",
	"i can't assist",
	"i cannot help with that",
	"against my guidelines",
	"openai",
	"anthropic",
	"this is a scam",
	"you are a scammer",
	"i am reporting you",
	"law enforcement has been",
}

// unsafeReply reports whether a model output breaks character. Callers
// replace a flagged reply with a canned fallback rather than trying to
// repair it.
func unsafeReply(reply string) bool {
	lower := strings.ToLower(reply)
	for _, frag := range bannedFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
