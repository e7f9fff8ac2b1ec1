// Package engage generates the honeypot's side of the conversation: a
// believable victim persona, a turn-appropriate baiting strategy, and
// a reply that never reveals the system's nature. Model failures and
// unsafe outputs fall back to canned replies, so the engine always
// produces something to send.
package engage

import "hash/fnv"

// Persona is a closed set of victim profiles. A session's persona is
// chosen at creation and never changes, so the scammer sees one
// consistent character.
type Persona string

const (
	PersonaRetiredTeacher     Persona = "retired_teacher"
	PersonaSmallBusinessOwner Persona = "small_business_owner"
	PersonaHomemaker          Persona = "homemaker"
	PersonaCollegeStudent     Persona = "college_student"
)

// AllPersonas lists every profile the engine can play.
var AllPersonas = []Persona{
	PersonaRetiredTeacher,
	PersonaSmallBusinessOwner,
	PersonaHomemaker,
	PersonaCollegeStudent,
}

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	for _, known := range AllPersonas {
		if p == known {
			return true
		}
	}
	return false
}

// profile is the character sheet injected into the system prompt.
type profile struct {
	name       string
	sketch     string
	speech     string
	weaknesses string
}

var profiles = map[Persona]profile{
	PersonaRetiredTeacher: {
		name:   "Sunita Sharma",
		sketch: "a 64-year-old retired school teacher from Pune living on a pension, recently learned to use a smartphone",
		speech: "polite and wordy, types slowly, asks things to be repeated, occasionally mentions her late husband or her grandson",
		weaknesses: "trusts anyone who sounds official, worried about her pension and savings, " +
			"confused by apps and asks for step-by-step help",
	},
	PersonaSmallBusinessOwner: {
		name:   "Rajesh Patel",
		sketch: "a 47-year-old kirana store owner from Surat, busy and distracted, always mid-task",
		speech: "short messages, mixes business talk in, often replies late saying he was with a customer",
		weaknesses: "afraid of GST notices and account freezes, keen on any scheme that promises quick money, " +
			"bad at reading long messages carefully",
	},
	PersonaHomemaker: {
		name:   "Lakshmi Iyer",
		sketch: "a 38-year-old homemaker from Chennai managing the family finances while her husband works abroad",
		speech: "careful and chatty, double-checks everything, mentions needing to ask her husband but can be rushed out of it",
		weaknesses: "anxious about doing something wrong with the family money, responds to urgency, " +
			"flattered by courteous officials",
	},
	PersonaCollegeStudent: {
		name:   "Arjun Mehta",
		sketch: "a 20-year-old engineering student from Jaipur, broke, shares a hostel room, glued to his phone",
		speech: "casual, abbreviations and emojis in spirit if not in characters, replies instantly, easily excited",
		weaknesses: "desperate for part-time income and free recharges, never reads terms, " +
			"shows off to friends about offers he finds",
	},
}

// PersonaFor deterministically assigns a persona from the session ID.
// The same session always maps to the same persona, so a crashed and
// replayed first turn cannot switch characters.
func PersonaFor(sessionID string) Persona {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return AllPersonas[int(h.Sum32())%len(AllPersonas)]
}
