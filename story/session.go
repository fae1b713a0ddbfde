package story

import (
	"fmt"
	"strings"

	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
	"dialogue_ai/prompts"
)

// Session is the live state of one character/location pairing.
// History and the exchange count only ever change together.
type Session struct {
	character Character
	location  Location
	history   []Turn
	offered   []dialogue.Option
}

func newSession(p CharacterProfile, loc Location, offered []dialogue.Option) *Session {
	return &Session{
		character: Character{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Traits:      p.Traits,
			Mood:        personality.MoodNeutral,
		},
		location: loc,
		offered:  offered,
	}
}

// Character returns the current character.
func (s *Session) Character() Character {
	c := s.character
	c.Traits = append([]string(nil), c.Traits...)
	return c
}

// Location returns the current location.
func (s *Session) Location() Location { return s.location }

// ExchangeCount returns how many selections were accepted with this character.
func (s *Session) ExchangeCount() int { return len(s.history) }

// History returns a copy of the accepted turns, oldest first.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Offered returns a copy of the options on offer this turn.
func (s *Session) Offered() []dialogue.Option {
	out := make([]dialogue.Option, len(s.offered))
	copy(out, s.offered)
	return out
}

func (s *Session) offeredOption(id int) (dialogue.Option, bool) {
	for _, o := range s.offered {
		if o.ID == id {
			return o, true
		}
	}
	return dialogue.Option{}, false
}

// record appends an accepted turn and installs the next set of options.
func (s *Session) record(t Turn, next []dialogue.Option) {
	s.character.Mood = t.Mood
	s.history = append(s.history, t)
	s.offered = next
}

// historyText renders the last window lines of the conversation.
func (s *Session) historyText(window int) string {
	if window <= 0 {
		return ""
	}
	lines := make([]string, 0, 2*len(s.history))
	for _, t := range s.history {
		lines = append(lines, "Player: "+t.PlayerLine)
		lines = append(lines, s.character.DisplayName+": "+t.Reply)
	}
	if len(lines) > window {
		lines = lines[len(lines)-window:]
	}
	return strings.Join(lines, "\n")
}

func (s *Session) promptRequest(table personality.Table, playerLine string, window int) prompts.Request {
	desc := table.Describe(s.character.Traits)
	if desc == "" && len(s.character.Traits) > 0 {
		desc = "You are " + strings.Join(s.character.Traits, ", ") + "."
	}
	return prompts.Request{
		TraitDescription:    strings.TrimSpace(fmt.Sprintf("Your name is %s. %s", s.character.DisplayName, desc)),
		LocationDescription: fmt.Sprintf("%s: %s.", s.location.Name, s.location.Description),
		HistoryText:         s.historyText(window),
		PlayerMessage:       playerLine,
	}
}
