package story

import (
	"time"

	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
)

// State is a phase of the conversation progression.
type State string

const (
	StateConversing       State = "conversing"
	StateAwaitingAdvance  State = "awaiting_advance"
	StateChoosingLocation State = "choosing_location"
	StateRotating         State = "rotating"
)

// Character is the non-player character currently being talked to.
type Character struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"name"`
	Traits      []string         `json:"traits"`
	Mood        personality.Mood `json:"mood"`
}

// Location is a place a conversation can happen in.
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Turn is one accepted exchange: what the player said and what came back.
type Turn struct {
	PlayerLine string           `json:"player_line"`
	Reply      string           `json:"reply"`
	Score      int              `json:"score"`
	Mood       personality.Mood `json:"mood"`
	// Fallback is set when the generator failed and the stock reply was used.
	Fallback bool `json:"fallback"`
}

// TurnResult is returned from an accepted selection.
type TurnResult struct {
	Option dialogue.Option `json:"option"`
	Turn   Turn            `json:"turn"`
	State  State           `json:"state"`
}

// Snapshot is everything a presentation layer needs to draw the current turn.
type Snapshot struct {
	SessionID       string            `json:"session_id"`
	State           State             `json:"state"`
	Character       Character         `json:"character"`
	Location        Location          `json:"location"`
	Offered         []dialogue.Option `json:"offered"`
	History         []Turn            `json:"history"`
	ExchangeCount   int               `json:"exchange_count"`
	ExchangeLimit   int               `json:"exchange_limit"`
	LastReply       string            `json:"last_reply"`
	LastFallback    bool              `json:"last_fallback"`
	LocationChoices []Location        `json:"location_choices,omitempty"`
	Rotations       int               `json:"rotations"`
}

// Exchange is the journal record of an accepted selection.
type Exchange struct {
	SessionID   string
	Rotation    int
	Number      int
	CharacterID string
	LocationID  string
	OptionID    int
	PlayerLine  string
	Reply       string
	Score       int
	Mood        personality.Mood
	Fallback    bool
	At          time.Time
}

// Rotation is the journal record of a character/location change.
type Rotation struct {
	SessionID     string
	Number        int
	FromCharacter string
	ToCharacter   string
	LocationID    string
	At            time.Time
}
