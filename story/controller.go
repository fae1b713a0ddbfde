package story

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"strings"
	"time"

	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
	"dialogue_ai/prompts"
)

// Replier produces the character's in-character reply to a player line.
type Replier interface {
	Reply(ctx context.Context, req prompts.Request) (string, error)
}

// Recorder receives a copy of every exchange and rotation.
type Recorder interface {
	RecordExchange(ctx context.Context, e Exchange) error
	RecordRotation(ctx context.Context, r Rotation) error
}

// Config tunes the progression rules.
type Config struct {
	ExchangeLimit   int
	OptionsPerTurn  int
	LocationChoices int
	HistoryWindow   int
	ReplyTimeout    time.Duration
	// Seed for every random draw (0 => time-based).
	Seed int64
}

// DefaultConfig returns the reference rules.
func DefaultConfig() Config {
	return Config{
		ExchangeLimit:   5,
		OptionsPerTurn:  4,
		LocationChoices: 4,
		HistoryWindow:   6,
		ReplyTimeout:    20 * time.Second,
	}
}

// ForSession derives a per-session seed from a fixed Seed so sessions are
// reproducible without all drawing the same sequence. A zero Seed stays
// time-based.
func (c Config) ForSession(id string) Config {
	if c.Seed == 0 {
		return c
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	if seed := c.Seed ^ int64(h.Sum64()); seed != 0 {
		c.Seed = seed
	}
	return c
}

func (c Config) validate() error {
	if c.ExchangeLimit <= 0 {
		return fmt.Errorf("%w: exchange limit must be > 0", ErrInvalidConfiguration)
	}
	if c.OptionsPerTurn <= 0 {
		return fmt.Errorf("%w: options per turn must be > 0", ErrInvalidConfiguration)
	}
	if c.LocationChoices <= 0 {
		return fmt.Errorf("%w: location choices must be > 0", ErrInvalidConfiguration)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("%w: history window must be >= 0", ErrInvalidConfiguration)
	}
	if c.ReplyTimeout <= 0 {
		return fmt.Errorf("%w: reply timeout must be > 0", ErrInvalidConfiguration)
	}
	return nil
}

// Deps are the shared, read-only collaborators of a controller.
// Replier and Recorder are optional.
type Deps struct {
	Catalog    *dialogue.Catalog
	Traits     personality.Table
	Characters *CharacterRegistry
	Locations  *LocationRegistry
	Replier    Replier
	Recorder   Recorder
}

func (d Deps) validate(cfg Config) error {
	if d.Catalog == nil || d.Traits == nil || d.Characters == nil || d.Locations == nil {
		return fmt.Errorf("%w: catalog, traits, characters and locations are required", ErrInvalidConfiguration)
	}
	if cfg.OptionsPerTurn > d.Catalog.Len() {
		return fmt.Errorf("%w: %d options per turn but only %d lines", ErrInvalidConfiguration, cfg.OptionsPerTurn, d.Catalog.Len())
	}
	if d.Locations.Len() == 0 {
		return fmt.Errorf("%w: no locations", ErrInvalidConfiguration)
	}
	if d.Characters.Len() < 2 {
		return fmt.Errorf("%w: %d character(s) registered", ErrRotationExhausted, d.Characters.Len())
	}
	return nil
}

var errEmptyReply = errors.New("empty reply")

// Controller drives one player's conversation through the progression states.
// It is not safe for concurrent use.
type Controller struct {
	id        string
	cfg       Config
	deps      Deps
	rng       *rand.Rand
	presenter *dialogue.Presenter

	state        State
	session      *Session
	choices      []Location
	lastReply    string
	lastFallback bool
	rotations    int
}

// NewController validates the rules and content and starts a conversation
// with a random character in one of its allowed locations.
func NewController(id string, cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(cfg); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	c := &Controller{
		id:        id,
		cfg:       cfg,
		deps:      deps,
		rng:       rng,
		presenter: dialogue.NewPresenter(rng.Int63()),
		state:     StateConversing,
	}

	profile, err := deps.Characters.PickExcluding(rng, "")
	if err != nil {
		return nil, err
	}
	offered, err := c.presenter.Select(deps.Catalog, cfg.OptionsPerTurn)
	if err != nil {
		return nil, err
	}
	c.session = newSession(profile, c.startingLocation(profile), offered)
	c.warnUnknownTraits()

	log.Printf("[Session %s] Started with %s at %s", id, profile.DisplayName, c.session.location.Name)
	return c, nil
}

// startingLocation picks one of the character's allowed locations, or any
// location when none of them is registered.
func (c *Controller) startingLocation(p CharacterProfile) Location {
	var allowed []Location
	for _, id := range p.AllowedLocations {
		if loc, ok := c.deps.Locations.Get(id); ok {
			allowed = append(allowed, loc)
		}
	}
	if len(allowed) == 0 {
		allowed = c.deps.Locations.All()
	}
	return allowed[c.rng.Intn(len(allowed))]
}

func (c *Controller) warnUnknownTraits() {
	if unknown := c.deps.Traits.Unknown(c.session.character.Traits); len(unknown) > 0 {
		log.Printf("[Session %s] %s has traits without a policy (ignored): %v", c.id, c.session.character.DisplayName, unknown)
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// State returns the current progression state.
func (c *Controller) State() State { return c.state }

// Session returns the live conversation session.
func (c *Controller) Session() *Session { return c.session }

// LocationChoices returns the locations on offer while choosing a location.
func (c *Controller) LocationChoices() []Location {
	out := make([]Location, len(c.choices))
	copy(out, c.choices)
	return out
}

func (c *Controller) expect(s State) error {
	if c.state != s {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongState, c.state, s)
	}
	return nil
}

// Select accepts the player's pick of an offered option. The reply is
// obtained before anything is recorded, so a failed call leaves the session
// untouched.
func (c *Controller) Select(ctx context.Context, optionID int) (TurnResult, error) {
	if err := c.expect(StateConversing); err != nil {
		return TurnResult{}, err
	}
	opt, ok := c.session.offeredOption(optionID)
	if !ok {
		return TurnResult{}, fmt.Errorf("%w: %d", ErrUnknownOption, optionID)
	}

	reaction := c.deps.Traits.React(c.session.character.Traits, opt)
	reply, fallback := c.reply(ctx, opt, reaction.Mood)

	next, err := c.presenter.Select(c.deps.Catalog, c.cfg.OptionsPerTurn)
	if err != nil {
		return TurnResult{}, err
	}

	turn := Turn{
		PlayerLine: opt.Text,
		Reply:      reply,
		Score:      reaction.Score,
		Mood:       reaction.Mood,
		Fallback:   fallback,
	}
	c.session.record(turn, next)
	c.lastReply = reply
	c.lastFallback = fallback

	if c.session.ExchangeCount() >= c.cfg.ExchangeLimit {
		c.state = StateAwaitingAdvance
	}

	c.recordExchange(ctx, opt, turn)
	return TurnResult{Option: opt, Turn: turn, State: c.state}, nil
}

// reply asks the generator for a reply and falls back to the mood's stock
// line on any failure. The second return value reports that fallback.
func (c *Controller) reply(ctx context.Context, opt dialogue.Option, mood personality.Mood) (string, bool) {
	stock := personality.StockReply(mood)
	if c.deps.Replier == nil {
		return stock, false
	}

	req := c.session.promptRequest(c.deps.Traits, opt.Text, c.cfg.HistoryWindow)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReplyTimeout)
	defer cancel()

	text, err := c.deps.Replier.Reply(ctx, req)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errEmptyReply
	}
	if err != nil {
		log.Printf("[Session %s] Reply generation failed, using stock reply: %v", c.id, err)
		return stock, true
	}
	return text, false
}

// Advance moves from AwaitingAdvance to ChoosingLocation and draws the
// locations to choose from.
func (c *Controller) Advance() error {
	if err := c.expect(StateAwaitingAdvance); err != nil {
		return err
	}
	c.choices = c.deps.Locations.Sample(c.rng, c.cfg.LocationChoices)
	c.state = StateChoosingLocation
	return nil
}

// ChooseLocation accepts one of the offered locations and rotates to a new
// character there.
func (c *Controller) ChooseLocation(ctx context.Context, locationID string) error {
	if err := c.expect(StateChoosingLocation); err != nil {
		return err
	}
	var loc Location
	found := false
	for _, l := range c.choices {
		if l.ID == locationID {
			loc, found = l, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownLocation, locationID)
	}

	c.state = StateRotating
	if err := c.rotate(ctx, loc); err != nil {
		c.state = StateChoosingLocation
		return err
	}
	return nil
}

func (c *Controller) rotate(ctx context.Context, loc Location) error {
	prev := c.session.character
	profile, err := c.deps.Characters.PickExcluding(c.rng, prev.ID)
	if err != nil {
		return err
	}
	offered, err := c.presenter.Select(c.deps.Catalog, c.cfg.OptionsPerTurn)
	if err != nil {
		return err
	}

	c.session = newSession(profile, loc, offered)
	c.choices = nil
	c.lastReply = ""
	c.lastFallback = false
	c.rotations++
	c.state = StateConversing
	c.warnUnknownTraits()

	log.Printf("[Session %s] Rotated from %s to %s at %s", c.id, prev.DisplayName, profile.DisplayName, loc.Name)
	if c.deps.Recorder != nil {
		r := Rotation{
			SessionID:     c.id,
			Number:        c.rotations,
			FromCharacter: prev.ID,
			ToCharacter:   profile.ID,
			LocationID:    loc.ID,
			At:            time.Now().UTC(),
		}
		if err := c.deps.Recorder.RecordRotation(ctx, r); err != nil {
			log.Printf("[Session %s] Journal rotation failed: %v", c.id, err)
		}
	}
	return nil
}

func (c *Controller) recordExchange(ctx context.Context, opt dialogue.Option, t Turn) {
	if c.deps.Recorder == nil {
		return
	}
	e := Exchange{
		SessionID:   c.id,
		Rotation:    c.rotations,
		Number:      c.session.ExchangeCount(),
		CharacterID: c.session.character.ID,
		LocationID:  c.session.location.ID,
		OptionID:    opt.ID,
		PlayerLine:  t.PlayerLine,
		Reply:       t.Reply,
		Score:       t.Score,
		Mood:        t.Mood,
		Fallback:    t.Fallback,
		At:          time.Now().UTC(),
	}
	if err := c.deps.Recorder.RecordExchange(ctx, e); err != nil {
		log.Printf("[Session %s] Journal exchange failed: %v", c.id, err)
	}
}

// Snapshot returns a copy of everything the presentation layer draws.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		SessionID:       c.id,
		State:           c.state,
		Character:       c.session.Character(),
		Location:        c.session.Location(),
		Offered:         c.session.Offered(),
		History:         c.session.History(),
		ExchangeCount:   c.session.ExchangeCount(),
		ExchangeLimit:   c.cfg.ExchangeLimit,
		LastReply:       c.lastReply,
		LastFallback:    c.lastFallback,
		LocationChoices: c.LocationChoices(),
		Rotations:       c.rotations,
	}
}
