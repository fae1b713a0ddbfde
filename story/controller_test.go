package story

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
	"dialogue_ai/prompts"
)

type fakeReplier struct {
	reply    string
	err      error
	requests []prompts.Request
}

func (f *fakeReplier) Reply(ctx context.Context, req prompts.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

// slowReplier blocks until its context is done.
type slowReplier struct{}

func (slowReplier) Reply(ctx context.Context, req prompts.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type memRecorder struct {
	exchanges []Exchange
	rotations []Rotation
}

func (m *memRecorder) RecordExchange(ctx context.Context, e Exchange) error {
	m.exchanges = append(m.exchanges, e)
	return nil
}

func (m *memRecorder) RecordRotation(ctx context.Context, r Rotation) error {
	m.rotations = append(m.rotations, r)
	return nil
}

func testDeps() Deps {
	return Deps{
		Catalog:    dialogue.DefaultCatalog(),
		Traits:     personality.DefaultTable(),
		Characters: DefaultCharacters(),
		Locations:  DefaultLocations(),
	}
}

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return cfg
}

func newTestController(t *testing.T, seed int64, deps Deps) *Controller {
	t.Helper()
	c, err := NewController("test", testConfig(seed), deps)
	require.NoError(t, err)
	return c
}

func firstOffered(c *Controller) int {
	return c.Session().Offered()[0].ID
}

// playToLimit selects options until the controller stops conversing.
func playToLimit(t *testing.T, c *Controller) {
	t.Helper()
	for c.State() == StateConversing {
		_, err := c.Select(context.Background(), firstOffered(c))
		require.NoError(t, err)
	}
}

func TestNewControllerStartsConversing(t *testing.T) {
	c := newTestController(t, 1, testDeps())

	snap := c.Snapshot()
	assert.Equal(t, StateConversing, snap.State)
	assert.Equal(t, personality.MoodNeutral, snap.Character.Mood)
	assert.Len(t, snap.Offered, 4)
	assert.Empty(t, snap.History)
	assert.Equal(t, 0, snap.ExchangeCount)
	assert.Equal(t, 5, snap.ExchangeLimit)

	profile, ok := DefaultCharacters().Get(snap.Character.ID)
	require.True(t, ok)
	assert.Contains(t, profile.AllowedLocations, snap.Location.ID)
}

func TestNewControllerInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config, *Deps)
		want   error
	}{
		{"zero exchange limit", func(c *Config, d *Deps) { c.ExchangeLimit = 0 }, ErrInvalidConfiguration},
		{"negative exchange limit", func(c *Config, d *Deps) { c.ExchangeLimit = -3 }, ErrInvalidConfiguration},
		{"too many options", func(c *Config, d *Deps) { c.OptionsPerTurn = 31 }, ErrInvalidConfiguration},
		{"no options", func(c *Config, d *Deps) { c.OptionsPerTurn = 0 }, ErrInvalidConfiguration},
		{"no location choices", func(c *Config, d *Deps) { c.LocationChoices = 0 }, ErrInvalidConfiguration},
		{"no timeout", func(c *Config, d *Deps) { c.ReplyTimeout = 0 }, ErrInvalidConfiguration},
		{"missing catalog", func(c *Config, d *Deps) { d.Catalog = nil }, ErrInvalidConfiguration},
		{"empty locations", func(c *Config, d *Deps) { d.Locations = NewLocationRegistry() }, ErrInvalidConfiguration},
		{"single character", func(c *Config, d *Deps) {
			d.Characters = NewCharacterRegistry(CharacterProfile{ID: "john", Traits: []string{"warrior"}})
		}, ErrRotationExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(1)
			deps := testDeps()
			tt.mutate(&cfg, &deps)
			_, err := NewController("test", cfg, deps)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSelectUsesStockReplyWithoutGenerator(t *testing.T) {
	c := newTestController(t, 2, testDeps())
	opt := c.Session().Offered()[1]

	res, err := c.Select(context.Background(), opt.ID)
	require.NoError(t, err)

	traits := c.Session().Character().Traits
	wantScore := personality.DefaultTable().Score(traits, opt)
	wantMood := personality.DeriveMood(wantScore)

	assert.Equal(t, opt.Text, res.Turn.PlayerLine)
	assert.Equal(t, wantScore, res.Turn.Score)
	assert.Equal(t, wantMood, res.Turn.Mood)
	assert.Equal(t, personality.StockReply(wantMood), res.Turn.Reply)
	assert.False(t, res.Turn.Fallback)

	snap := c.Snapshot()
	assert.Equal(t, wantMood, snap.Character.Mood)
	assert.Equal(t, res.Turn.Reply, snap.LastReply)
	assert.Equal(t, 1, snap.ExchangeCount)
}

func TestHistoryMatchesExchangeCount(t *testing.T) {
	c := newTestController(t, 3, testDeps())

	for i := 1; i <= 5; i++ {
		_, err := c.Select(context.Background(), firstOffered(c))
		require.NoError(t, err)
		assert.Equal(t, i, c.Session().ExchangeCount())
		assert.Len(t, c.Session().History(), c.Session().ExchangeCount())
	}
}

func TestOfferedOptionsRefreshAndStayDistinct(t *testing.T) {
	c := newTestController(t, 4, testDeps())

	for i := 0; i < 4; i++ {
		_, err := c.Select(context.Background(), firstOffered(c))
		require.NoError(t, err)

		offered := c.Session().Offered()
		require.Len(t, offered, 4)
		seen := map[int]bool{}
		for _, o := range offered {
			assert.False(t, seen[o.ID])
			seen[o.ID] = true
		}
	}
}

func TestSelectRejectsOptionNotOffered(t *testing.T) {
	c := newTestController(t, 5, testDeps())
	offered := map[int]bool{}
	for _, o := range c.Session().Offered() {
		offered[o.ID] = true
	}
	missing := 0
	for offered[missing] {
		missing++
	}

	_, err := c.Select(context.Background(), missing)
	assert.True(t, errors.Is(err, ErrUnknownOption))
	assert.Equal(t, 0, c.Session().ExchangeCount())
}

func TestProgressionCycle(t *testing.T) {
	rec := &memRecorder{}
	deps := testDeps()
	deps.Recorder = rec
	c := newTestController(t, 6, deps)
	first := c.Session().Character()

	for i := 0; i < 4; i++ {
		res, err := c.Select(context.Background(), firstOffered(c))
		require.NoError(t, err)
		assert.Equal(t, StateConversing, res.State)
	}
	res, err := c.Select(context.Background(), firstOffered(c))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingAdvance, res.State)
	assert.Equal(t, 5, c.Session().ExchangeCount())

	// No dialogue is processed while waiting for the advance signal.
	_, err = c.Select(context.Background(), firstOffered(c))
	assert.True(t, errors.Is(err, ErrWrongState))
	assert.Equal(t, 5, c.Session().ExchangeCount())
	assert.True(t, errors.Is(c.ChooseLocation(context.Background(), "sewers"), ErrWrongState))

	require.NoError(t, c.Advance())
	assert.Equal(t, StateChoosingLocation, c.State())
	choices := c.LocationChoices()
	require.Len(t, choices, 4)
	assert.True(t, errors.Is(c.Advance(), ErrWrongState))

	assert.True(t, errors.Is(c.ChooseLocation(context.Background(), "atlantis"), ErrUnknownLocation))
	assert.Equal(t, StateChoosingLocation, c.State())

	target := choices[2]
	require.NoError(t, c.ChooseLocation(context.Background(), target.ID))

	snap := c.Snapshot()
	assert.Equal(t, StateConversing, snap.State)
	assert.Empty(t, snap.History)
	assert.Equal(t, 0, snap.ExchangeCount)
	assert.Equal(t, target, snap.Location)
	assert.NotEqual(t, first.ID, snap.Character.ID)
	assert.Equal(t, personality.MoodNeutral, snap.Character.Mood)
	assert.Len(t, snap.Offered, 4)
	assert.Empty(t, snap.LocationChoices)
	assert.Empty(t, snap.LastReply)
	assert.Equal(t, 1, snap.Rotations)

	require.Len(t, rec.exchanges, 5)
	for i, e := range rec.exchanges {
		assert.Equal(t, i+1, e.Number)
		assert.Equal(t, first.ID, e.CharacterID)
		assert.Equal(t, 0, e.Rotation)
	}
	require.Len(t, rec.rotations, 1)
	assert.Equal(t, first.ID, rec.rotations[0].FromCharacter)
	assert.Equal(t, snap.Character.ID, rec.rotations[0].ToCharacter)
	assert.Equal(t, target.ID, rec.rotations[0].LocationID)
}

func TestLocationChoicesAreDistinct(t *testing.T) {
	c := newTestController(t, 7, testDeps())
	playToLimit(t, c)
	require.NoError(t, c.Advance())

	seen := map[string]bool{}
	for _, l := range c.LocationChoices() {
		assert.False(t, seen[l.ID])
		seen[l.ID] = true
	}
}

func TestLocationChoicesCappedByRegistry(t *testing.T) {
	deps := testDeps()
	deps.Locations = NewLocationRegistry(Location{ID: "sewers"}, Location{ID: "jail"})
	c := newTestController(t, 8, deps)
	playToLimit(t, c)
	require.NoError(t, c.Advance())
	assert.Len(t, c.LocationChoices(), 2)
}

func TestRotationNeverRepeatsPreviousCharacter(t *testing.T) {
	deps := testDeps()
	deps.Characters = NewCharacterRegistry(
		CharacterProfile{ID: "john", Traits: []string{"warrior"}},
		CharacterProfile{ID: "luna", Traits: []string{"shy"}},
	)
	c := newTestController(t, 9, deps)

	seen := map[string]int{}
	prev := c.Session().Character().ID
	seen[prev]++
	for i := 0; i < 20; i++ {
		playToLimit(t, c)
		require.NoError(t, c.Advance())
		require.NoError(t, c.ChooseLocation(context.Background(), c.LocationChoices()[0].ID))

		cur := c.Session().Character().ID
		assert.NotEqual(t, prev, cur, "rotation %d repeated %s", i, cur)
		seen[cur]++
		prev = cur
	}
	assert.Equal(t, 2, len(seen))
	assert.Equal(t, 21, seen["john"]+seen["luna"])
}

func TestGenerationFailureFallsBack(t *testing.T) {
	replier := &fakeReplier{err: errors.New("quota exceeded")}
	deps := testDeps()
	deps.Replier = replier
	c := newTestController(t, 10, deps)

	res, err := c.Select(context.Background(), firstOffered(c))
	require.NoError(t, err)
	assert.True(t, res.Turn.Fallback)
	assert.Equal(t, personality.StockReply(res.Turn.Mood), res.Turn.Reply)
	assert.Equal(t, 1, c.Session().ExchangeCount())
	assert.True(t, c.Snapshot().LastFallback)
}

func TestEmptyReplyFallsBack(t *testing.T) {
	deps := testDeps()
	deps.Replier = &fakeReplier{reply: "   "}
	c := newTestController(t, 11, deps)

	res, err := c.Select(context.Background(), firstOffered(c))
	require.NoError(t, err)
	assert.True(t, res.Turn.Fallback)
	assert.Equal(t, personality.StockReply(res.Turn.Mood), res.Turn.Reply)
}

func TestGenerationTimeoutFallsBack(t *testing.T) {
	deps := testDeps()
	deps.Replier = slowReplier{}
	cfg := testConfig(12)
	cfg.ReplyTimeout = 20 * time.Millisecond
	c, err := NewController("test", cfg, deps)
	require.NoError(t, err)

	res, err := c.Select(context.Background(), firstOffered(c))
	require.NoError(t, err)
	assert.True(t, res.Turn.Fallback)
	assert.Len(t, c.Session().History(), 1)
}

func TestGeneratedReplyAndPrompt(t *testing.T) {
	replier := &fakeReplier{reply: "  Hmph. Speak plainly.  "}
	deps := testDeps()
	deps.Replier = replier
	c := newTestController(t, 13, deps)
	ch := c.Session().Character()
	loc := c.Session().Location()

	first := c.Session().Offered()[0]
	res, err := c.Select(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hmph. Speak plainly.", res.Turn.Reply)
	assert.False(t, res.Turn.Fallback)

	second := c.Session().Offered()[0]
	_, err = c.Select(context.Background(), second.ID)
	require.NoError(t, err)

	require.Len(t, replier.requests, 2)
	req0 := replier.requests[0]
	assert.Contains(t, req0.TraitDescription, "Your name is "+ch.DisplayName)
	assert.Contains(t, req0.LocationDescription, loc.Name)
	assert.Empty(t, req0.HistoryText)
	assert.Equal(t, first.Text, req0.PlayerMessage)

	req1 := replier.requests[1]
	assert.Equal(t, "Player: "+first.Text+"\n"+ch.DisplayName+": Hmph. Speak plainly.", req1.HistoryText)
	assert.Equal(t, second.Text, req1.PlayerMessage)
}

// Reaction comes from the option's tags only, whatever the generator says.
func TestReplyTextDoesNotAffectScore(t *testing.T) {
	deps := testDeps()
	deps.Replier = &fakeReplier{reply: "I love you, you are wonderful, thank you!"}
	c := newTestController(t, 14, deps)
	opt := c.Session().Offered()[0]
	traits := c.Session().Character().Traits

	res, err := c.Select(context.Background(), opt.ID)
	require.NoError(t, err)
	assert.Equal(t, personality.DefaultTable().Score(traits, opt), res.Turn.Score)
}

func TestHistoryWindow(t *testing.T) {
	c := newTestController(t, 15, testDeps())
	for i := 0; i < 4; i++ {
		_, err := c.Select(context.Background(), firstOffered(c))
		require.NoError(t, err)
	}

	text := c.Session().historyText(6)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "Player: "))
	assert.Empty(t, c.Session().historyText(0))
}

func TestPickExcludingSingleCharacter(t *testing.T) {
	r := NewCharacterRegistry(CharacterProfile{ID: "john"})
	_, err := r.PickExcluding(rand.New(rand.NewSource(1)), "john")
	assert.True(t, errors.Is(err, ErrRotationExhausted))
}

func TestConfigForSession(t *testing.T) {
	base := testConfig(99)
	a, b := base.ForSession("alpha"), base.ForSession("beta")
	assert.NotEqual(t, a.Seed, b.Seed)
	assert.NotEqual(t, base.Seed, a.Seed)
	assert.Equal(t, a.Seed, base.ForSession("alpha").Seed)
	assert.Equal(t, base.ExchangeLimit, a.ExchangeLimit)

	assert.Zero(t, testConfig(0).ForSession("alpha").Seed)

	c1, err := NewController("alpha", a, testDeps())
	require.NoError(t, err)
	c2, err := NewController("alpha", base.ForSession("alpha"), testDeps())
	require.NoError(t, err)
	assert.Equal(t, c1.Snapshot().Offered, c2.Snapshot().Offered)
	assert.Equal(t, c1.Snapshot().Character.ID, c2.Snapshot().Character.ID)
}
