package dialogue

import "fmt"

// Option is a single line the player can pick. ID is the option's identity
// and equals its index in the catalog.
type Option struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Tags TagSet `json:"-"`
}

// Line is the authoring form of an option, before it gets an ID.
type Line struct {
	Text string
	Tags []Tag
}

// Catalog is the fixed, ordered pool of dialogue options.
type Catalog struct {
	options []Option
}

// NewCatalog builds a catalog from lines. Every tag must be part of the vocabulary.
func NewCatalog(lines []Line) (*Catalog, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty dialogue catalog", ErrInvalidConfiguration)
	}
	options := make([]Option, 0, len(lines))
	for i, l := range lines {
		for _, t := range l.Tags {
			if !t.Valid() {
				return nil, fmt.Errorf("%w: line %d %q has unknown tag %q", ErrInvalidConfiguration, i, l.Text, t)
			}
		}
		options = append(options, Option{ID: i, Text: l.Text, Tags: NewTagSet(l.Tags...)})
	}
	return &Catalog{options: options}, nil
}

// Len returns the number of options.
func (c *Catalog) Len() int {
	return len(c.options)
}

// Get returns the option with the given ID.
func (c *Catalog) Get(id int) (Option, bool) {
	if id < 0 || id >= len(c.options) {
		return Option{}, false
	}
	return c.options[id], true
}

// All returns a copy of the options in catalog order.
func (c *Catalog) All() []Option {
	out := make([]Option, len(c.options))
	copy(out, c.options)
	return out
}

// DefaultLines is the reference content shipped with the game.
var DefaultLines = []Line{
	{"You have nice muscles!", []Tag{TagBodyComment, TagPositive, TagCompliment}},
	{"Let's go out sometime!", []Tag{TagInvitation, TagPositive}},
	{"You seem quite intelligent.", []Tag{TagMindComment, TagPositive, TagCompliment}},
	{"I don't like your attitude.", []Tag{TagMindComment, TagNegative, TagInsult}},
	{"How are you feeling today?", []Tag{TagQuestion, TagPositive}},
	{"You did a great job!", []Tag{TagPositive, TagEncouragement}},
	{"This is not good enough.", []Tag{TagNegative, TagInsult}},
	{"I think you can do better.", []Tag{TagPositive, TagEncouragement}},
	{"What do you think about this?", []Tag{TagQuestion, TagStatement}},
	{"You look tired.", []Tag{TagBodyComment, TagNegative}},
	{"Hey there!", []Tag{TagGreeting, TagPositive}},
	{"Sorry about earlier.", []Tag{TagApology, TagNegative}},
	{"That was hilarious!", []Tag{TagJoke, TagPositive}},
	{"Would you help me with this?", []Tag{TagRequest, TagPositive}},
	{"You always know what to say.", []Tag{TagPraise, TagPositive}},
	{"Just kidding!", []Tag{TagJoke, TagTease}},
	{"You look amazing today.", []Tag{TagBodyComment, TagCompliment, TagPositive}},
	{"Goodbye for now.", []Tag{TagFarewell, TagNegative}},
	{"Thank you so much!", []Tag{TagThanks, TagPositive}},
	{"That was a bit harsh.", []Tag{TagCriticism, TagNegative}},
	{"You make me laugh.", []Tag{TagJoke, TagPositive, TagCompliment}},
	{"Can I ask you something?", []Tag{TagQuestion, TagRequest}},
	{"You never listen!", []Tag{TagCriticism, TagNegative, TagInsult}},
	{"Let's hang out soon.", []Tag{TagInvitation, TagPositive}},
	{"You handled that well.", []Tag{TagPraise, TagPositive}},
	{"That was uncalled for.", []Tag{TagCriticism, TagNegative}},
	{"I appreciate your help.", []Tag{TagThanks, TagPositive}},
	{"You always tease me!", []Tag{TagTease, TagNegative}},
	{"I like your style.", []Tag{TagCompliment, TagBodyComment, TagPositive}},
	{"You are so funny!", []Tag{TagJoke, TagCompliment, TagPositive}},
}

// DefaultCatalog builds the catalog from DefaultLines.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLines)
	if err != nil {
		panic(err) // static content
	}
	return c
}
