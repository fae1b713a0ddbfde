// Package personality scores how a character's traits react to a dialogue
// line and turns that score into a mood.
package personality

import (
	"strings"

	"dialogue_ai/dialogue"
)

// Reference traits.
const (
	TraitShy          = "shy"
	TraitWarrior      = "warrior"
	TraitIntellectual = "intellectual"
	TraitRomantic     = "romantic"
	TraitSarcastic    = "sarcastic"
	TraitFriendly     = "friendly"
	TraitSerious      = "serious"
)

// Policy lists the tags a trait approves and disapproves of.
type Policy struct {
	Trait    string
	Positive dialogue.TagSet
	Negative dialogue.TagSet
	// Persona is prose handed to the text generator.
	Persona string
}

// Table maps a trait identifier to its policy. It is read-only once built.
type Table map[string]Policy

// NewTable indexes policies by trait.
func NewTable(policies ...Policy) Table {
	t := make(Table, len(policies))
	for _, p := range policies {
		t[p.Trait] = p
	}
	return t
}

// Lookup returns the policy for a trait.
func (t Table) Lookup(trait string) (Policy, bool) {
	p, ok := t[trait]
	return p, ok
}

// Unknown returns the traits that have no policy, in input order, without duplicates.
func (t Table) Unknown(traits []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tr := range traits {
		if _, ok := t[tr]; ok || seen[tr] {
			continue
		}
		seen[tr] = true
		out = append(out, tr)
	}
	return out
}

// Describe joins the persona prose of the given traits. Unknown traits and
// repeats are skipped.
func (t Table) Describe(traits []string) string {
	var parts []string
	seen := map[string]bool{}
	for _, tr := range traits {
		p, ok := t[tr]
		if !ok || seen[tr] || p.Persona == "" {
			continue
		}
		seen[tr] = true
		parts = append(parts, p.Persona)
	}
	return strings.Join(parts, " ")
}

// DefaultTable is the reference trait table.
func DefaultTable() Table {
	set := dialogue.NewTagSet
	return NewTable(
		Policy{
			Trait:    TraitShy,
			Positive: set(dialogue.TagCompliment, dialogue.TagPraise, dialogue.TagGreeting),
			Negative: set(dialogue.TagInvitation, dialogue.TagInsult, dialogue.TagTease, dialogue.TagFlirt),
			Persona:  "You are shy, reserved, and easily embarrassed. You react positively to gentle compliments and kindness, but negatively to teasing or bold advances.",
		},
		Policy{
			Trait:    TraitWarrior,
			Positive: set(dialogue.TagBodyComment, dialogue.TagPositive, dialogue.TagEncouragement, dialogue.TagPraise, dialogue.TagRequest),
			Negative: set(dialogue.TagInsult, dialogue.TagNegative, dialogue.TagCriticism),
			Persona:  "You are a warrior, tough, confident, and focused on combat. You react positively to praise and encouragement, but negatively to weakness or criticism.",
		},
		Policy{
			Trait:    TraitIntellectual,
			Positive: set(dialogue.TagMindComment, dialogue.TagQuestion, dialogue.TagPraise, dialogue.TagStatement),
			Negative: set(dialogue.TagInsult, dialogue.TagBodyComment, dialogue.TagTease),
			Persona:  "You are an intellectual, curious and thoughtful. You appreciate deep questions and praise for your mind, but dislike shallow comments or insults.",
		},
		Policy{
			Trait:    TraitRomantic,
			Positive: set(dialogue.TagFlirt, dialogue.TagCompliment, dialogue.TagInvitation, dialogue.TagPraise),
			Negative: set(dialogue.TagInsult, dialogue.TagCriticism, dialogue.TagTease),
			Persona:  "You are romantic, affectionate, and enjoy flirtation. You react positively to compliments and invitations, but negatively to criticism or teasing.",
		},
		Policy{
			Trait:    TraitSarcastic,
			Positive: set(dialogue.TagJoke, dialogue.TagTease, dialogue.TagCriticism),
			Negative: set(dialogue.TagApology, dialogue.TagPraise, dialogue.TagFarewell),
			Persona:  "You are sarcastic, witty, and often make jokes. You react positively to teasing and jokes, but negatively to praise or farewells.",
		},
		Policy{
			Trait:    TraitFriendly,
			Positive: set(dialogue.TagGreeting, dialogue.TagPraise, dialogue.TagThanks, dialogue.TagEncouragement),
			Negative: set(dialogue.TagInsult, dialogue.TagCriticism),
			Persona:  "You are friendly, warm, and supportive. You react positively to greetings, praise, and encouragement, but negatively to insults or criticism.",
		},
		Policy{
			Trait:    TraitSerious,
			Positive: set(dialogue.TagStatement, dialogue.TagRequest, dialogue.TagApology),
			Negative: set(dialogue.TagJoke, dialogue.TagTease, dialogue.TagFlirt),
			Persona:  "You are serious, focused, and dislike jokes. You react positively to statements and requests, but negatively to jokes or flirtation.",
		},
	)
}
