package personality

import "dialogue_ai/dialogue"

// Score computes the reaction of a character with the given traits to opt.
//
// Each trait is evaluated on its own: +1 if any of the option's tags is in
// the trait's positive set, and separately -1 if any is in its negative set,
// so one trait can cancel itself out. A trait listed twice counts twice.
// Traits missing from the table contribute nothing.
func (t Table) Score(traits []string, opt dialogue.Option) int {
	score := 0
	for _, tr := range traits {
		p, ok := t[tr]
		if !ok {
			continue
		}
		if opt.Tags.Intersects(p.Positive) {
			score++
		}
		if opt.Tags.Intersects(p.Negative) {
			score--
		}
	}
	return score
}

// Reaction bundles a score with the mood it produces.
type Reaction struct {
	Score int  `json:"score"`
	Mood  Mood `json:"mood"`
}

// React scores opt and derives the mood in one step.
func (t Table) React(traits []string, opt dialogue.Option) Reaction {
	s := t.Score(traits, opt)
	return Reaction{Score: s, Mood: DeriveMood(s)}
}
