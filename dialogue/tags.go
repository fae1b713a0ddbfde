// Package dialogue holds the tagged lines a player can say and the policy for
// offering a handful of them each turn.
package dialogue

import "sort"

// Tag describes the intent of a dialogue line.
type Tag string

const (
	TagBodyComment   Tag = "body comments"
	TagMindComment   Tag = "mind comments"
	TagPositive      Tag = "positive"
	TagNegative      Tag = "negative"
	TagInvitation    Tag = "invitation"
	TagCompliment    Tag = "compliment"
	TagInsult        Tag = "insult"
	TagQuestion      Tag = "question"
	TagStatement     Tag = "statement"
	TagEncouragement Tag = "encouragement"
	TagJoke          Tag = "joke"
	TagFlirt         Tag = "flirt"
	TagApology       Tag = "apology"
	TagPraise        Tag = "praise"
	TagCriticism     Tag = "criticism"
	TagGreeting      Tag = "greeting"
	TagFarewell      Tag = "farewell"
	TagThanks        Tag = "thanks"
	TagRequest       Tag = "request"
	TagTease         Tag = "tease"
)

var vocabulary = []Tag{
	TagBodyComment, TagMindComment, TagPositive, TagNegative, TagInvitation,
	TagCompliment, TagInsult, TagQuestion, TagStatement, TagEncouragement,
	TagJoke, TagFlirt, TagApology, TagPraise, TagCriticism,
	TagGreeting, TagFarewell, TagThanks, TagRequest, TagTease,
}

// Vocabulary returns every known tag in declaration order.
func Vocabulary() []Tag {
	out := make([]Tag, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Valid reports whether t belongs to the closed vocabulary.
func (t Tag) Valid() bool {
	for _, v := range vocabulary {
		if v == t {
			return true
		}
	}
	return false
}

// TagSet is an unordered set of tags. Sets are built once and only read afterwards.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from the given tags. Duplicates collapse.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is in the set.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Intersects reports whether the two sets share at least one tag.
func (s TagSet) Intersects(other TagSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for t := range small {
		if large.Has(t) {
			return true
		}
	}
	return false
}

// Sorted returns the tags in lexical order, for display and stable output.
func (s TagSet) Sorted() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
