package personality

// Mood is the visible emotional bucket of a character.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral" // starting mood
	MoodNegative Mood = "negative"
)

// DeriveMood buckets a reaction score.
func DeriveMood(score int) Mood {
	switch {
	case score > 0:
		return MoodPositive
	case score < 0:
		return MoodNegative
	default:
		return MoodNeutral
	}
}

// Rank orders moods from worst to best: -1, 0, 1.
func (m Mood) Rank() int {
	switch m {
	case MoodPositive:
		return 1
	case MoodNegative:
		return -1
	default:
		return 0
	}
}

// StockReply returns the canned line for a mood. It is used when no text
// generator is configured or when the generator fails.
func StockReply(m Mood) string {
	switch m {
	case MoodPositive:
		return "Thanks!"
	case MoodNegative:
		return "Get lost!"
	default:
		return "I feel neutral about this."
	}
}
