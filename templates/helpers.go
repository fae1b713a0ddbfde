package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
)

// MoodBadge is the label and color shown for a character's mood.
type MoodBadge struct {
	Description string
	Color       string
}

// MoodStatus returns the badge for a mood.
func MoodStatus(m personality.Mood) MoodBadge {
	switch m {
	case personality.MoodPositive:
		return MoodBadge{"Pleased", "#a6e22e"} // Lime Green
	case personality.MoodNegative:
		return MoodBadge{"Annoyed", "#f92672"} // Pink/Red
	default:
		return MoodBadge{"Indifferent", "#e6db74"} // Yellow
	}
}

// SpriteKey names the portrait for a character in a mood, e.g. "rex_happy".
func SpriteKey(characterID string, m personality.Mood) string {
	switch m {
	case personality.MoodPositive:
		return characterID + "_happy"
	case personality.MoodNegative:
		return characterID + "_unhappy"
	default:
		return characterID + "_neutral"
	}
}

// SpritePath is the static URL of a character's portrait.
func SpritePath(characterID string, m personality.Mood) string {
	return "/static/sprites/" + SpriteKey(characterID, m) + ".png"
}

// FormatTags creates a string from an option's tags.
func FormatTags(tags dialogue.TagSet) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := tags.Sorted()
	out := make([]string, len(sorted))
	for i, t := range sorted {
		out[i] = string(t)
	}
	return strings.Join(out, ", ")
}

// tension maps exchange progress onto 0..100.
func tension(count, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return min(count*100/limit, 100)
}

// SceneStyle colors the mood badge and darkens the scene's edges as the
// conversation nears its exchange limit. The static rules live in style.css.
func SceneStyle(count, limit int, m personality.Mood) string {
	t := tension(count, limit)
	return fmt.Sprintf(`<style>#scene::before { box-shadow: inset 0 0 %dpx %dpx rgba(0,0,0,%.2f); } #scene .mood { color: %s; }</style>`,
		t/4, t/2, float64(t)/200, MoodStatus(m).Color)
}

func vals(key string, value any) string {
	b, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return "{}"
	}
	return string(b)
}

// OptionVals is the hx-vals payload that selects an option.
func OptionVals(id int) string { return vals("option", id) }

// LocationVals is the hx-vals payload that chooses a location.
func LocationVals(id string) string { return vals("location", id) }
