package prompts

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every reply. Backends send it as the system instruction.
const SystemPrompt = `You are a storyteller roleplaying a single character in a dark medieval fantasy town. You are talking with a silent, blank-slate adventurer who can only say short, pre-written lines.

The world is bleak, twisted, and full of unreliable people. You must respond **in character**, using no more than 1-3 sentences.

Do not suggest options. Do not describe the adventurer. Do not explain. Do not narrate your own feelings in brackets. Just react naturally based on your personality and the current scene.`

// ScenePrompt is filled with the character, location, history and latest line.
const ScenePrompt = `### Who You Are:
%s

### Where You Are:
%s

### Recent Scene History:
%s

### Adventurer's Latest Line:
%s

React now, in character, in 1-3 sentences.`

// noHistory stands in for an empty history so the section never renders blank.
const noHistory = "(This is the start of the conversation.)"

// Request carries everything the text generator gets to see about a turn.
type Request struct {
	TraitDescription    string
	LocationDescription string
	HistoryText         string
	PlayerMessage       string
}

// Build renders the scene part of the prompt.
func Build(req Request) string {
	history := strings.TrimSpace(req.HistoryText)
	if history == "" {
		history = noHistory
	}
	return fmt.Sprintf(ScenePrompt,
		strings.TrimSpace(req.TraitDescription),
		strings.TrimSpace(req.LocationDescription),
		history,
		strings.TrimSpace(req.PlayerMessage),
	)
}
