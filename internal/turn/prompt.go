package turn

import (
	"fmt"
	"strings"
)

// languageNames maps detected codes to the instruction wording the
// provider follows most reliably.
var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"es": "Spanish",
	"de": "German",
	"fr": "French",
	"ja": "Japanese",
	"ko": "Korean",
	"ru": "Russian",
}

// systemPrompt assembles the per-turn system message from the detected
// language, the user's presentation settings, and their memory facts.
func systemPrompt(lang string, settings Settings, memory []string) string {
	var sb strings.Builder

	sb.WriteString("You are the LifeDesk assistant. You help the user manage their personal workspace: calendar, kanban board, notes, and journal.\n")
	sb.WriteString("Use the provided tools to read or change workspace data. Call tools only when the request needs workspace data; answer directly otherwise.\n")
	sb.WriteString("When you are done, reply with a short, clear answer. Do not invent workspace content you did not read through a tool.\n")

	name := languageNames[lang]
	if name == "" {
		name = lang
	}
	fmt.Fprintf(&sb, "Always answer in %s.\n", name)

	if settings.Nickname != "" {
		fmt.Fprintf(&sb, "Address the user as %s.\n", settings.Nickname)
	}
	if settings.Tone != "" {
		fmt.Fprintf(&sb, "Keep a %s tone.\n", settings.Tone)
	}

	if len(memory) > 0 {
		sb.WriteString("\nKnown facts about the user:\n")
		for _, fact := range memory {
			fmt.Fprintf(&sb, "- %s\n", fact)
		}
	}

	return sb.String()
}

// userContent merges the user message with the workspace context fragment.
func userContent(message, fragment string) string {
	if fragment == "" {
		return message
	}
	return message + "\n\n[Workspace context]\n" + fragment
}
