// Package prompt builds the system prompts and message lists sent to the
// completion API.
package prompt

import (
	"strings"

	"mockery-backend/internal/models"
)

// HistoryLimit is the number of most recent conversation turns forwarded
// upstream. Older turns are dropped.
const HistoryLimit = 10

// Mode selects a system prompt template.
type Mode int

const (
	// ModePatch asks for a JSON batch of DOM operations.
	ModePatch Mode = iota
	// ModeFull asks for a complete document, streamed.
	ModeFull
	// ModeGenerate asks for a complete document in one blocking call.
	ModeGenerate
)

func (m Mode) String() string {
	switch m {
	case ModePatch:
		return "patch"
	case ModeFull:
		return "full"
	default:
		return "generate"
	}
}

// System returns the system prompt for mode with the current page source
// embedded.
func System(mode Mode, currentHTML string) string {
	switch mode {
	case ModePatch:
		return patchPrompt(currentHTML)
	case ModeFull:
		return fullPrompt(currentHTML)
	default:
		return generatePrompt(currentHTML)
	}
}

func patchPrompt(currentHTML string) string {
	var b strings.Builder

	b.WriteString("You are an expert at modifying HTML. You analyse the page below and answer ONLY with change instructions in JSON.\n\n")

	b.WriteString("CURRENT PAGE HTML:\n```html\n")
	b.WriteString(currentHTML)
	b.WriteString("\n```\n\n")

	b.WriteString(`INSTRUCTIONS:
1. Analyse the requested change.
2. Return ONLY JSON (no markdown, no code fences, no commentary).
3. Response format:

{
  "changes": [
    {
      "action": "replace|insert|remove|setAttribute|addClass|removeClass|setStyle",
      "selector": "CSS selector of the target element",
      "content": "new HTML content (replace/insert)",
      "attribute": "attribute name (setAttribute) or CSS property (setStyle)",
      "value": "value (setAttribute/setStyle)",
      "class": "class name (addClass/removeClass)",
      "position": "before|after|prepend|append (insert)"
    }
  ],
  "summary": "Short description of what changed, in Polish"
}

AVAILABLE ACTIONS:
- replace: replace the element's innerHTML
- insert: insert a new element (position: before/after/prepend/append)
- remove: remove the element
- setAttribute: set an attribute (e.g. src, href)
- addClass: add a CSS class
- removeClass: remove a CSS class
- setStyle: set one inline style property

EXAMPLE for "zmień tytuł na Hello World":
{"changes":[{"action":"replace","selector":"h1","content":"Hello World"}],"summary":"Zmieniono tytuł na Hello World"}

IMPORTANT:
- Use precise CSS selectors.
- When several similar elements exist, disambiguate with :nth-child() or :nth-of-type() instead of a shared class.
- Keep the Fluent Design style (colors #0078d4, #323130, #faf9f8 and so on).
- Return CLEAN JSON without any extra characters.
`)

	return b.String()
}

func fullPrompt(currentHTML string) string {
	var b strings.Builder

	b.WriteString("You are an expert at building HTML pages in the Microsoft Fluent Design style using Tailwind CSS.\n\n")
	b.WriteString(houseStyleShort)
	b.WriteString("\n")

	b.WriteString("CURRENT PAGE:\n```html\n")
	b.WriteString(currentHTML)
	b.WriteString("\n```\n\n")

	b.WriteString(`INSTRUCTIONS:
- Return ONLY HTML code (no markdown, no ` + "```html" + `, no explanations)
- A complete page from <!DOCTYPE html> to </html>
- Keep the Tailwind configuration in <head>
- Use inline SVG for icons
`)

	return b.String()
}

func generatePrompt(currentHTML string) string {
	var b strings.Builder

	b.WriteString("You are an expert at building HTML pages in the Microsoft Fluent Design style using Tailwind CSS.\n\n")
	b.WriteString(houseStyle)
	b.WriteString("\n")

	b.WriteString(`IMPORTANT:
- Return ONLY HTML code, with no markdown, no ` + "```html" + ` fences and no explanations
- The code must be a complete page (<!DOCTYPE html> to </html>)
- Keep the existing Tailwind configuration in <head>
- Stay consistent with the page's current style
- The page must work on its own inside an iframe
- Write all page copy in Polish
- Do NOT use external images; use SVG or gradient placeholders
- Use inline SVG for icons

`)

	b.WriteString("CURRENT PAGE CONTENT:\n```html\n")
	b.WriteString(currentHTML)
	b.WriteString("\n```\n\n")
	b.WriteString("Modify the page according to the user's instructions while keeping the Fluent Design style.\n")

	return b.String()
}

// BuildMessages trims history to the last HistoryLimit turns, normalises
// roles and appends message as the final user turn. Entries without a role
// or content are dropped.
func BuildMessages(history []models.ChatMessage, message string) []models.ChatMessage {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	out := make([]models.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Role == "" || m.Content == "" {
			continue
		}
		role := models.RoleUser
		if m.Role == models.RoleAssistant {
			role = models.RoleAssistant
		}
		out = append(out, models.ChatMessage{Role: role, Content: m.Content})
	}

	return append(out, models.ChatMessage{Role: models.RoleUser, Content: message})
}
