package inference

import "strings"

// Instruction wrapper markers.
const (
	InstOpen  = "[INST]"
	InstClose = "[/INST]"
)

// FormatPrompt wraps a raw question in the instruction template. There is no
// history and no system prompt.
func FormatPrompt(prompt string) string {
	return InstOpen + " " + prompt + " " + InstClose
}

// Clean strips instruction markers and surrounding whitespace from raw
// model output.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, InstOpen, "")
	s = strings.ReplaceAll(s, InstClose, "")
	return strings.TrimSpace(s)
}
