// Package consolefmt formats feedback for the line-oriented console
// collaborator, adapted from the teacher's pkg/chat: the same
// Colored/Text/Translatef shape, but targeting ANSI escape codes instead of
// Minecraft JSON chat components, since this collaborator is a terminal, not
// a client renderer.
package consolefmt

import "fmt"

var codes = map[string]string{
	"red":    "31",
	"green":  "32",
	"yellow": "33",
	"blue":   "34",
	"gray":   "90",
	"white":  "37",
	"cyan":   "36",
}

// Colored wraps text in the ANSI escape sequence for color, falling back to
// plain text for an unrecognized color name.
func Colored(text, color string) string {
	code, ok := codes[color]
	if !ok {
		return text
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", code, text)
}

// Text returns text unstyled, mirroring chat.Text for callers that build up
// a message piecewise.
func Text(text string) string {
	return text
}

// Translatef is fmt.Sprintf with the teacher's naming kept, for command
// handlers that already think in terms of a "translate plus args" call.
func Translatef(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// OK formats a successful command result, gray like the teacher's routine
// acknowledgements (teleport, gamemode change).
func OK(text string) string {
	return Colored(text, "gray")
}

// Err formats a rejected intent's feedback, red like the teacher's "Unknown
// command"/usage messages.
func Err(text string) string {
	return Colored(text, "red")
}
