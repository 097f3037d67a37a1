// Package text prepares report text for Telegram delivery: MarkdownV2
// escaping, light re-formatting of the narrative report, and chunking to the
// maximum message length.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is Telegram's per-message text limit, minus headroom for
// formatting entities.
const MaxMessageLength = 4000

var (
	mdV2Special  = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!$])`)
	numberedLine = regexp.MustCompile(`^\d+\.`)
)

// EscapeMarkdownV2 escapes all characters reserved by Telegram MarkdownV2.
func EscapeMarkdownV2(s string) string {
	return mdV2Special.ReplaceAllString(s, `\$1`)
}

// FormatReport re-formats a narrative report for MarkdownV2 delivery:
// numbered lines become bold headings with a trailing blank line, dash
// sub-items are indented, everything is escaped.
func FormatReport(text string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case numberedLine.MatchString(stripped):
			formatted = append(formatted, "*📝 "+EscapeMarkdownV2(stripped)+"*", "")
		case strings.HasPrefix(stripped, "- "):
			formatted = append(formatted, "    📌 "+EscapeMarkdownV2(stripped))
		case stripped == "":
			formatted = append(formatted, "")
		default:
			formatted = append(formatted, EscapeMarkdownV2(stripped))
		}
	}
	return strings.Join(formatted, "\n")
}

// Chunk splits s into pieces of at most size bytes, never splitting a rune.
// Telegram rejects messages above its length limit and messages carrying
// invalid UTF-8, so long reports are sent as several whole-rune messages.
func Chunk(s string, size int) []string {
	if size <= 0 || s == "" {
		return nil
	}
	var chunks []string
	for len(s) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return append(chunks, s)
}
