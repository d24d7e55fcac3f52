// Package formatter renders a summary as a Telegram HTML message. Everything
// here is pure: the same summary and timestamp always give the same bytes.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"digest-backend/pkg/telegram"
)

const (
	header          = "📋 <b>Workspace Digest</b>\n"
	footer          = "\n\n<i>Sent by your scheduled digest. Manage schedules in the app.</i>"
	truncatedMarker = "\n\n<i>… digest truncated</i>"
)

// entityPattern matches the entities the Bot API accepts in HTML mode.
var entityPattern = regexp.MustCompile(`^&(?:amp|lt|gt|quot|#[0-9]+|#[xX][0-9a-fA-F]+);`)

// Format builds the message for summary generated at at.
func Format(summary string, at time.Time) string {
	at = at.UTC()
	head := header + fmt.Sprintf("<i>Generated %s at %s UTC</i>\n\n",
		at.Format("Monday, January 2, 2006"), at.Format("15:04"))

	body := Escape(strings.TrimSpace(summary))
	budget := telegram.MaxMessageLength - UTF16Len(head) - UTF16Len(footer)
	if UTF16Len(body) > budget {
		body = Truncate(body, budget-UTF16Len(truncatedMarker)) + truncatedMarker
	}
	return head + body + footer
}

// Escape escapes HTML-significant characters. An ampersand that already
// starts a supported entity is left alone, so Escape(Escape(s)) == Escape(s).
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '&':
			if m := entityPattern.FindString(s[i:]); m != "" {
				sb.WriteString(m)
				i += len(m)
				continue
			}
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String()
}

// Truncate cuts escaped text to at most limit UTF-16 units. Entities and
// surrogate pairs are kept whole.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	used := 0
	for i := 0; i < len(s); {
		token := nextToken(s[i:])
		n := UTF16Len(token)
		if used+n > limit {
			return s[:i]
		}
		used += n
		i += len(token)
	}
	return s
}

func nextToken(s string) string {
	if s[0] == '&' {
		if m := entityPattern.FindString(s); m != "" {
			return m
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// UTF16Len counts s in UTF-16 code units, the unit Telegram limits use.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
