package engine

import (
	"fmt"
	"strings"

	"digest-backend/internal/content/discovery"
	"digest-backend/internal/schedule/domain"
)

// ContextTag tells the model how the content was gathered so the summary can
// acknowledge stale or sparse input.
type ContextTag string

const (
	ContextNormal             ContextTag = "normal"
	ContextExtendedWindow     ContextTag = "extended-window"
	ContextMostRecentFallback ContextTag = "most-recent-fallback"
	ContextManual             ContextTag = "manual"
	ContextNoContent          ContextTag = "no-content"
)

// NoContentLabel starts every summary produced for an empty workspace.
const NoContentLabel = "📭 No recent content"

var styleInstructions = map[domain.SummaryStyle]string{
	domain.StyleExecutive: "Write an executive briefing: lead with the 2-3 most important developments, then short supporting points.",
	domain.StyleDetailed:  "Write a detailed digest grouped by document or topic, keeping concrete facts, names and dates.",
	domain.StyleBullet:    "Write the digest as concise bullet points only, one idea per bullet.",
}

var lengthInstructions = map[domain.SummaryLength]string{
	domain.LengthShort:  "Keep it under 150 words.",
	domain.LengthMedium: "Keep it between 150 and 300 words.",
	domain.LengthLong:   "Keep it between 300 and 500 words.",
}

func contextNote(tag ContextTag, windowDays int) string {
	switch tag {
	case ContextExtendedWindow:
		return fmt.Sprintf("Nothing was edited in the usual window, so these documents come from the last %d days. Mention briefly that activity has been quiet.", discovery.ExtendedWindowDays)
	case ContextMostRecentFallback:
		return "Nothing was edited recently, so these are simply the most recently edited documents. Say that this is older content before summarizing it."
	case ContextManual:
		return "The owner requested this digest manually, outside the regular schedule."
	case ContextNoContent:
		return fmt.Sprintf("The workspace returned no documents. Start with the line %q, then one or two sentences suggesting the owner add or update pages.", NoContentLabel)
	default:
		return fmt.Sprintf("These documents were edited within the last %d days.", windowDays)
	}
}

// buildPrompt folds the summary configuration and context tag into one
// instruction for the model.
func buildPrompt(content string, cfg domain.SummaryConfig, tag ContextTag) string {
	style, ok := styleInstructions[cfg.Style]
	if !ok {
		style = styleInstructions[domain.StyleExecutive]
	}
	length, ok := lengthInstructions[cfg.Length]
	if !ok {
		length = lengthInstructions[domain.LengthMedium]
	}

	var rules []string
	rules = append(rules, style, length)
	if len(cfg.FocusTags) > 0 {
		rules = append(rules, fmt.Sprintf("Give priority to anything related to: %s.", strings.Join(cfg.FocusTags, ", ")))
	}
	if cfg.IncludeActionItems {
		rules = append(rules, `End with a section titled "Action items" listing open to-dos and follow-ups found in the content.`)
	}
	if cfg.IncludePriority {
		rules = append(rules, "Mark each item as [High], [Medium] or [Low] priority.")
	}
	rules = append(rules,
		"Use plain text only: no Markdown, no HTML, no tables.",
		"Do not invent facts that are not in the content.",
	)

	var sb strings.Builder
	sb.WriteString("You are an assistant that writes a periodic digest of a user's workspace notes.\n\n")
	sb.WriteString("CONTEXT: ")
	sb.WriteString(contextNote(tag, cfg.WindowDays()))
	sb.WriteString("\n\nRULES:\n")
	for i, r := range rules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r)
	}
	sb.WriteString("\nCONTENT:\n")
	if strings.TrimSpace(content) == "" {
		sb.WriteString("(no documents)\n")
	} else {
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nDIGEST:")
	return sb.String()
}
