// Package extractor flattens workspace block trees into plain text for the
// summarization prompt.
package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"digest-backend/pkg/notion"

	"go.uber.org/zap"
)

const (
	// MaxContentChars caps the text accumulated across all documents.
	MaxContentChars = 15000
	// TruncationMarker is appended when documents were cut to fit the cap.
	TruncationMarker = "\n\n[... content truncated to fit the summary budget ...]"

	indentUnit = "  "
)

// Content is the extraction result for one run.
type Content struct {
	Text               string
	DocumentsProcessed int
	Truncated          bool
}

// Extractor renders block trees. It never fails: a node that cannot be
// rendered is logged and skipped.
type Extractor struct {
	log *zap.Logger
	// beforeRender runs ahead of each node when set.
	beforeRender func(b notion.Block)
}

// New creates an Extractor.
func New(log *zap.Logger) *Extractor {
	return &Extractor{log: log.Named("extractor")}
}

// Extract renders pages in order until MaxContentChars is reached.
func (e *Extractor) Extract(pages []notion.Page) Content {
	var (
		sb  strings.Builder
		out Content
	)

	for _, page := range pages {
		doc := e.ExtractDocument(page)
		if sb.Len() > 0 {
			doc = "\n\n" + doc
		}

		remaining := MaxContentChars - utf8.RuneCountInString(sb.String())
		if utf8.RuneCountInString(doc) > remaining {
			if remaining > 0 {
				sb.WriteString(truncateRunes(doc, remaining))
				out.DocumentsProcessed++
			}
			out.Truncated = true
			break
		}
		sb.WriteString(doc)
		out.DocumentsProcessed++
	}

	out.Text = sb.String()
	if out.Truncated {
		out.Text += TruncationMarker
		e.log.Info("Content truncated",
			zap.Int("documents_processed", out.DocumentsProcessed),
			zap.Int("documents_total", len(pages)))
	}
	return out
}

// ExtractDocument renders one page with a title and last-edited header.
func (e *Extractor) ExtractDocument(page notion.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n", page.Title)
	if !page.LastEditedTime.IsZero() {
		fmt.Fprintf(&sb, "Last edited: %s\n", page.LastEditedTime.UTC().Format("2006-01-02 15:04 UTC"))
	}
	sb.WriteString("\n")

	for _, line := range e.renderBlocks(page.ID, page.Blocks, 0) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (e *Extractor) renderBlocks(pageID string, blocks []notion.Block, depth int) []string {
	var lines []string
	number := 0
	for _, b := range blocks {
		if b.Kind == notion.KindNumbered {
			number++
		} else {
			number = 0
		}
		lines = append(lines, e.safeRender(pageID, b, depth, number)...)
	}
	return lines
}

// safeRender isolates a single node: a panic while rendering it is logged
// and the node contributes nothing.
func (e *Extractor) safeRender(pageID string, b notion.Block, depth, number int) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("Skipping block that failed to render",
				zap.String("page_id", pageID),
				zap.String("block_id", b.ID),
				zap.String("type", b.RawType),
				zap.Any("panic", r))
			lines = nil
		}
	}()
	if e.beforeRender != nil {
		e.beforeRender(b)
	}
	return e.render(pageID, b, depth, number)
}

func (e *Extractor) render(pageID string, b notion.Block, depth, number int) []string {
	indent := strings.Repeat(indentUnit, depth)
	text := strings.TrimSpace(b.PlainText())

	var lines []string
	switch b.Kind {
	case notion.KindHeading1:
		lines = nonEmpty(indent+"# ", text)
	case notion.KindHeading2:
		lines = nonEmpty(indent+"## ", text)
	case notion.KindHeading3:
		lines = nonEmpty(indent+"### ", text)
	case notion.KindParagraph:
		lines = nonEmpty(indent, text)
	case notion.KindBulleted:
		lines = nonEmpty(indent+"• ", text)
	case notion.KindNumbered:
		lines = nonEmpty(fmt.Sprintf("%s%d. ", indent, number), text)
	case notion.KindToDo:
		box := "☐"
		if b.Checked {
			box = "☑"
		}
		lines = nonEmpty(indent+box+" ", text)
	case notion.KindQuote:
		lines = nonEmpty(indent+"> ", text)
	case notion.KindCode:
		if text != "" {
			lines = []string{indent + "```" + b.Language}
			for _, l := range strings.Split(text, "\n") {
				lines = append(lines, indent+l)
			}
			lines = append(lines, indent+"```")
		}
	case notion.KindToggle:
		lines = nonEmpty(indent+"▸ ", text)
	case notion.KindCallout:
		lines = nonEmpty(indent+b.Icon+" ", text)
	case notion.KindTable:
		// Rows arrive as children; rendered below.
	case notion.KindTableRow:
		cells := make([]string, 0, len(b.Cells))
		for _, c := range b.Cells {
			cells = append(cells, strings.TrimSpace(notion.JoinRichText(c)))
		}
		if row := strings.Join(cells, " | "); strings.Trim(row, " |") != "" {
			lines = []string{indent + row}
		}
	case notion.KindDivider:
		lines = []string{indent + "---"}
	case notion.KindUnknown:
		lines = nonEmpty(indent, text)
	default:
		// A Kind outside the union is a decoding bug; keep any text.
		e.log.Debug("Unexpected block kind", zap.String("page_id", pageID), zap.String("kind", string(b.Kind)))
		lines = nonEmpty(indent, text)
	}

	if len(b.Children) > 0 {
		childDepth := depth + 1
		if b.Kind == notion.KindTable {
			childDepth = depth
		}
		lines = append(lines, e.renderBlocks(pageID, b.Children, childDepth)...)
	}
	return lines
}

func nonEmpty(prefix, text string) []string {
	if text == "" {
		return nil
	}
	if !strings.Contains(text, "\n") {
		return []string{prefix + text}
	}
	// Keep continuation lines aligned under the prefix.
	pad := strings.Repeat(" ", utf8.RuneCountInString(prefix))
	parts := strings.Split(text, "\n")
	lines := []string{prefix + parts[0]}
	for _, p := range parts[1:] {
		lines = append(lines, pad+p)
	}
	return lines
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
