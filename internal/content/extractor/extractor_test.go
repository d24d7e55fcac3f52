package extractor

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"digest-backend/pkg/notion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func rt(s string) []notion.RichText { return []notion.RichText{{PlainText: s}} }

func block(kind notion.BlockKind, text string) notion.Block {
	return notion.Block{ID: string(kind), Kind: kind, RawType: string(kind), Text: rt(text)}
}

func TestExtractDocument_AllKinds(t *testing.T) {
	page := notion.Page{
		ID:             "p1",
		Title:          "Sprint 42",
		LastEditedTime: time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC),
		Blocks: []notion.Block{
			block(notion.KindHeading1, "Goals"),
			block(notion.KindHeading2, "Backend"),
			block(notion.KindHeading3, "API"),
			block(notion.KindParagraph, "Ship the digest."),
			block(notion.KindBulleted, "retry budget"),
			block(notion.KindNumbered, "first"),
			block(notion.KindNumbered, "second"),
			{Kind: notion.KindToDo, Text: rt("write tests"), Checked: true},
			{Kind: notion.KindToDo, Text: rt("deploy")},
			block(notion.KindQuote, "Make it work"),
			{Kind: notion.KindCode, Text: rt("go test ./..."), Language: "bash"},
			{Kind: notion.KindToggle, Text: rt("Details"), Children: []notion.Block{block(notion.KindParagraph, "hidden")}},
			{Kind: notion.KindCallout, Text: rt("Freeze on Friday"), Icon: "⚠️"},
			{Kind: notion.KindTable, Children: []notion.Block{
				{Kind: notion.KindTableRow, Cells: [][]notion.RichText{rt("Owner"), rt("Task")}},
				{Kind: notion.KindTableRow, Cells: [][]notion.RichText{rt("Ana"), rt("Review")}},
			}},
			{Kind: notion.KindDivider},
			{Kind: notion.KindUnknown, RawType: "synced_block", Text: rt("mirrored text")},
		},
	}

	text := New(zap.NewNop()).ExtractDocument(page)

	for _, want := range []string{
		"## Sprint 42",
		"Last edited: 2026-10-19 07:30 UTC",
		"# Goals", "## Backend", "### API",
		"Ship the digest.",
		"• retry budget",
		"1. first", "2. second",
		"☑ write tests", "☐ deploy",
		"> Make it work",
		"```bash\ngo test ./...\n```",
		"▸ Details\n  hidden",
		"⚠️ Freeze on Friday",
		"Owner | Task\nAna | Review",
		"---",
		"mirrored text",
	} {
		assert.Contains(t, text, want)
	}
}

func TestExtractDocument_NestedToggles(t *testing.T) {
	deep := block(notion.KindParagraph, "bottom")
	for i := 0; i < 5; i++ {
		deep = notion.Block{Kind: notion.KindToggle, Text: rt("level"), Children: []notion.Block{deep}}
	}
	text := New(zap.NewNop()).ExtractDocument(notion.Page{Title: "Deep", Blocks: []notion.Block{deep}})
	assert.Contains(t, text, strings.Repeat(indentUnit, 5)+"bottom")
}

func TestExtractDocument_RecoversFromNodePanic(t *testing.T) {
	e := New(zap.NewNop())
	e.beforeRender = func(b notion.Block) {
		if b.ID == "bad" {
			panic("corrupt node")
		}
	}

	page := notion.Page{Title: "Partial", Blocks: []notion.Block{
		{ID: "ok-1", Kind: notion.KindParagraph, Text: rt("before")},
		{ID: "bad", Kind: notion.KindParagraph, Text: rt("boom")},
		{ID: "ok-2", Kind: notion.KindParagraph, Text: rt("after")},
	}}

	var text string
	require.NotPanics(t, func() { text = e.ExtractDocument(page) })
	assert.Contains(t, text, "before")
	assert.Contains(t, text, "after")
	assert.NotContains(t, text, "boom")
}

func TestExtractDocument_MonotonicInNonEmptyNodes(t *testing.T) {
	e := New(zap.NewNop())
	kinds := []notion.BlockKind{
		notion.KindParagraph, notion.KindNumbered, notion.KindToDo, notion.KindUnknown,
		notion.KindCallout, notion.KindQuote, notion.KindBulleted, notion.KindHeading2,
	}

	page := notion.Page{Title: "Grow"}
	prev := len(e.ExtractDocument(page))
	for i := 0; i < 40; i++ {
		page.Blocks = append(page.Blocks, block(kinds[i%len(kinds)], "x"))
		cur := len(e.ExtractDocument(page))
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestExtract_EmptyAndUnknownWithoutText(t *testing.T) {
	e := New(zap.NewNop())

	out := e.Extract(nil)
	assert.Equal(t, "", out.Text)
	assert.Zero(t, out.DocumentsProcessed)

	out = e.Extract([]notion.Page{{Title: "Blank", Blocks: []notion.Block{{Kind: notion.KindUnknown, RawType: "image"}}}})
	assert.Equal(t, "## Blank", out.Text)
	assert.Equal(t, 1, out.DocumentsProcessed)
}

func TestExtract_CapsTotalLength(t *testing.T) {
	long := strings.Repeat("word ", 2000) // 10,000 chars per document
	pages := []notion.Page{
		{Title: "One", Blocks: []notion.Block{block(notion.KindParagraph, long)}},
		{Title: "Two", Blocks: []notion.Block{block(notion.KindParagraph, long)}},
		{Title: "Three", Blocks: []notion.Block{block(notion.KindParagraph, long)}},
	}

	out := New(zap.NewNop()).Extract(pages)
	assert.True(t, out.Truncated)
	assert.Equal(t, 2, out.DocumentsProcessed)
	assert.True(t, strings.HasSuffix(out.Text, TruncationMarker))
	assert.Equal(t, MaxContentChars+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(out.Text))
	assert.NotContains(t, out.Text, "## Three")
}
