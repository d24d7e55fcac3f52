package notion

import (
	"encoding/json"
	"strings"
)

// BlockKind is the discriminator of the Block union.
type BlockKind string

const (
	KindHeading1  BlockKind = "heading_1"
	KindHeading2  BlockKind = "heading_2"
	KindHeading3  BlockKind = "heading_3"
	KindParagraph BlockKind = "paragraph"
	KindBulleted  BlockKind = "bulleted_list_item"
	KindNumbered  BlockKind = "numbered_list_item"
	KindToDo      BlockKind = "to_do"
	KindQuote     BlockKind = "quote"
	KindCode      BlockKind = "code"
	KindToggle    BlockKind = "toggle"
	KindCallout   BlockKind = "callout"
	KindTable     BlockKind = "table"
	KindTableRow  BlockKind = "table_row"
	KindDivider   BlockKind = "divider"
	KindUnknown   BlockKind = "unknown"
)

const defaultCalloutIcon = "💡"

// RichText is a single run of text.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// Block is one node of a page's block tree. Kind selects which of the
// variant fields are meaningful; RawType keeps the upstream type name for
// blocks decoded as KindUnknown.
type Block struct {
	ID          string
	Kind        BlockKind
	RawType     string
	Text        []RichText
	Checked     bool         // to_do
	Language    string       // code
	Icon        string       // callout
	Cells       [][]RichText // table_row
	HasChildren bool
	Children    []Block
}

// PlainText joins the block's rich text runs.
func (b Block) PlainText() string {
	return JoinRichText(b.Text)
}

// JoinRichText concatenates the plain text of runs.
func JoinRichText(runs []RichText) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.PlainText)
	}
	return sb.String()
}

type rawPayload struct {
	RichText []RichText   `json:"rich_text"`
	Checked  bool         `json:"checked"`
	Language string       `json:"language"`
	Icon     *rawIcon     `json:"icon"`
	Cells    [][]RichText `json:"cells"`
	Text     []RichText   `json:"text"`
	Caption  []RichText   `json:"caption"`
	Title    string       `json:"title"`
}

type rawIcon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// UnmarshalJSON decodes a block object from the API into the union. Only a
// value that is not a JSON object is an error; header fields of the wrong
// type are left at their zero value.
func (b *Block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var head struct {
		ID          string
		Type        string
		HasChildren bool
	}
	_ = json.Unmarshal(fields["id"], &head.ID)
	_ = json.Unmarshal(fields["type"], &head.Type)
	_ = json.Unmarshal(fields["has_children"], &head.HasChildren)

	var p rawPayload
	if raw, ok := fields[head.Type]; ok && len(raw) > 0 && raw[0] == '{' {
		// A malformed payload degrades to a block without text rather
		// than failing the whole page.
		_ = json.Unmarshal(raw, &p)
	}

	*b = Block{
		ID:          head.ID,
		RawType:     head.Type,
		HasChildren: head.HasChildren,
	}

	switch kind := BlockKind(head.Type); kind {
	case KindHeading1, KindHeading2, KindHeading3, KindParagraph,
		KindBulleted, KindNumbered, KindQuote, KindToggle:
		b.Kind = kind
		b.Text = p.RichText
	case KindToDo:
		b.Kind = kind
		b.Text = p.RichText
		b.Checked = p.Checked
	case KindCode:
		b.Kind = kind
		b.Text = p.RichText
		b.Language = p.Language
	case KindCallout:
		b.Kind = kind
		b.Text = p.RichText
		b.Icon = defaultCalloutIcon
		if p.Icon != nil && p.Icon.Type == "emoji" && p.Icon.Emoji != "" {
			b.Icon = p.Icon.Emoji
		}
	case KindTable, KindDivider:
		b.Kind = kind
	case KindTableRow:
		b.Kind = kind
		b.Cells = p.Cells
	default:
		b.Kind = KindUnknown
		switch {
		case len(p.RichText) > 0:
			b.Text = p.RichText
		case len(p.Text) > 0:
			b.Text = p.Text
		case len(p.Caption) > 0:
			b.Text = p.Caption
		case p.Title != "":
			b.Text = []RichText{{PlainText: p.Title}}
		}
	}
	return nil
}

// decodeBlocks decodes each result on its own. A result that is not a block
// object becomes an empty KindUnknown block so its siblings survive.
func decodeBlocks(results []json.RawMessage) []Block {
	blocks := make([]Block, 0, len(results))
	for _, raw := range results {
		var b Block
		if err := json.Unmarshal(raw, &b); err != nil {
			b = Block{Kind: KindUnknown}
		}
		blocks = append(blocks, b)
	}
	return blocks
}
