package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRecentPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 2, body["page_size"])

		w.Write([]byte(`{"results":[
			{"id":"p1","created_time":"2026-10-18T08:00:00Z","last_edited_time":"2026-10-19T07:00:00Z",
			 "properties":{"Name":{"type":"title","title":[{"plain_text":"Sprint "},{"plain_text":"notes"}]}}},
			{"id":"p2","created_time":"2026-10-01T08:00:00Z","last_edited_time":"2026-10-02T07:00:00Z",
			 "properties":{"Tags":{"type":"multi_select"}}},
			{"id":"p3","created_time":"2026-09-01T08:00:00Z","last_edited_time":"2026-09-02T07:00:00Z","properties":{}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "2022-06-28")
	pages, err := client.SearchRecentPages(context.Background(), "secret-token", 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Sprint notes", pages[0].Title)
	assert.Equal(t, "Untitled", pages[1].Title)
	assert.Equal(t, 19, pages[0].LastEditedTime.Day())
}

func TestSearchRecentPages_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "2022-06-28").SearchRecentPages(context.Background(), "bad", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "API token is invalid.", apiErr.Message)
}

func TestBlockTree_PaginatesAndRecurses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blocks/page-1/children":
			if r.URL.Query().Get("start_cursor") == "" {
				w.Write([]byte(`{"results":[
					{"id":"b1","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"Hello"}]}}
				],"has_more":true,"next_cursor":"c2"}`))
				return
			}
			w.Write([]byte(`{"results":[
				{"id":"t1","type":"toggle","has_children":true,"toggle":{"rich_text":[{"plain_text":"Details"}]}}
			],"has_more":false}`))
		case "/blocks/t1/children":
			w.Write([]byte(`{"results":[
				{"id":"c1","type":"to_do","to_do":{"rich_text":[{"plain_text":"Ship it"}],"checked":true}}
			],"has_more":false}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	blocks, err := NewClient(server.URL, "2022-06-28").BlockTree(context.Background(), "tok", "page-1", 3)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, KindToggle, blocks[1].Kind)
	require.Len(t, blocks[1].Children, 1)
	assert.Equal(t, KindToDo, blocks[1].Children[0].Kind)
	assert.True(t, blocks[1].Children[0].Checked)
}

func TestBlockUnmarshal_Variants(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		check func(t *testing.T, b Block)
	}{
		{
			name: "callout with emoji",
			json: `{"id":"1","type":"callout","callout":{"rich_text":[{"plain_text":"Heads up"}],"icon":{"type":"emoji","emoji":"⚠️"}}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindCallout, b.Kind)
				assert.Equal(t, "⚠️", b.Icon)
				assert.Equal(t, "Heads up", b.PlainText())
			},
		},
		{
			name: "callout without icon",
			json: `{"id":"1","type":"callout","callout":{"rich_text":[{"plain_text":"Note"}]}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, "💡", b.Icon)
			},
		},
		{
			name: "code",
			json: `{"id":"1","type":"code","code":{"rich_text":[{"plain_text":"fmt.Println()"}],"language":"go"}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindCode, b.Kind)
				assert.Equal(t, "go", b.Language)
			},
		},
		{
			name: "table row",
			json: `{"id":"1","type":"table_row","table_row":{"cells":[[{"plain_text":"a"}],[{"plain_text":"b"}]]}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindTableRow, b.Kind)
				require.Len(t, b.Cells, 2)
			},
		},
		{
			name: "unknown with text",
			json: `{"id":"1","type":"synced_block","synced_block":{"rich_text":[{"plain_text":"copied"}]}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindUnknown, b.Kind)
				assert.Equal(t, "synced_block", b.RawType)
				assert.Equal(t, "copied", b.PlainText())
			},
		},
		{
			name: "unknown with caption",
			json: `{"id":"1","type":"image","image":{"caption":[{"plain_text":"diagram"}]}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindUnknown, b.Kind)
				assert.Equal(t, "diagram", b.PlainText())
			},
		},
		{
			name: "header field of wrong type",
			json: `{"id":"1","type":"paragraph","has_children":"yes","paragraph":{"rich_text":[{"plain_text":"kept"}]}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindParagraph, b.Kind)
				assert.False(t, b.HasChildren)
				assert.Equal(t, "kept", b.PlainText())
			},
		},
		{
			name: "type of wrong type",
			json: `{"id":"1","type":7}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindUnknown, b.Kind)
				assert.Empty(t, b.PlainText())
			},
		},
		{
			name: "malformed payload",
			json: `{"id":"1","type":"paragraph","paragraph":{"rich_text":"oops"}}`,
			check: func(t *testing.T, b Block) {
				assert.Equal(t, KindParagraph, b.Kind)
				assert.Empty(t, b.PlainText())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Block
			require.NoError(t, json.Unmarshal([]byte(tt.json), &b))
			tt.check(t, b)
		})
	}
}

func TestBlockTree_MalformedBlockKeepsSiblings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"id":"b1","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"Hello"}]}},
			{"id":"b2","type":"paragraph","has_children":"yes","paragraph":{"rich_text":[{"plain_text":"World"}]}},
			"not a block",
			{"id":"b4","type":"to_do","to_do":{"rich_text":[{"plain_text":"Done"}],"checked":true}}
		],"has_more":false}`))
	}))
	defer server.Close()

	blocks, err := NewClient(server.URL, "2022-06-28").BlockTree(context.Background(), "token", "page-1", 3)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, "Hello", blocks[0].PlainText())
	assert.Equal(t, "World", blocks[1].PlainText())
	assert.Empty(t, blocks[1].Children)
	assert.Equal(t, KindUnknown, blocks[2].Kind)
	assert.Empty(t, blocks[2].PlainText())
	assert.True(t, blocks[3].Checked)
}
