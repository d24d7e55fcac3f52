package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrUnauthorized is matched by API errors caused by an invalid or revoked
// integration token.
var ErrUnauthorized = errors.New("workspace credential rejected")

// MaxPageSize is the largest page size the API accepts.
const MaxPageSize = 100

// APIError is a non-2xx response from the workspace API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Page is a workspace document. Search results leave Blocks empty.
type Page struct {
	ID             string
	Title          string
	URL            string
	CreatedTime    time.Time
	LastEditedTime time.Time
	Blocks         []Block
}

// Client talks to the workspace REST API. It holds no credentials: each
// call receives the owner's bearer token.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL (e.g. https://api.notion.com/v1).
func NewClient(baseURL, version string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// authedClient wraps the base HTTP client with a static bearer token source.
func (c *Client) authedClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

func (c *Client) do(ctx context.Context, token, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authedClient(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Message != "" {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

type searchResponse struct {
	Results []struct {
		ID             string                     `json:"id"`
		URL            string                     `json:"url"`
		CreatedTime    time.Time                  `json:"created_time"`
		LastEditedTime time.Time                  `json:"last_edited_time"`
		Properties     map[string]json.RawMessage `json:"properties"`
	} `json:"results"`
}

// SearchRecentPages returns up to pageSize pages, most recently edited first.
func (c *Client) SearchRecentPages(ctx context.Context, token string, pageSize int) ([]Page, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	body := map[string]interface{}{
		"filter":    map[string]string{"property": "object", "value": "page"},
		"sort":      map[string]string{"direction": "descending", "timestamp": "last_edited_time"},
		"page_size": pageSize,
	}

	var resp searchResponse
	if err := c.do(ctx, token, http.MethodPost, "/search", body, &resp); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(resp.Results))
	for _, r := range resp.Results {
		pages = append(pages, Page{
			ID:             r.ID,
			URL:            r.URL,
			Title:          titleFromProperties(r.Properties),
			CreatedTime:    r.CreatedTime,
			LastEditedTime: r.LastEditedTime,
		})
	}
	// The API honors page_size, but the caller relies on the bound.
	if len(pages) > pageSize {
		pages = pages[:pageSize]
	}
	return pages, nil
}

func titleFromProperties(props map[string]json.RawMessage) string {
	for _, raw := range props {
		var prop struct {
			Type  string     `json:"type"`
			Title []RichText `json:"title"`
		}
		if err := json.Unmarshal(raw, &prop); err != nil {
			continue
		}
		if prop.Type == "title" {
			if title := strings.TrimSpace(JoinRichText(prop.Title)); title != "" {
				return title
			}
		}
	}
	return "Untitled"
}

type childrenResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// BlockChildren returns all immediate children of a block or page,
// following pagination cursors.
func (c *Client) BlockChildren(ctx context.Context, token, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(MaxPageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}

		var resp childrenResponse
		path := "/blocks/" + url.PathEscape(blockID) + "/children?" + q.Encode()
		if err := c.do(ctx, token, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		blocks = append(blocks, decodeBlocks(resp.Results)...)

		if !resp.HasMore || resp.NextCursor == "" {
			return blocks, nil
		}
		cursor = resp.NextCursor
	}
}

// BlockTree fetches children recursively down to maxDepth levels.
func (c *Client) BlockTree(ctx context.Context, token, blockID string, maxDepth int) ([]Block, error) {
	blocks, err := c.BlockChildren(ctx, token, blockID)
	if err != nil {
		return nil, err
	}
	if maxDepth <= 1 {
		return blocks, nil
	}
	for i := range blocks {
		if !blocks[i].HasChildren {
			continue
		}
		children, err := c.BlockTree(ctx, token, blocks[i].ID, maxDepth-1)
		if err != nil {
			return nil, err
		}
		blocks[i].Children = children
	}
	return blocks, nil
}
