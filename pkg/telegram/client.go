package telegram

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
)

// ParseModeHTML selects the HTML markup dialect for message text.
const ParseModeHTML = "HTML"

// MaxMessageLength is the Bot API limit for message text, counted in UTF-16
// code units after entity parsing.
const MaxMessageLength = 4096

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram bot token not configured")

// APIError is a failed Bot API call. Description is the API's own text,
// e.g. "Bad Request: chat not found" or "Too Many Requests: retry after 5".
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error (%d): %s", e.StatusCode, e.Description)
}

// Message is the sendMessage payload.
type Message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Parameters struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Client sends messages through the Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Bot API client. baseURL is normally
// https://api.telegram.org.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage posts msg and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, msg Message) (int64, error) {
	if c.token == "" {
		return 0, ErrMissingToken
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL embeds the token; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result apiResponse
	parseErr := json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.OK {
		apiErr := &APIError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
			RetryAfter:  result.Parameters.RetryAfter,
		}
		if parseErr != nil || apiErr.Description == "" {
			apiErr.Description = strings.TrimSpace(string(respBody))
		}
		return 0, apiErr
	}
	if parseErr != nil {
		return 0, fmt.Errorf("failed to parse response: %w", parseErr)
	}

	return result.Result.MessageID, nil
}
