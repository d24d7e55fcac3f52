package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)

		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "-100123", msg.ChatID)
		assert.Equal(t, ParseModeHTML, msg.ParseMode)

		w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL, "TOKEN").SendMessage(context.Background(), Message{
		ChatID:    "-100123",
		Text:      "<b>hi</b>",
		ParseMode: ParseModeHTML,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSendMessage_SurfacesDescription(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		description string
		retryAfter  int
	}{
		{"chat not found", http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, "Bad Request: chat not found", 0},
		{"rate limited", http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`, "Too Many Requests: retry after 7", 7},
		{"non json", http.StatusBadGateway, `upstream down`, "upstream down", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "TOKEN").SendMessage(context.Background(), Message{ChatID: "1", Text: "x"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.description, apiErr.Description)
			assert.Equal(t, tt.retryAfter, apiErr.RetryAfter)
		})
	}
}

func TestSendMessage_MissingToken(t *testing.T) {
	_, err := NewClient("http://unused", "").SendMessage(context.Background(), Message{ChatID: "1", Text: "x"})
	assert.ErrorIs(t, err, ErrMissingToken)
}
