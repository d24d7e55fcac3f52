package deliverer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"digest-backend/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T, status int, body string, calls *int32, got *telegram.Message) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateAddress(t *testing.T) {
	valid := []string{"123456789", "-1001234567890", "@digest_bot", "@abcde", " 42 "}
	for _, a := range valid {
		assert.NoError(t, ValidateAddress(a), a)
	}

	invalid := []string{"", "   ", "@abc", "@1abcde", "@" + strings.Repeat("a", 33), "12ab", "https://t.me/x", "--5"}
	for _, a := range invalid {
		assert.ErrorIs(t, ValidateAddress(a), ErrInvalidAddress, a)
	}
}

func TestDeliver_Success(t *testing.T) {
	var calls int32
	var got telegram.Message
	srv := newServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":77}}`, &calls, &got)

	d := New(telegram.NewClient(srv.URL, "TOKEN"), zap.NewNop())
	ack, err := d.Deliver(context.Background(), "-100200", "<b>hi</b>")
	require.NoError(t, err)
	assert.Equal(t, int64(77), ack.MessageID)
	assert.False(t, ack.DeliveredAt.IsZero())
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, "-100200", got.ChatID)
	assert.Equal(t, telegram.ParseModeHTML, got.ParseMode)
}

func TestDeliver_ValidatesBeforeNetwork(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":1}}`, &calls, nil)
	d := New(telegram.NewClient(srv.URL, "TOKEN"), zap.NewNop())

	_, err := d.Deliver(context.Background(), "not a chat", "hello")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = d.Deliver(context.Background(), "42", "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = d.Deliver(context.Background(), "42", strings.Repeat("x", telegram.MaxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	assert.Equal(t, int32(0), calls)
}

func TestDeliver_SurfacesAPIDescriptionWithoutRetry(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, &calls, nil)
	d := New(telegram.NewClient(srv.URL, "TOKEN"), zap.NewNop())

	_, err := d.Deliver(context.Background(), "42", "hello")
	require.Error(t, err)

	var apiErr *telegram.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
	assert.Equal(t, int32(1), calls)
}
