package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testActivity() polymarket.Activity {
	return polymarket.Activity{
		ID:          "0xhash",
		Wallet:      "0x1234567890abcdef1234567890abcdef12345678",
		Timestamp:   1723772500,
		Type:        "TRADE",
		ConditionID: "0xcond",
		Title:       "Rain <today> & more",
		Outcome:     "Yes",
		Side:        "BUY",
		Size:        decimal.RequireFromString("200"),
		Price:       decimal.RequireFromString("0.6"),
		USDCSize:    decimal.RequireFromString("120"),
		Name:        "trader",
	}
}

func TestFormatActivity(t *testing.T) {
	text := FormatActivity(testActivity(), "whale")

	assert.Contains(t, text, "New Activity Alert!")
	assert.Contains(t, text, "<b>Wallet:</b> whale")
	assert.Contains(t, text, "<b>Market:</b> Rain &lt;today&gt; &amp; more")
	assert.Contains(t, text, "<b>Type:</b> TRADE")
	assert.Contains(t, text, "<b>Outcome:</b> Yes")
	assert.Contains(t, text, "200 shares @ $0.6")
	assert.Contains(t, text, "<b>Side:</b> BUY")
	assert.Contains(t, text, "<b>Value:</b> $120.00")
	assert.Contains(t, text, "2024-08-16 01:41:40 UTC")
}

func TestFormatActivity_Fallbacks(t *testing.T) {
	a := testActivity()
	a.Side = ""
	a.Outcome = ""
	a.USDCSize = decimal.Zero

	text := FormatActivity(a, "")
	assert.Contains(t, text, "<b>Wallet:</b> trader")
	assert.Contains(t, text, "<b>Side:</b> N/A")
	assert.Contains(t, text, "<b>Outcome:</b> N/A")
	// 200 * 0.6
	assert.Contains(t, text, "<b>Value:</b> $120.00")

	a.Name = ""
	text = FormatActivity(a, "")
	assert.Contains(t, text, "<b>Wallet:</b> "+a.Wallet)
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&DeliveryError{Sink: TelegramSink, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "deliver to telegram: boom", err.Error())

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TelegramSink, de.Sink)
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, "one"))
	require.NoError(t, m.Send(ctx, "two"))
	assert.Equal(t, []string{"one", "two"}, m.Messages())

	m.SetError(errors.New("down"))
	err := m.Send(ctx, "three")
	require.Error(t, err)
	var de *DeliveryError
	assert.True(t, errors.As(err, &de))
	assert.Len(t, m.Messages(), 2)

	m.SetError(nil)
	m.Reset()
	assert.Empty(t, m.Messages())
}

// fakeBotAPI serves the two Bot API methods the notifier uses.
type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []map[string]string
	failSend bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			if !strings.HasPrefix(r.URL.Path, "/bottest-token/") {
				w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Poly","username":"polywatch_bot"}}`))

		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			f.mu.Lock()
			fail := f.failSend
			f.sent = append(f.sent, map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			})
			f.mu.Unlock()

			if fail {
				w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":{"message_id":42,"date":1723772500,"chat":{"id":-100123,"type":"channel"}}}`))

		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	})
}

func (f *fakeBotAPI) messages() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.sent...)
}

func newFakeBot(t *testing.T) (*fakeBotAPI, string) {
	fake := &fakeBotAPI{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	return fake, server.URL + "/bot%s/%s"
}

func TestTelegramNotifier_Send(t *testing.T) {
	fake, endpoint := newFakeBot(t)

	n, err := NewTelegramNotifier("test-token", "-100123", endpoint, nil, newTestLogger())
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), "<b>hello</b>"))

	sent := fake.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "-100123", sent[0]["chat_id"])
	assert.Equal(t, "<b>hello</b>", sent[0]["text"])
	assert.Equal(t, "HTML", sent[0]["parse_mode"])
}

func TestTelegramNotifier_Channel(t *testing.T) {
	fake, endpoint := newFakeBot(t)

	n, err := NewTelegramNotifier("test-token", "@polyalerts", endpoint, nil, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, n.Send(context.Background(), "hi"))

	sent := fake.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "@polyalerts", sent[0]["chat_id"])
}

func TestTelegramNotifier_SendFailure(t *testing.T) {
	fake, endpoint := newFakeBot(t)
	fake.failSend = true

	n, err := NewTelegramNotifier("test-token", "-100123", endpoint, nil, newTestLogger())
	require.NoError(t, err)

	err = n.Send(context.Background(), "hi")
	require.Error(t, err)

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TelegramSink, de.Sink)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramNotifier_CanceledContext(t *testing.T) {
	fake, endpoint := newFakeBot(t)

	n, err := NewTelegramNotifier("test-token", "-100123", endpoint, nil, newTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = n.Send(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.messages())
}

func TestNewTelegramNotifier_Errors(t *testing.T) {
	_, endpoint := newFakeBot(t)

	tests := []struct {
		name    string
		token   string
		chatID  string
		wantErr string
	}{
		{name: "missing token", token: "", chatID: "1", wantErr: "token is required"},
		{name: "missing chat", token: "test-token", chatID: "", wantErr: "chat id is required"},
		{name: "bad chat", token: "test-token", chatID: "general", wantErr: "invalid telegram chat id"},
		{name: "rejected token", token: "wrong", chatID: "1", wantErr: "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTelegramNotifier(tt.token, tt.chatID, endpoint, nil, newTestLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
