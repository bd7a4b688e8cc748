package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink names the Telegram notifier in errors and metrics.
const TelegramSink = "telegram"

// TelegramNotifier posts HTML-formatted messages to one Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	// channel is set instead of chatID when the chat is addressed as @name.
	channel string
	logger  *slog.Logger
}

// NewTelegramNotifier authenticates the bot token (getMe) and resolves the
// chat reference. chatID is either a numeric id (groups are negative) or a
// public channel username starting with "@". endpoint is a Bot API URL format
// with two %s verbs (token, method); empty means the public Bot API.
func NewTelegramNotifier(token, chatID, endpoint string, httpClient *http.Client, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &TelegramNotifier{logger: logger}
	if strings.HasPrefix(chatID, "@") {
		n.channel = chatID
	} else {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram chat id %q: must be numeric or @channel", chatID)
		}
		n.chatID = id
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	n.bot = bot

	logger.Info("telegram notifier ready",
		"bot", bot.Self.UserName,
		"chat", chatID,
	)

	return n, nil
}

// Name identifies the sink in metrics.
func (n *TelegramNotifier) Name() string {
	return TelegramSink
}

// Send delivers text using HTML parse mode. The Bot API client has no
// per-request context, so ctx is only checked before sending; the HTTP
// client's timeout bounds the request itself.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Sink: TelegramSink, Err: err}
	}

	var msg tgbotapi.MessageConfig
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	} else {
		msg = tgbotapi.NewMessage(n.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := n.bot.Send(msg)
	if err != nil {
		return &DeliveryError{Sink: TelegramSink, Err: err}
	}

	n.logger.Debug("telegram message sent",
		"message_id", sent.MessageID,
	)
	return nil
}
