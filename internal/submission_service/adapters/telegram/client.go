package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client wraps the Bot API. It satisfies app.Notifier and
// broadcast.VideoSender. The underlying library has no context support,
// so ctx is only checked before each call.
type Client struct {
	bot      botAPI
	username string
	logger   *slog.Logger
}

// NewClient authenticates with token against endpoint (tgbotapi.APIEndpoint
// when empty).
func NewClient(token, endpoint string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 75 * time.Second}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram bot api: %w", err)
	}
	logger.Info("Authorized on Telegram", "bot_username", bot.Self.UserName)
	return newClient(bot, bot.Self.UserName, logger), nil
}

func newClient(bot botAPI, username string, logger *slog.Logger) *Client {
	return &Client{bot: bot, username: username, logger: logger.With("component", "telegram_client")}
}

// Username is the bot's @handle without the "@".
func (c *Client) Username() string { return c.username }

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.reply(ctx, chatID, text, nil)
}

// SendReminder sends text with the Sent / Not sent buttons.
func (c *Client) SendReminder(ctx context.Context, chatID int64, text string) error {
	return c.reply(ctx, chatID, text, reminderKeyboard())
}

// SendVideo re-posts an uploaded video by file id and returns the new
// message id.
func (c *Client) SendVideo(ctx context.Context, chatID int64, mediaRef, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(mediaRef))
	video.Caption = caption
	msg, err := c.bot.Send(video)
	if err != nil {
		return 0, fmt.Errorf("send video to chat %d: %w", chatID, err)
	}
	return msg.MessageID, nil
}

// AnswerCallback stops the client-side spinner of an inline button.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

// reply sends text with an optional reply markup.
func (c *Client) reply(ctx context.Context, chatID int64, text string, markup interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// replyTo is reply quoting messageID.
func (c *Client) replyTo(ctx context.Context, chatID int64, messageID int, text string, markup interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send reply to chat %d: %w", chatID, err)
	}
	return nil
}

// Updates starts long polling. The channel closes after StopUpdates.
func (c *Client) Updates(timeoutSeconds int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds
	u.AllowedUpdates = []string{"message", "callback_query"}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}
