package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// channelPrefix marks supergroup and channel ids in the Bot API.
const channelPrefix = "-100"

// VideoSender posts an already uploaded video by reference and returns the
// message id assigned by the chat.
type VideoSender interface {
	SendVideo(ctx context.Context, chatID int64, mediaRef, caption string) (int, error)
}

// Dispatcher delivers videos to the supervisory group. It never retries.
type Dispatcher struct {
	sender VideoSender
	chatID int64
	base   string
	logger *slog.Logger
}

func NewDispatcher(sender VideoSender, groupChatID int64, permalinkBase string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		chatID: groupChatID,
		base:   strings.TrimRight(permalinkBase, "/"),
		logger: logger.With("component", "broadcast_dispatcher"),
	}
}

func (d *Dispatcher) Deliver(ctx context.Context, mediaRef, caption string) (domain.DeliveryHandle, error) {
	msgID, err := d.sender.SendVideo(ctx, d.chatID, mediaRef, caption)
	if err != nil {
		return domain.DeliveryHandle{}, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	d.logger.InfoContext(ctx, "Video broadcast", "chat_id", d.chatID, "message_id", msgID)
	return domain.DeliveryHandle{ChatID: d.chatID, MessageID: msgID}, nil
}

func (d *Dispatcher) Permalink(h domain.DeliveryHandle) string {
	return Permalink(d.base, h)
}

// Permalink builds <base>/<chat id without -100>/<message id>.
func Permalink(base string, h domain.DeliveryHandle) string {
	id := strconv.FormatInt(h.ChatID, 10)
	if strings.HasPrefix(id, channelPrefix) {
		id = id[len(channelPrefix):]
	} else {
		id = strings.TrimLeft(id, "-")
	}
	return fmt.Sprintf("%s/%s/%d", strings.TrimRight(base, "/"), id, h.MessageID)
}
