package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// welcome greets every human that joins a group with a deep link to the bot.
func (h *Handler) welcome(ctx context.Context, msg *tgbotapi.Message) {
	for _, member := range msg.NewChatMembers {
		if member.IsBot {
			continue
		}
		if err := h.client.replyTo(ctx, msg.Chat.ID, msg.MessageID, textWelcome, joinKeyboard(h.client.Username())); err != nil {
			h.logger.WarnContext(ctx, "Failed to welcome new member", "error", err, "chat_id", msg.Chat.ID, "member_id", member.ID)
		}
	}
}
