package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply keyboard labels double as commands.
const (
	buttonSendVideo   = "🎥 Send video"
	buttonTodayStatus = "📄 Today's status"
	buttonGuide       = "📖 Guide"
	buttonSharePhone  = "📞 Share phone number"
)

// Callback data of inline buttons.
const (
	callbackOnboarded   = "onboard_ok"
	callbackReminderYes = "rem_yes"
	callbackReminderNo  = "rem_no"
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonSendVideo)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonTodayStatus),
			tgbotapi.NewKeyboardButton(buttonGuide),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(buttonSharePhone)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func onboardingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ I have read the rules", callbackOnboarded)),
	)
}

func reminderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Sent", callbackReminderYes),
			tgbotapi.NewInlineKeyboardButtonData("⛔ Not sent", callbackReminderNo),
		),
	)
}

// joinKeyboard deep-links new group members into a private chat with the bot.
func joinKeyboard(botUsername string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🤖 Register with the bot", fmt.Sprintf("https://t.me/%s?start=reg", botUsername)),
		),
	)
}
