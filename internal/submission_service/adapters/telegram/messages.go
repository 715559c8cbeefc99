package telegram

const (
	textRules = "Dear drivers, please read the delivery rules:\n\n" +
		"1) Enter the destination number exactly. Have the receiver sign the waybill.\n" +
		"2) Film in good quality. Round video notes are not accepted.\n" +
		"3) Show the act paper clearly and completely.\n" +
		"4) Film every product without hurrying and read the quantities aloud.\n" +
		"5) If the receiver disputes product quality, film it and send it to the logistics lead."

	textContinue           = "Press the button to continue:"
	textMainMenu           = "Main menu:"
	textAskFirstName       = "Enter your first name:"
	textAskLastName        = "Enter your last name:"
	textAskPhone           = "📞 Share your phone number using the button below:"
	textPhoneButtonOnly    = "Please share the phone number with the button (as a contact)."
	textAskPlate           = "🚗 Enter your car plate (for example 01A123BC):"
	textBadPlate           = "Enter a valid car plate (for example 01A123BC)."
	textRegisterFirst      = "Please register first with /start."
	textAskDestination     = "🏫 Enter the destination number (digits only, e.g. 12):"
	textBadDestination     = "Please enter the destination number using digits only (e.g. 12)."
	textAskVideo           = "✅ Got it. Now send the video (as a video)."
	textVideoExpected      = "Please send the video now (as a video)."
	textVideoWithoutFlow   = "Press \"" + buttonSendVideo + "\" and enter the destination number first."
	textVideoDelivered     = "✅ Video accepted and posted to the group."
	textVideoQueued        = "✅ Video accepted. The group is unreachable right now; it will be posted automatically."
	textNextDestination    = "Enter the destination number for the next video (digits only):"
	textAskReason          = "Why was the video not sent? Write the reason:"
	textReasonSaved        = "✅ Reason saved."
	textReasonEmpty        = "The reason cannot be empty. Write the reason:"
	textNoVideosYet        = "No video has been sent yet. Please use \"" + buttonSendVideo + "\"."
	textCancelled          = "Cancelled."
	textNotAdmin           = "❌ You are not an admin."
	textDeleteUsage        = "❗ Usage:\n/delete TELEGRAM_ID\n\nExample:\n/delete 7481592"
	textDeleteBadID        = "❌ Telegram ID must be a number. Example: /delete 123456789"
	textDeleteUnknown      = "User %d is not registered."
	textDeleteDone         = "✅ User deleted: %d"
	textSomethingWentWrong = "Something went wrong, please try again."
	textWelcome            = "👋 Welcome!\n\nPlease register with the bot using the button below.\n\n📹 The guide and all delivery rules are available inside the bot."
	textRegistered         = "✅ Registered:\n👤 %s %s\n📞 %s\n🚗 %s"
	textConfirmedCount     = "✅ Noted. You have %d video(s) today."
	textStatusHeader       = "📄 Today's status (%s)\n📌 Videos sent today: %d"
	textStatusReason       = "\n✍️ Reason: %s"
	textReasonNotProvided  = "(not provided)"
)
