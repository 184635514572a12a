package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Inline keyboards are built here and passed through the transport layer
// opaquely (SendOptions.ReplyMarkup). Callback data uses the raw token
// strings matched in callbacks.go.

func inlineBtn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func mainMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{inlineBtn("💡 Quote", string(cbGetQuote)), inlineBtn("😂 Joke", string(cbGetJoke))},
		{inlineBtn("🧠 Fact", string(cbGetFact)), inlineBtn("⭐ Daily", string(cbGetDaily))},
		{inlineBtn("ℹ️ Help", string(cbGetHelp))},
	}}
}

func adminMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{inlineBtn("📊 Stats", string(cbAdminStats)), inlineBtn("📢 Broadcast Help", string(cbAdminBroadcastHelp))},
		{inlineBtn("🛠 Toggle Maintenance", string(cbAdminMaintenance))},
		{inlineBtn("🔒 Toggle Force Join", string(cbAdminForceJoin))},
		{inlineBtn("⬅️ Back", string(cbBackHome))},
	}}
}

func joinMenu(channel string) *tele.ReplyMarkup {
	rows := [][]tele.InlineButton{}
	if name := strings.TrimPrefix(channel, "@"); name != "" && name != channel {
		rows = append(rows, []tele.InlineButton{
			{Text: "📢 Join Channel", URL: "https://t.me/" + name},
		})
	}
	rows = append(rows, []tele.InlineButton{inlineBtn("✅ I Joined", string(cbJoinedContinue))})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
