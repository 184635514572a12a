package bot

import (
	"fmt"
	"strings"

	"mastbot/internal/storage"
)

const (
	botName     = "Mast Prank 69"
	botUsername = "@Faydauthaobot"
)

const (
	textMaintenance  = "🛠 Bot is under maintenance. Please try later."
	textAccessDenied = "⛔ Access denied."
	textFallback     = "Use /start ✅"
	textPong         = "✅ Pong! Bot is alive."
	textMainMenu     = "🏠 Main Menu"

	textBroadcastUsage   = "Usage:\n<code>/broadcast Your message</code>"
	textMaintenanceUsage = "Usage: <code>/maintenance on</code> or <code>/maintenance off</code>"
	textForceJoinUsage   = "Usage: <code>/forcejoin on</code> or <code>/forcejoin off</code>"
	textSetChannelUsage  = "Usage: <code>/setchannel @channelname</code>"

	textHelp = "ℹ️ <b>Help</b>\n\n" +
		"Commands:\n" +
		"/quote /joke /fact /daily /ping\n\n" +
		"Admin:\n/admin"

	textCallbackHelp = "ℹ️ Use menu / commands:\n/quote /joke /fact /daily /ping\n\nAdmin: /admin"
)

func textStart(name string) string {
	if strings.TrimSpace(name) == "" {
		name = "Friend"
	}
	return fmt.Sprintf(
		"👋 Hello <b>%s</b>\n\nWelcome to <b>%s</b> (%s)\n\n"+
			"Commands:\n• /quote\n• /joke\n• /fact\n• /daily\n• /help\n",
		name, botName, botUsername,
	)
}

func textFetchFailed(label string) string {
	return "⚠️ " + label + " fetch failed. Try again."
}

func textJoinPrompt(channel string) string {
	return fmt.Sprintf("🔒 You must join <b>%s</b> to use this bot.\n\nJoin the channel, then tap the button below.", channel)
}

func textBroadcastDecorated(body string) string {
	return "📢 <b>Message</b>\n\n" + body
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func textAdminPanel(s storage.Settings) string {
	channel := s.Channel
	if channel == "" {
		channel = "(not set)"
	}
	return fmt.Sprintf(
		"🛡 <b>Admin Panel</b>\n\nMaintenance: <b>%s</b>\nForce Join: <b>%s</b>\nChannel: <b>%s</b>\n\nChoose:",
		onOff(s.Maintenance), onOff(s.ForceJoin), channel,
	)
}

func textStats(userCount int, st storage.Stats, uptimeSecs int64) string {
	upH := uptimeSecs / 3600
	upM := (uptimeSecs % 3600) / 60
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Bot Stats</b>\n\n")
	fmt.Fprintf(&b, "👥 Users: <b>%d</b>\n", userCount)
	fmt.Fprintf(&b, "💬 Messages: <b>%d</b>\n", st.TotalMessages)
	fmt.Fprintf(&b, "⏳ Uptime: <b>%dh %dm</b>\n\n", upH, upM)
	b.WriteString("Commands:\n")
	for _, name := range []string{"start", "quote", "joke", "fact", "daily", "help", "ping"} {
		fmt.Fprintf(&b, "/%s: %d\n", name, st.Commands[name])
	}
	return b.String()
}
