package bot

import (
	"context"
	"fmt"

	"mastbot/internal/content"
	"mastbot/internal/storage"
	kit "mastbot/internal/transport"
	logx "mastbot/pkg/logx"
)

// callbackToken is the closed set of inline-button tokens.
type callbackToken string

const (
	cbGetQuote       callbackToken = "get_quote"
	cbGetJoke        callbackToken = "get_joke"
	cbGetFact        callbackToken = "get_fact"
	cbGetDaily       callbackToken = "get_daily"
	cbGetHelp        callbackToken = "get_help"
	cbBackHome       callbackToken = "back_home"
	cbJoinedContinue callbackToken = "joined_continue"

	cbAdminStats         callbackToken = "admin_stats"
	cbAdminBroadcastHelp callbackToken = "admin_broadcast_help"
	cbAdminMaintenance   callbackToken = "admin_maintenance"
	cbAdminForceJoin     callbackToken = "admin_forcejoin"
)

type callbackSpec struct {
	// admin restricts the token to the fixed admin set.
	admin bool
	// checkJoin re-applies the force-join check. Buttons can arrive long
	// after the initiating command validated state, so content tokens
	// re-check membership; maintenance is deliberately not re-checked.
	checkJoin bool
	// ack is the short toast answered to the button press.
	ack    string
	handle HandlerFunc
}

func (r *Router) callbackTable() map[callbackToken]callbackSpec {
	return map[callbackToken]callbackSpec{
		cbGetQuote: {checkJoin: true, ack: "Quote...", handle: r.fetchHandler(content.KindQuote, "Quote")},
		cbGetJoke:  {checkJoin: true, ack: "Joke...", handle: r.fetchHandler(content.KindJoke, "Joke")},
		cbGetFact:  {checkJoin: true, ack: "Fact...", handle: r.fetchHandler(content.KindFact, "Fact")},
		cbGetDaily: {ack: "Daily...", handle: r.cmdDaily},
		cbGetHelp:  {handle: r.cbHelp},
		cbBackHome: {handle: r.cbBackHome},
		// joined_continue re-verifies membership itself to give feedback
		// either way, so no checkJoin here.
		cbJoinedContinue: {handle: r.cbJoinedContinue},

		cbAdminStats:         {admin: true, handle: r.cbAdminStats},
		cbAdminBroadcastHelp: {admin: true, handle: r.cbAdminBroadcastHelp},
		cbAdminMaintenance:   {admin: true, handle: r.cbAdminMaintenance},
		cbAdminForceJoin:     {admin: true, handle: r.cbAdminForceJoin},
	}
}

func (r *Router) handleCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}
	from := storage.UserInfo{ID: cb.FromID, FirstName: cb.FromName, Username: cb.FromUsername}

	// Same per-event side effects as messages. Callback presses never touch
	// the per-command counters.
	r.store.TrackUser(from)
	r.store.RecordMessage()

	spec, ok := r.callbacks[callbackToken(cb.Data)]
	if !ok {
		// Unknown token: just stop the "loading" spinner.
		_ = r.adapter.AnswerCallback(ctx, cb.ID, "")
		return
	}

	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: cb.ChatID},
		From:    from,
		IsAdmin: r.isAdmin(cb.FromID),
		Command: "cb:" + cb.Data,
		ReqID:   newReqID(),
	}
	req.Logger = r.log.With(
		logx.String("rid", req.ReqID),
		logx.Int64("chat_id", cb.ChatID),
		logx.Int64("from_id", cb.FromID),
	)

	if spec.admin && !req.IsAdmin {
		_ = r.adapter.AnswerCallback(ctx, cb.ID, "Access denied.")
		return
	}
	if spec.checkJoin && !req.IsAdmin {
		if dec := r.gate.CheckMembership(ctx, cb.FromID); !dec.Allowed {
			_ = r.adapter.AnswerCallback(ctx, cb.ID, "")
			_ = r.sendBlocked(ctx, req, dec)
			return
		}
	}

	_ = r.adapter.AnswerCallback(ctx, cb.ID, spec.ack)

	final := Chain(spec.handle,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(defaultTimeout),
	)
	_ = final(ctx, req)
}

// ---- navigation / membership ----

func (r *Router) cbHelp(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textCallbackHelp, mainMenu())
}

func (r *Router) cbBackHome(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textMainMenu, mainMenu())
}

func (r *Router) cbJoinedContinue(ctx context.Context, req *Request) error {
	dec := r.gate.CheckMembership(ctx, req.From.ID)
	if !dec.Allowed {
		return r.sendBlocked(ctx, req, dec)
	}
	return r.reply(ctx, req, "✅ Thanks for joining!\n\n"+textMainMenu, mainMenu())
}

// ---- admin callbacks ----

func (r *Router) cbAdminStats(ctx context.Context, req *Request) error {
	st := r.store.StatsSnapshot()
	uptime := r.now().Unix() - st.StartedAt
	if uptime < 0 {
		uptime = 0
	}
	text := fmt.Sprintf("📊 Users: <b>%d</b>\n⏳ Uptime: <b>%dh</b>",
		r.store.UserCount(), uptime/3600)
	return r.reply(ctx, req, text, nil)
}

func (r *Router) cbAdminBroadcastHelp(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, "📢 Use:\n<code>/broadcast your message</code>", nil)
}

func (r *Router) cbAdminMaintenance(ctx context.Context, req *Request) error {
	s := r.store.MutateSettings(func(s *storage.Settings) { s.Maintenance = !s.Maintenance })
	return r.reply(ctx, req, fmt.Sprintf("🛠 Maintenance: <b>%s</b>", onOff(s.Maintenance)), nil)
}

func (r *Router) cbAdminForceJoin(ctx context.Context, req *Request) error {
	s := r.store.MutateSettings(func(s *storage.Settings) { s.ForceJoin = !s.ForceJoin })
	return r.reply(ctx, req, fmt.Sprintf("🔒 Force Join: <b>%s</b>", onOff(s.ForceJoin)), nil)
}
