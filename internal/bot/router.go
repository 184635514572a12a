// Package bot routes inbound updates to command and callback handlers.
//
// Every inbound event, recognized or not, first upserts the user record and
// increments the total message counter. Recognized user commands are then
// counted, gated and executed; admin commands check admin identity directly
// and skip the gate so the bot stays operable during maintenance.
package bot

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"mastbot/internal/broadcast"
	"mastbot/internal/content"
	"mastbot/internal/gate"
	"mastbot/internal/storage"
	kit "mastbot/internal/transport"
	logx "mastbot/pkg/logx"
)

// Request carries one inbound event through the middleware chain.
type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	From    storage.UserInfo
	IsAdmin bool

	// Command is the matched route ("quote", "cb:get_joke", "fallback").
	Command string
	// Args is the raw text after the command keyword, trimmed.
	Args string

	ReqID  string
	Logger logx.Logger
}

type Options struct {
	AdminIDs []int64
	// Now overrides the clock in tests (daily pack, uptime).
	Now func() time.Time
}

type Router struct {
	log     logx.Logger
	adapter kit.Adapter
	store   *storage.Service
	gate    *gate.Keeper
	fetcher content.Fetcher
	engine  *broadcast.Engine

	admins []int64
	now    func() time.Time

	commands  map[command]commandSpec
	callbacks map[callbackToken]callbackSpec
}

func NewRouter(log logx.Logger, adapter kit.Adapter, store *storage.Service, keeper *gate.Keeper, fetcher content.Fetcher, engine *broadcast.Engine, opts Options) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	r := &Router{
		log:     log,
		adapter: adapter,
		store:   store,
		gate:    keeper,
		fetcher: fetcher,
		engine:  engine,
		admins:  append([]int64(nil), opts.AdminIDs...),
		now:     now,
	}
	r.commands = r.commandTable()
	r.callbacks = r.callbackTable()
	return r
}

func (r *Router) isAdmin(id int64) bool {
	for _, a := range r.admins {
		if a == id {
			return true
		}
	}
	return false
}

// Run consumes updates until the context ends. Events are processed one at
// a time; the storage layer's per-record locks keep state consistent even
// if a future transport delivers concurrently.
func (r *Router) Run(ctx context.Context, updates <-chan kit.Update) {
	r.log.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("dispatcher stopped")
			return
		case up, ok := <-updates:
			if !ok {
				r.log.Info("dispatcher stopped (updates channel closed)")
				return
			}
			r.safeHandle(ctx, up)
		}
	}
}

// safeHandle is the outermost liveness boundary: no event may crash the
// dispatch loop.
func (r *Router) safeHandle(ctx context.Context, up kit.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in update handling",
				logx.Any("panic", rec),
				logx.String("stack", string(debug.Stack())),
			)
		}
	}()
	r.HandleUpdate(ctx, up)
}

// HandleUpdate processes a single inbound event to completion.
func (r *Router) HandleUpdate(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		r.handleMessage(ctx, up)
	case kit.UpdateCallback:
		r.handleCallback(ctx, up)
	}
}

func (r *Router) handleMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	from := storage.UserInfo{ID: msg.FromID, FirstName: msg.FromName, Username: msg.FromUsername}

	// Tracking and the total-message counter run before anything else,
	// including gating.
	r.store.TrackUser(from)
	r.store.RecordMessage()

	word, args := splitCommand(msg.Text)
	cmd, recognized := lookupCommand(word)

	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID},
		From:    from,
		IsAdmin: r.isAdmin(msg.FromID),
		Command: "fallback",
		Args:    args,
		ReqID:   newReqID(),
	}
	req.Logger = r.log.With(
		logx.String("rid", req.ReqID),
		logx.Int64("chat_id", msg.ChatID),
		logx.Int64("from_id", msg.FromID),
	)

	var handler HandlerFunc
	var timeout time.Duration
	if recognized {
		spec := r.commands[cmd]
		req.Command = string(cmd)
		timeout = spec.timeout
		if spec.admin {
			handler = r.withAdminCheck(spec.handle)
		} else {
			handler = r.withUserGate(string(cmd), spec.handle)
		}
	} else {
		timeout = defaultTimeout
		handler = r.withGateOnly(r.handleFallback)
	}

	final := Chain(handler,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(timeout),
	)
	_ = final(ctx, req)
}

// withUserGate wraps a user-facing command: count the command, apply the
// gate, then act.
func (r *Router) withUserGate(name string, next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		r.store.RecordCommand(name)
		dec := r.gate.Allow(ctx, req.From.ID, req.IsAdmin)
		if !dec.Allowed {
			return r.sendBlocked(ctx, req, dec)
		}
		return next(ctx, req)
	}
}

// withGateOnly gates without counting a command (fallback handler).
func (r *Router) withGateOnly(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		dec := r.gate.Allow(ctx, req.From.ID, req.IsAdmin)
		if !dec.Allowed {
			return r.sendBlocked(ctx, req, dec)
		}
		return next(ctx, req)
	}
}

// withAdminCheck guards admin commands. They never consult the gate: admin
// operations must stay reachable while maintenance blocks everyone else.
func (r *Router) withAdminCheck(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		if !req.IsAdmin {
			return r.reply(ctx, req, textAccessDenied, nil)
		}
		return next(ctx, req)
	}
}

func (r *Router) sendBlocked(ctx context.Context, req *Request, dec gate.Decision) error {
	switch dec.Reason {
	case gate.ReasonNotMember:
		return r.reply(ctx, req, textJoinPrompt(dec.Channel), joinMenu(dec.Channel))
	default:
		return r.reply(ctx, req, textMaintenance, nil)
	}
}

func (r *Router) reply(ctx context.Context, req *Request, text string, markup any) error {
	return r.adapter.SendText(ctx, req.Chat, text, &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
		ReplyMarkup:    markup,
	})
}

func (r *Router) handleFallback(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textFallback, mainMenu())
}

// splitCommand extracts the leading "/command" keyword (stripping any
// "@botname" suffix) and the rest of the message text.
func splitCommand(text string) (word, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	rest := ""
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		rest = strings.TrimSpace(text[i+1:])
		text = text[:i]
	}
	word = strings.TrimPrefix(text, "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	return strings.ToLower(word), rest
}
