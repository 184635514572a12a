package bot

import (
	"context"
	"time"

	"mastbot/internal/content"
	logx "mastbot/pkg/logx"
)

// command is the closed set of recognized command keywords. Dispatch goes
// through a single table so an unknown keyword can only ever reach the
// fallback handler.
type command string

const (
	cmdStart command = "start"
	cmdHelp  command = "help"
	cmdPing  command = "ping"
	cmdQuote command = "quote"
	cmdJoke  command = "joke"
	cmdFact  command = "fact"
	cmdDaily command = "daily"

	cmdAdmin       command = "admin"
	cmdStats       command = "stats"
	cmdBroadcast   command = "broadcast"
	cmdMaintenance command = "maintenance"
	cmdForceJoin   command = "forcejoin"
	cmdSetChannel  command = "setchannel"
)

const defaultTimeout = 30 * time.Second

type commandSpec struct {
	admin   bool
	timeout time.Duration
	handle  HandlerFunc
}

func lookupCommand(word string) (command, bool) {
	switch c := command(word); c {
	case cmdStart, cmdHelp, cmdPing, cmdQuote, cmdJoke, cmdFact, cmdDaily,
		cmdAdmin, cmdStats, cmdBroadcast, cmdMaintenance, cmdForceJoin, cmdSetChannel:
		return c, true
	}
	return "", false
}

func (r *Router) commandTable() map[command]commandSpec {
	return map[command]commandSpec{
		cmdStart: {timeout: defaultTimeout, handle: r.cmdStart},
		cmdHelp:  {timeout: defaultTimeout, handle: r.cmdHelp},
		cmdPing:  {timeout: defaultTimeout, handle: r.cmdPing},
		cmdQuote: {timeout: defaultTimeout, handle: r.fetchHandler(content.KindQuote, "Quote")},
		cmdJoke:  {timeout: defaultTimeout, handle: r.fetchHandler(content.KindJoke, "Joke")},
		cmdFact:  {timeout: defaultTimeout, handle: r.fetchHandler(content.KindFact, "Fact")},
		cmdDaily: {timeout: defaultTimeout, handle: r.cmdDaily},

		cmdAdmin: {admin: true, timeout: defaultTimeout, handle: r.cmdAdmin},
		cmdStats: {admin: true, timeout: defaultTimeout, handle: r.cmdStats},
		// Broadcast fan-out can legitimately take a long while; it is
		// bounded per-recipient instead of per-command.
		cmdBroadcast:   {admin: true, handle: r.cmdBroadcast},
		cmdMaintenance: {admin: true, timeout: defaultTimeout, handle: r.cmdMaintenance},
		cmdForceJoin:   {admin: true, timeout: defaultTimeout, handle: r.cmdForceJoin},
		cmdSetChannel:  {admin: true, timeout: defaultTimeout, handle: r.cmdSetChannel},
	}
}

// ---- user commands ----

func (r *Router) cmdStart(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textStart(req.From.FirstName), mainMenu())
}

func (r *Router) cmdHelp(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textHelp, mainMenu())
}

func (r *Router) cmdPing(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textPong, nil)
}

func (r *Router) cmdDaily(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, content.Daily(r.now()), mainMenu())
}

// fetchHandler produces a handler that serves one content kind. A fetch
// failure becomes a user-visible retry prompt, never an error reply.
func (r *Router) fetchHandler(kind content.Kind, label string) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		text, err := r.fetcher.Fetch(ctx, kind)
		if err != nil {
			req.Logger.Warn("content fetch failed", logx.String("kind", string(kind)), logx.Err(err))
			return r.reply(ctx, req, textFetchFailed(label), nil)
		}
		return r.reply(ctx, req, text, mainMenu())
	}
}
