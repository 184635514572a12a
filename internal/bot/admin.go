package bot

import (
	"context"
	"fmt"
	"strings"

	"mastbot/internal/storage"
	logx "mastbot/pkg/logx"
)

// Admin handlers reply with a usage message and change no state when the
// arguments are malformed. None of them touch the per-command counters.

func (r *Router) cmdAdmin(ctx context.Context, req *Request) error {
	return r.reply(ctx, req, textAdminPanel(r.store.Settings()), adminMenu())
}

func (r *Router) cmdStats(ctx context.Context, req *Request) error {
	st := r.store.StatsSnapshot()
	uptime := r.now().Unix() - st.StartedAt
	if uptime < 0 {
		uptime = 0
	}
	return r.reply(ctx, req, textStats(r.store.UserCount(), st, uptime), nil)
}

func (r *Router) cmdBroadcast(ctx context.Context, req *Request) error {
	body := strings.TrimSpace(req.Args)
	if body == "" {
		return r.reply(ctx, req, textBroadcastUsage, nil)
	}

	recipients := r.store.Recipients()
	if err := r.reply(ctx, req, fmt.Sprintf("📢 Sending to <b>%d</b> users...", len(recipients)), nil); err != nil {
		req.Logger.Warn("broadcast ack failed", logx.Err(err))
	}

	res, err := r.engine.Send(ctx, textBroadcastDecorated(body), recipients)
	if err != nil {
		return r.reply(ctx, req, textBroadcastUsage, nil)
	}
	return r.reply(ctx, req, fmt.Sprintf("✅ Done!\nSent: <b>%d</b>\nFailed: <b>%d</b>", res.Sent, res.Failed), nil)
}

func (r *Router) cmdMaintenance(ctx context.Context, req *Request) error {
	on, ok := parseOnOff(req.Args)
	if !ok {
		return r.reply(ctx, req, textMaintenanceUsage, nil)
	}
	s := r.store.MutateSettings(func(s *storage.Settings) { s.Maintenance = on })
	return r.reply(ctx, req, fmt.Sprintf("🛠 Maintenance: <b>%s</b>", onOff(s.Maintenance)), nil)
}

func (r *Router) cmdForceJoin(ctx context.Context, req *Request) error {
	on, ok := parseOnOff(req.Args)
	if !ok {
		return r.reply(ctx, req, textForceJoinUsage, nil)
	}
	s := r.store.MutateSettings(func(s *storage.Settings) { s.ForceJoin = on })
	return r.reply(ctx, req, fmt.Sprintf("🔒 Force Join: <b>%s</b>", onOff(s.ForceJoin)), nil)
}

func (r *Router) cmdSetChannel(ctx context.Context, req *Request) error {
	channel := strings.TrimSpace(req.Args)
	if !strings.HasPrefix(channel, "@") || len(channel) < 2 || strings.ContainsAny(channel, " \t") {
		return r.reply(ctx, req, textSetChannelUsage, nil)
	}
	s := r.store.MutateSettings(func(s *storage.Settings) { s.Channel = channel })
	return r.reply(ctx, req, fmt.Sprintf("📡 Channel set to <b>%s</b>", s.Channel), nil)
}

func parseOnOff(s string) (on bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		return false, false
	}
}
