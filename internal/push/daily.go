// Package push schedules the optional daily-pack broadcast. It reuses the
// broadcast engine's fan-out, so per-recipient failures are isolated and
// counted the same way admin broadcasts are.
package push

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mastbot/internal/broadcast"
	"mastbot/internal/content"
	"mastbot/internal/storage"
	logx "mastbot/pkg/logx"
)

type Daily struct {
	spec   string
	store  *storage.Service
	engine *broadcast.Engine
	log    logx.Logger

	cron *cron.Cron
	now  func() time.Time
}

// NewDaily builds the push service. An empty spec disables it; Start then
// does nothing.
func NewDaily(spec string, store *storage.Service, engine *broadcast.Engine, log logx.Logger) (*Daily, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	spec = strings.TrimSpace(spec)
	d := &Daily{spec: spec, store: store, engine: engine, log: log, now: time.Now}
	if spec == "" {
		return d, nil
	}
	// Validate the spec up front so a bad config fails at startup, not at
	// first trigger.
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.New("invalid daily push cron spec: " + err.Error())
	}
	return d, nil
}

func (d *Daily) Enabled() bool { return d.spec != "" }

func (d *Daily) Start(ctx context.Context) error {
	if d.spec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(d.spec, func() { d.run(ctx) }); err != nil {
		return err
	}
	d.cron = c
	c.Start()
	d.log.Info("daily push scheduled", logx.String("spec", d.spec))
	return nil
}

func (d *Daily) Stop() {
	if d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		d.log.Warn("daily push stop timed out")
	}
	d.cron = nil
}

func (d *Daily) run(ctx context.Context) {
	if d.store.Maintenance() {
		d.log.Info("daily push skipped (maintenance on)")
		return
	}
	recipients := d.store.Recipients()
	if len(recipients) == 0 {
		d.log.Debug("daily push skipped (no users)")
		return
	}
	res, err := d.engine.Send(ctx, content.Daily(d.now()), recipients)
	if err != nil {
		d.log.Warn("daily push failed", logx.Err(err))
		return
	}
	d.log.Info("daily push sent", logx.Int("sent", res.Sent), logx.Int("failed", res.Failed))
}
