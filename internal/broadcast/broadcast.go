// Package broadcast fans one admin-authored message out to every known
// user. The fan-out is sequential and isolates per-recipient failures: a
// failed delivery is counted and the remaining sends still happen.
package broadcast

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"

	kit "mastbot/internal/transport"
	logx "mastbot/pkg/logx"
)

// ErrEmptyMessage rejects a broadcast with no body before any send is
// attempted.
var ErrEmptyMessage = errors.New("broadcast message is empty")

// Result aggregates a finished fan-out.
type Result struct {
	Sent   int
	Failed int
}

type Config struct {
	// RatePerSec paces outbound sends to avoid API throttling. 0 keeps the
	// historical unpaced behavior.
	RatePerSec int
	// SendTimeout bounds each individual delivery so one slow recipient
	// cannot stall the batch.
	SendTimeout time.Duration
	// ParseMode for outbound sends.
	ParseMode string
}

type Engine struct {
	cfg     Config
	adapter kit.Adapter
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &Engine{cfg: cfg, adapter: adapter, limiter: lim, log: log}
}

// Send delivers text to every recipient in order and returns the aggregate
// counts. Send history is not persisted; there is no retry.
func (e *Engine) Send(ctx context.Context, text string, recipients []int64) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}

	opt := &kit.SendOptions{ParseMode: e.cfg.ParseMode}

	start := time.Now()
	var res Result
	for _, id := range recipients {
		if err := e.sendOne(ctx, id, text, opt); err != nil {
			res.Failed++
			e.log.Debug("broadcast delivery failed", logx.Int64("user_id", id), logx.Err(err))
			continue
		}
		res.Sent++
	}

	fields := []logx.Field{
		logx.Int("total", len(recipients)),
		logx.Int("sent", res.Sent),
		logx.Int("failed", res.Failed),
		logx.Duration("dur", time.Since(start)),
	}
	if res.Failed > 0 {
		e.log.Warn("broadcast finished with failures", fields...)
	} else {
		e.log.Info("broadcast finished", fields...)
	}
	return res, nil
}

func (e *Engine) sendOne(ctx context.Context, id int64, text string, opt *kit.SendOptions) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	cctx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
	defer cancel()
	return e.adapter.SendText(cctx, kit.ChatTarget{ChatID: id}, text, opt)
}
