// Package app wires configuration, logging, storage, the Telegram adapter
// and the router into one lifecycle.
package app

import (
	"context"
	"sync"

	"mastbot/internal/bot"
	"mastbot/internal/broadcast"
	"mastbot/internal/config"
	"mastbot/internal/content"
	"mastbot/internal/gate"
	"mastbot/internal/push"
	"mastbot/internal/storage"
	kit "mastbot/internal/transport"
	"mastbot/internal/transport/telegram"
	logx "mastbot/pkg/logx"
)

type App struct {
	cfg *config.Config
	log logx.Logger

	closeLog func() error
	backend  storage.Backend
	store    *storage.Service
	adapter  *telegram.Adapter
	router   *bot.Router
	push     *push.Daily

	updates chan kit.Update
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg *config.Config) (*App, error) {
	log, closeLog := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: true,
		File: logx.FileConfig{
			Enabled: cfg.Log.File != "",
			Path:    cfg.Log.File,
		},
	})

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	backend, err := storage.Open(storage.Config{
		Driver: cfg.State.Driver,
		Dir:    cfg.State.Dir,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	store := storage.NewService(backend, storage.Options{
		Log:            log.With(logx.String("comp", "storage")),
		DefaultChannel: cfg.Channel,
		RefreshUsers:   cfg.RefreshUsers,
	})

	keeper := gate.New(store, adapter, log.With(logx.String("comp", "gate")))
	fetcher := content.NewHTTPFetcher(cfg.Content.FetchTimeout, log.With(logx.String("comp", "content")))

	engine := broadcast.New(broadcast.Config{
		RatePerSec:  cfg.Broadcast.RatePerSec,
		SendTimeout: cfg.Broadcast.SendTimeout,
		ParseMode:   "HTML",
	}, adapter, log.With(logx.String("comp", "broadcast")))

	router := bot.NewRouter(
		log.With(logx.String("comp", "router")),
		adapter, store, keeper, fetcher, engine,
		bot.Options{AdminIDs: cfg.AdminIDs},
	)

	daily, err := push.NewDaily(cfg.Push.DailyCron, store, engine, log.With(logx.String("comp", "push")))
	if err != nil {
		_ = backend.Close()
		_ = closeLog()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log.With(logx.String("comp", "app")),
		closeLog: closeLog,
		backend:  backend,
		store:    store,
		adapter:  adapter,
		router:   router,
		push:     daily,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.updates = make(chan kit.Update, 256)

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.router.Run(runCtx, a.updates)
	}()

	if err := a.push.Start(runCtx); err != nil {
		return err
	}

	a.log.Info("started",
		logx.Int("admins", len(a.cfg.AdminIDs)),
		logx.Int("users", a.store.UserCount()),
		logx.String("state_driver", a.cfg.State.Driver),
		logx.Bool("daily_push", a.push.Enabled()),
	)
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.push.Stop()
	_ = a.adapter.Stop(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.store.Flush()
	err := a.backend.Close()
	a.log.Info("stopped")
	_ = a.closeLog()
	return err
}
