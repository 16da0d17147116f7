package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"eopbot/internal/config"
	"eopbot/internal/runtime/supervisor"
	"eopbot/internal/shortener"
	kit "eopbot/internal/transport"
	"eopbot/internal/transport/telegram"
	logx "eopbot/pkg/logx"
)

// ErrNoListeners is returned by Start when no enabled source could bind.
var ErrNoListeners = errors.New("no source listener could be started")

type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service

	sender    kit.Sender
	listeners []Listener
	sup       *supervisor.Supervisor

	notify func(state string) (bool, error)
}

type Option func(*App)

// WithSender replaces the Telegram Bot API client, e.g. in tests.
func WithSender(s kit.Sender) Option {
	return func(a *App) { a.sender = s }
}

// WithNotify replaces the systemd notification call.
func WithNotify(fn func(state string) (bool, error)) Option {
	return func(a *App) { a.notify = fn }
}

func NewApp(cfgPath string, opts ...Option) (_ *App, err error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgm: cfgm,
		cfg:  cfg,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
	for _, o := range opts {
		o(a)
	}

	if a.sender == nil {
		tc, err := mapTelegramConfig(cfg)
		if err != nil {
			return nil, err
		}
		bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram"))
		ad, err := telegram.New(tc, bootLog)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.sender = ad
	}

	logSvc, log := logx.New(mapLogConfig(cfg), a.sender)
	a.logs = logSvc
	a.log = log.With(logx.String("comp", "app"))
	defer func() {
		if err != nil {
			_ = logSvc.Close()
		}
	}()

	var short shortener.Shortener
	if cfg.Shortener.Enabled {
		sc, err := mapShortenerConfig(cfg)
		if err != nil {
			return nil, err
		}
		c, err := shortener.New(sc, log.With(logx.String("comp", "shortener")))
		if err != nil {
			return nil, err
		}
		short = c
	}

	listeners, err := buildListeners(sourceDeps{cfg: cfg, sender: a.sender, short: short, log: log})
	if err != nil {
		return nil, err
	}
	a.listeners = listeners
	return a, nil
}

// Config returns the config the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Listeners() []Listener { return a.listeners }

// Done is closed when the app stops, either through Stop or a fatal error.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start binds every enabled source and serves each in its own worker.
//
// With supervisor.fail_fast a bind error aborts startup and a listener
// that dies later stops the whole app. Otherwise the failing source is
// skipped and the rest keep running.
func (a *App) Start(ctx context.Context) error {
	failFast := a.cfg.Supervisor.FailFast
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(failFast),
	)

	bound, err := a.bind(failFast)
	if err != nil {
		a.sup.Cancel()
		return err
	}

	for _, l := range bound {
		a.sup.Go("source."+l.Name(), l.Serve)
	}

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	if ok, err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}

	names := make([]string, 0, len(bound))
	for _, l := range bound {
		names = append(names, l.Name())
	}
	a.log.Info("relay started", logx.String("sources", strings.Join(names, ",")))
	return nil
}

func (a *App) bind(failFast bool) ([]Listener, error) {
	bound := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		err := l.Listen()
		if err == nil {
			bound = append(bound, l)
			continue
		}
		if failFast {
			for _, b := range bound {
				_ = b.Close()
			}
			return nil, err
		}
		a.log.Error("source disabled: bind failed", logx.String("source", l.Name()), logx.Err(err))
	}
	if len(bound) == 0 {
		return nil, ErrNoListeners
	}
	return bound, nil
}

// reloadLoop applies the logging section live. Other sections are only
// reported, since sockets and sinks are fixed for the process lifetime.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			change := config.SummarizeConfigChange(last, next)
			last = next
			if change.Empty() {
				a.log.Info("config reloaded (no changes)")
				continue
			}
			a.logs.Apply(mapLogConfig(next))

			fields := append([]logx.Field{logx.String("changed", strings.Join(change.Sections, ","))}, change.Attrs...)
			a.log.Info("config reloaded", fields...)
			if pending := change.RestartRequired(); len(pending) > 0 {
				a.log.Warn("config changed; restart required for changes to take effect",
					logx.String("sections", strings.Join(pending, ",")))
			}
		}
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	if _, err := a.notify(daemon.SdNotifyStopping); err != nil {
		a.log.Debug("systemd notify failed", logx.Err(err))
	}

	start := time.Now()
	err := a.sup.Stop(ctx)
	if err != nil && errors.Is(err, ctx.Err()) {
		a.log.Warn("stop deadline reached; workers still running", logx.Err(err))
	}
	c := a.sup.Counters()
	a.log.Info("stopped",
		logx.Duration("took", time.Since(start)),
		logx.Int64("workers_started", int64(c.Started)),
		logx.Int64("workers_active", c.Active),
	)
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return err
}
