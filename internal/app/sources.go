package app

import (
	"context"
	"fmt"
	"time"

	"eopbot/internal/config"
	"eopbot/internal/format"
	"eopbot/internal/httpserver"
	"eopbot/internal/shortener"
	"eopbot/internal/sink"
	"eopbot/internal/source/github"
	"eopbot/internal/source/jira"
	"eopbot/internal/source/mediawiki"
	"eopbot/internal/source/paypal"
	kit "eopbot/internal/transport"
	"eopbot/internal/wiki"
	logx "eopbot/pkg/logx"
)

// Listener is one inbound source. Listen binds the socket so bind errors
// surface before any worker starts; Serve blocks until ctx is done.
type Listener interface {
	Name() string
	Listen() error
	Serve(ctx context.Context) error
	Close() error
}

// sourceDeps is what every source needs besides its own config section.
type sourceDeps struct {
	cfg    *config.Config
	sender kit.Sender
	short  shortener.Shortener
	log    logx.Logger
}

func (d sourceDeps) newSink(sc config.SourceConfig, dialect format.Dialect) *sink.Sink {
	var opts []sink.Option
	if d.short != nil {
		opts = append(opts, sink.WithShortener(d.short, d.cfg.Shortener.MinLength))
	}
	return sink.New(sink.Identity{
		Label:    sc.Label,
		Dialect:  dialect,
		ChatID:   d.cfg.Telegram.ChannelID,
		ThreadID: d.cfg.Telegram.ThreadID,
	}, d.sender, d.log, opts...)
}

// buildListeners wires one listener per enabled source, in a fixed order.
func buildListeners(d sourceDeps) ([]Listener, error) {
	type builder struct {
		sc    config.SourceConfig
		build func(format.Dialect, logx.Logger) (Listener, error)
	}
	builders := []builder{
		{d.cfg.MediaWiki.SourceConfig, d.mediaWikiSource},
		{d.cfg.GitHub.SourceConfig, d.githubSource},
		{d.cfg.Jira.SourceConfig, d.jiraSource},
		{d.cfg.PayPal.SourceConfig, d.paypalSource},
	}

	var out []Listener
	for _, b := range builders {
		if !b.sc.IsEnabled() {
			continue
		}
		dialect, err := format.ParseDialect(b.sc.ParseMode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.sc.Label, err)
		}
		l, err := b.build(dialect, d.log)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (d sourceDeps) mediaWikiSource(dialect format.Dialect, log logx.Logger) (Listener, error) {
	mw := d.cfg.MediaWiki
	log = log.With(logx.String("comp", "mediawiki"))
	cc, err := mapWikiClientConfig(d.cfg)
	if err != nil {
		return nil, err
	}
	cls := mediawiki.NewClassifier(mediawiki.Config{
		Dialect: dialect,
		Site:    wiki.NewSite(mw.BaseURL),
		Lookup:  wiki.NewClient(cc, log),
	}, d.newSink(mw.SourceConfig, dialect), log)
	return mediawiki.NewListener(mw.Listen, cls, log), nil
}

func (d sourceDeps) githubSource(dialect format.Dialect, log logx.Logger) (Listener, error) {
	gc := d.cfg.GitHub
	log = log.With(logx.String("comp", "github"))
	r := httpserver.NewEngine(log)
	cls := github.NewClassifier(dialect, d.newSink(gc.SourceConfig, dialect), log)
	github.NewHandler(cls, gc.Secret, log).Routes(r)
	return httpserver.NewServer("github", gc.Listen, r, log), nil
}

func (d sourceDeps) jiraSource(dialect format.Dialect, log logx.Logger) (Listener, error) {
	jc := d.cfg.Jira
	log = log.With(logx.String("comp", "jira"))
	r := httpserver.NewEngine(log)
	cls := jira.NewClassifier(dialect, jc.BaseURL, d.newSink(jc.SourceConfig, dialect), log)
	jira.NewHandler(cls, log).Routes(r)
	return httpserver.NewServer("jira", jc.Listen, r, log), nil
}

func (d sourceDeps) paypalSource(dialect format.Dialect, log logx.Logger) (Listener, error) {
	pc := d.cfg.PayPal
	log = log.With(logx.String("comp", "paypal"))
	timeout, err := config.ParseDurationOrDefault("paypal.verify_timeout", pc.VerifyTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	r := httpserver.NewEngine(log)
	cls := paypal.NewClassifier(dialect, d.newSink(pc.SourceConfig, dialect))
	paypal.NewHandler(cls, paypal.NewHTTPVerifier(pc.VerifyURL, timeout), pc.EnforceVerification, log).Routes(r)
	return httpserver.NewServer("paypal", pc.Listen, r, log), nil
}
