package config

import (
	"os"
	"strings"
)

// TokenEnv overrides telegram.token when set.
const TokenEnv = "TELEGRAM_TOKEN"

const (
	DefaultShortenerEndpoint = "https://is.gd/create.php?format=simple"
	DefaultShortenerMinLen   = 64
	DefaultWikiBaseURL       = "https://psychonautwiki.org"
	DefaultJiraBaseURL       = "https://psychonaut.atlassian.net"
	DefaultPayPalVerifyURL   = "https://ipnpb.paypal.com/cgi-bin/webscr"
)

// Default listen addresses, one fixed port per source.
const (
	DefaultMediaWikiListen = "0.0.0.0:3000"
	DefaultGitHubListen    = "0.0.0.0:4567"
	DefaultJiraListen      = "0.0.0.0:9293"
	DefaultPayPalListen    = "0.0.0.0:9728"
)

// ApplyEnv copies environment overrides into cfg.
func ApplyEnv(cfg *Config) {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		cfg.Telegram.Token = tok
	}
}

// ApplyDefaults fills omitted (zero) fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}

	sh := &cfg.Shortener
	if strings.TrimSpace(sh.Endpoint) == "" {
		sh.Endpoint = DefaultShortenerEndpoint
	}
	if sh.MinLength <= 0 {
		sh.MinLength = DefaultShortenerMinLen
	}
	if strings.TrimSpace(sh.Timeout) == "" {
		sh.Timeout = "5s"
	}

	mw := &cfg.MediaWiki
	sourceDefaults(&mw.SourceConfig, DefaultMediaWikiListen, "MediaWiki")
	mw.BaseURL = strings.TrimRight(strings.TrimSpace(mw.BaseURL), "/")
	if mw.BaseURL == "" {
		mw.BaseURL = DefaultWikiBaseURL
	}
	if strings.TrimSpace(mw.APIURL) == "" {
		mw.APIURL = mw.BaseURL + "/w/api.php"
	}

	sourceDefaults(&cfg.GitHub.SourceConfig, DefaultGitHubListen, "GitHub")

	jr := &cfg.Jira
	sourceDefaults(&jr.SourceConfig, DefaultJiraListen, "Jira")
	jr.BaseURL = strings.TrimRight(strings.TrimSpace(jr.BaseURL), "/")
	if jr.BaseURL == "" {
		jr.BaseURL = DefaultJiraBaseURL
	}

	pp := &cfg.PayPal
	sourceDefaults(&pp.SourceConfig, DefaultPayPalListen, "PayPal")
	if strings.TrimSpace(pp.VerifyURL) == "" {
		pp.VerifyURL = DefaultPayPalVerifyURL
	}
	if strings.TrimSpace(pp.VerifyTimeout) == "" {
		pp.VerifyTimeout = "10s"
	}
}

func sourceDefaults(s *SourceConfig, listen, label string) {
	if strings.TrimSpace(s.Listen) == "" {
		s.Listen = listen
	}
	if strings.TrimSpace(s.Label) == "" {
		s.Label = label
	}
	if strings.TrimSpace(s.ParseMode) == "" {
		s.ParseMode = "html"
	}
}
