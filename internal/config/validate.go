package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"eopbot/internal/format"
)

// Validate rejects configs the relay cannot start with. It expects
// ApplyDefaults to have run.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		add(fmt.Errorf("telegram.token is empty (set it or %s)", TokenEnv))
	}
	if cfg.Telegram.ChannelID == 0 {
		add(errors.New("telegram.channel_id is required"))
	}
	if cfg.Telegram.ThreadID < 0 {
		add(errors.New("telegram.thread_id must be >= 0"))
	}
	if u := strings.TrimSpace(cfg.Telegram.APIURL); u != "" {
		add(checkHTTPURL("telegram.api_url", u))
	}
	add(checkDuration("telegram.timeout", cfg.Telegram.Timeout))

	if cfg.Logging.Telegram.Enabled && cfg.Logging.Telegram.ChatID == 0 {
		add(errors.New("logging.telegram.chat_id is required when logging.telegram.enabled"))
	}
	if cfg.Logging.Telegram.RatePerSec < 0 {
		add(errors.New("logging.telegram.rate_per_sec must be >= 0"))
	}

	if cfg.Shortener.Enabled {
		add(checkHTTPURL("shortener.endpoint", cfg.Shortener.Endpoint))
		add(checkDuration("shortener.timeout", cfg.Shortener.Timeout))
		add(checkDuration("shortener.breaker.cooldown", cfg.Shortener.Breaker.Cooldown))
	}

	enabled := 0
	if mw := cfg.MediaWiki; mw.IsEnabled() {
		enabled++
		add(checkSource("mediawiki", mw.SourceConfig))
		add(checkHTTPURL("mediawiki.base_url", mw.BaseURL))
		add(checkHTTPURL("mediawiki.api_url", mw.APIURL))
		add(checkDuration("mediawiki.lookup_timeout", mw.LookupTimeout))
		add(checkDuration("mediawiki.breaker.cooldown", mw.Breaker.Cooldown))
	}
	if gh := cfg.GitHub; gh.IsEnabled() {
		enabled++
		add(checkSource("github", gh.SourceConfig))
	}
	if jr := cfg.Jira; jr.IsEnabled() {
		enabled++
		add(checkSource("jira", jr.SourceConfig))
		add(checkHTTPURL("jira.base_url", jr.BaseURL))
	}
	if pp := cfg.PayPal; pp.IsEnabled() {
		enabled++
		add(checkSource("paypal", pp.SourceConfig))
		add(checkHTTPURL("paypal.verify_url", pp.VerifyURL))
		add(checkDuration("paypal.verify_timeout", pp.VerifyTimeout))
	}
	if enabled == 0 {
		add(errors.New("no source is enabled"))
	}

	return errors.Join(errs...)
}

func checkSource(name string, s SourceConfig) error {
	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		return fmt.Errorf("%s.listen: invalid address %q: %w", name, s.Listen, err)
	}
	if strings.TrimSpace(s.Label) == "" {
		return fmt.Errorf("%s.label is empty", name)
	}
	if _, err := format.ParseDialect(s.ParseMode); err != nil {
		return fmt.Errorf("%s.parse_mode: %w", name, err)
	}
	return nil
}

func checkHTTPURL(path, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %q is not an http(s) url", path, raw)
	}
	return nil
}

func checkDuration(path, raw string) error {
	_, err := ParseDurationField(path, raw)
	return err
}
