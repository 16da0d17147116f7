package app

import (
	"time"

	"eopbot/internal/breaker"
	"eopbot/internal/config"
	"eopbot/internal/shortener"
	"eopbot/internal/transport/telegram"
	"eopbot/internal/wiki"
	logx "eopbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			ChatID:     l.Telegram.ChatID,
			ThreadID:   l.Telegram.ThreadID,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationField("telegram.timeout", cfg.Telegram.Timeout)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: timeout,
	}, nil
}

func mapBreakerConfig(name, path string, bc config.BreakerConfig) (breaker.Config, error) {
	cooldown, err := config.ParseDurationField(path+".cooldown", bc.Cooldown)
	if err != nil {
		return breaker.Config{}, err
	}
	return breaker.Config{
		Name:     name,
		Failures: bc.Failures,
		Cooldown: cooldown,
		Disabled: bc.Disabled,
	}, nil
}

func mapShortenerConfig(cfg *config.Config) (shortener.Config, error) {
	sc := cfg.Shortener
	timeout, err := config.ParseDurationOrDefault("shortener.timeout", sc.Timeout, 5*time.Second)
	if err != nil {
		return shortener.Config{}, err
	}
	bc, err := mapBreakerConfig("shortener", "shortener.breaker", sc.Breaker)
	if err != nil {
		return shortener.Config{}, err
	}
	return shortener.Config{Endpoint: sc.Endpoint, Timeout: timeout, Breaker: bc}, nil
}

func mapWikiClientConfig(cfg *config.Config) (wiki.ClientConfig, error) {
	mw := cfg.MediaWiki
	timeout, err := config.ParseDurationField("mediawiki.lookup_timeout", mw.LookupTimeout)
	if err != nil {
		return wiki.ClientConfig{}, err
	}
	bc, err := mapBreakerConfig("wiki.lookup", "mediawiki.breaker", mw.Breaker)
	if err != nil {
		return wiki.ClientConfig{}, err
	}
	return wiki.ClientConfig{APIURL: mw.APIURL, Timeout: timeout, Breaker: bc}, nil
}
