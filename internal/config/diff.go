package config

import (
	"reflect"
	"strings"

	logx "eopbot/pkg/logx"
)

// Change summarizes the difference between two configs.
type Change struct {
	// Sections lists changed top-level keys in file order.
	Sections []string
	// Attrs are safe to log: secrets are reduced to "set / not set".
	Attrs []logx.Field
}

// Empty reports whether nothing effective changed.
func (c Change) Empty() bool { return len(c.Sections) == 0 }

// RestartRequired lists changed sections that only take effect on restart.
// Logging is the one section applied live.
func (c Change) RestartRequired() []string {
	var out []string
	for _, s := range c.Sections {
		if s != "logging" {
			out = append(out, s)
		}
	}
	return out
}

// SummarizeConfigChange diffs oldCfg against newCfg. Nil configs compare
// as empty ones.
func SummarizeConfigChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change
	mark := func(section string, attrs ...logx.Field) {
		ch.Sections = append(ch.Sections, section)
		ch.Attrs = append(ch.Attrs, attrs...)
	}

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.ChannelID != nt.ChannelID || ot.ThreadID != nt.ThreadID ||
		strings.TrimSpace(ot.APIURL) != strings.TrimSpace(nt.APIURL) ||
		strings.TrimSpace(ot.Timeout) != strings.TrimSpace(nt.Timeout) ||
		ot.Token != nt.Token {
		mark("telegram",
			logx.Int64("telegram.channel_id", nt.ChannelID),
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		nl := newCfg.Logging
		mark("logging",
			logx.String("logging.level", nl.Level),
			logx.Bool("logging.console", nl.Console),
			logx.Bool("logging.file_enabled", nl.File.Enabled),
			logx.Bool("logging.telegram_enabled", nl.Telegram.Enabled),
		)
	}

	if oldCfg.Supervisor != newCfg.Supervisor {
		mark("supervisor", logx.Bool("supervisor.fail_fast", newCfg.Supervisor.FailFast))
	}

	if oldCfg.Shortener != newCfg.Shortener {
		mark("shortener",
			logx.Bool("shortener.enabled", newCfg.Shortener.Enabled),
			logx.Int("shortener.min_length", newCfg.Shortener.MinLength),
		)
	}

	if !reflect.DeepEqual(oldCfg.MediaWiki, newCfg.MediaWiki) {
		mark("mediawiki", sourceAttrs("mediawiki", newCfg.MediaWiki.SourceConfig)...)
	}
	og, ng := oldCfg.GitHub, newCfg.GitHub
	if !reflect.DeepEqual(og.SourceConfig, ng.SourceConfig) || og.Secret != ng.Secret {
		mark("github", append(sourceAttrs("github", ng.SourceConfig),
			logx.Bool("github.secret_set", ng.Secret != ""))...)
	}
	if !reflect.DeepEqual(oldCfg.Jira, newCfg.Jira) {
		mark("jira", sourceAttrs("jira", newCfg.Jira.SourceConfig)...)
	}
	if !reflect.DeepEqual(oldCfg.PayPal, newCfg.PayPal) {
		mark("paypal", append(sourceAttrs("paypal", newCfg.PayPal.SourceConfig),
			logx.Bool("paypal.enforce_verification", newCfg.PayPal.EnforceVerification))...)
	}
	return ch
}

func sourceAttrs(name string, s SourceConfig) []logx.Field {
	return []logx.Field{
		logx.Bool(name+".enabled", s.IsEnabled()),
		logx.String(name+".listen", s.Listen),
	}
}
