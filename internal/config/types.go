package config

type Config struct {
	Telegram   TelegramConfig   `json:"telegram"`
	Logging    LoggingConfig    `json:"logging"`
	Supervisor SupervisorConfig `json:"supervisor"`
	Shortener  ShortenerConfig  `json:"shortener"`

	MediaWiki MediaWikiConfig `json:"mediawiki"`
	GitHub    GitHubConfig    `json:"github"`
	Jira      JiraConfig      `json:"jira"`
	PayPal    PayPalConfig    `json:"paypal"`
}

// TelegramConfig describes the relay channel every source posts into.
//
// The token may be omitted here and supplied through TELEGRAM_TOKEN instead;
// the environment wins when both are set.
type TelegramConfig struct {
	Token     string `json:"token"`
	ChannelID int64  `json:"channel_id"`
	// ThreadID targets a forum topic inside the channel (0 = none).
	ThreadID int    `json:"thread_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"`
	// Timeout is a Go duration string (e.g. "10s"). Empty keeps telebot's default.
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram mirrors warnings into an operator chat, never the relay channel.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type SupervisorConfig struct {
	// FailFast aborts startup when any enabled source cannot bind.
	// When false the source is skipped and the others keep running.
	FailFast bool `json:"fail_fast"`
}

// BreakerConfig guards an upstream HTTP dependency.
// Cooldown is a Go duration string.
type BreakerConfig struct {
	Disabled bool   `json:"disabled,omitempty"`
	Failures uint32 `json:"failures,omitempty"`
	Cooldown string `json:"cooldown,omitempty"`
}

// ShortenerConfig enables rewriting long URLs through an is.gd style
// endpoint that answers GET <endpoint>&url=<long> with the short URL as body.
type ShortenerConfig struct {
	Enabled   bool          `json:"enabled"`
	Endpoint  string        `json:"endpoint,omitempty"`
	MinLength int           `json:"min_length,omitempty"`
	Timeout   string        `json:"timeout,omitempty"`
	Breaker   BreakerConfig `json:"breaker"`
}

// SourceConfig is shared by every inbound source.
//
// Enabled is a pointer so an omitted key keeps the source on.
type SourceConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	Listen    string `json:"listen,omitempty"`
	Label     string `json:"label,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (s SourceConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type MediaWikiConfig struct {
	SourceConfig
	BaseURL string `json:"base_url,omitempty"`
	APIURL  string `json:"api_url,omitempty"`
	// LookupTimeout bounds one revision lookup. "0s" or empty disables it.
	LookupTimeout string        `json:"lookup_timeout,omitempty"`
	Breaker       BreakerConfig `json:"breaker"`
}

type GitHubConfig struct {
	SourceConfig
	// Secret enables X-Hub-Signature-256 validation when set.
	Secret string `json:"secret,omitempty"`
}

type JiraConfig struct {
	SourceConfig
	BaseURL string `json:"base_url,omitempty"`
}

type PayPalConfig struct {
	SourceConfig
	VerifyURL string `json:"verify_url,omitempty"`
	// EnforceVerification rejects notifications PayPal does not confirm.
	// When false the outcome is only logged.
	EnforceVerification bool   `json:"enforce_verification,omitempty"`
	VerifyTimeout       string `json:"verify_timeout,omitempty"`
}
