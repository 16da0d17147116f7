package sink

import (
	"context"
	"regexp"
	"strings"

	"eopbot/internal/format"
	"eopbot/internal/shortener"
	"eopbot/internal/transport"
	logx "eopbot/pkg/logx"
)

// Identity is how one source presents itself in the channel.
type Identity struct {
	Label    string
	Dialect  format.Dialect
	ChatID   int64
	ThreadID int
}

// Message is one rendered notification. Loud messages play a sound.
type Message struct {
	Text format.M
	Loud bool
}

// Emitter accepts rendered notifications. Delivery is best-effort.
type Emitter interface {
	Emit(ctx context.Context, msg Message)
}

type Option func(*Sink)

// WithShortener rewrites every URL longer than minLength through s.
func WithShortener(s shortener.Shortener, minLength int) Option {
	return func(k *Sink) {
		k.short = s
		k.minLen = minLength
	}
}

// Sink delivers messages of one source to the channel. It is immutable after
// New and safe for concurrent use.
type Sink struct {
	id     Identity
	banner format.M
	send   transport.Sender
	short  shortener.Shortener
	minLen int
	log    logx.Logger
}

var _ Emitter = (*Sink)(nil)

func New(id Identity, sender transport.Sender, log logx.Logger, opts ...Option) *Sink {
	if id.Dialect == nil {
		id.Dialect = format.HTML{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Sink{
		id:     id,
		banner: "⥂ " + id.Dialect.Bold(id.Label) + " ⟹ ",
		send:   sender,
		log:    log.With(logx.String("comp", "sink"), logx.String("source", id.Label)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sink) Identity() Identity { return s.id }

// Emit sends msg. Failures are logged and dropped; nothing is retried.
func (s *Sink) Emit(ctx context.Context, msg Message) {
	text := string(s.banner + msg.Text)
	if s.short != nil {
		text = s.shortenURLs(ctx, text)
	}

	to := transport.ChatTarget{ChatID: s.id.ChatID, ThreadID: s.id.ThreadID}
	opt := &transport.SendOptions{
		ParseMode:           s.id.Dialect.ParseMode(),
		DisablePreview:      true,
		DisableNotification: !msg.Loud,
	}
	if _, err := s.send.SendText(ctx, to, text, opt); err != nil {
		s.log.Error("send failed",
			logx.Err(err),
			logx.Bool("loud", msg.Loud),
			logx.String("text", format.TruncRunes(text, 200)),
		)
		return
	}
	s.log.Debug("sent", logx.Bool("loud", msg.Loud))
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>()\[\]]+`)

func (s *Sink) shortenURLs(ctx context.Context, text string) string {
	d := s.id.Dialect
	return urlPattern.ReplaceAllStringFunc(text, func(embedded string) string {
		long := d.RawURL(embedded)
		if len(long) <= s.minLen {
			return embedded
		}
		short, err := s.short.Shorten(ctx, long)
		if err != nil {
			s.log.Warn("shorten failed", logx.String("url", long), logx.Err(err))
			return embedded
		}
		return d.EscURL(strings.TrimSpace(short))
	})
}
