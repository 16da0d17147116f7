package jira

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"eopbot/internal/format"
	"eopbot/internal/sink"
	logx "eopbot/pkg/logx"
)

type Classifier struct {
	d    format.Dialect
	base string
	out  sink.Emitter
	log  logx.Logger
}

// NewClassifier renders issue events with links into the Jira site at base,
// e.g. https://psychonaut.atlassian.net.
func NewClassifier(d format.Dialect, base string, out sink.Emitter, log logx.Logger) *Classifier {
	if d == nil {
		d = format.HTML{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Classifier{d: d, base: strings.TrimRight(base, "/"), out: out, log: log}
}

func (c *Classifier) Handle(ctx context.Context, ev *Event) {
	msg, ok := c.Format(ev)
	if !ok {
		c.log.Debug("ignoring webhook event", logx.String("event", ev.WebhookEvent))
		return
	}
	c.out.Emit(ctx, msg)
}

// Format renders ev. Only issue created/updated/deleted events produce a message.
func (c *Classifier) Format(ev *Event) (sink.Message, bool) {
	kind := KindOf(ev.WebhookEvent)
	verb := kind.Verb()
	if verb == "" {
		return sink.Message{}, false
	}

	d := c.d
	f := ev.Issue.Fields
	actor := d.Link(ev.User.DisplayName, c.base+"/people/"+url.PathEscape(ev.User.AccountID))
	key := d.Link(ev.Issue.Key, c.base+"/browse/"+url.PathEscape(ev.Issue.Key))

	text := format.Printf(d, "[%s | %s] %s %s %s %s [%s]: %s",
		d.Italic(lower(f.Priority.Name)),
		d.Italic(lower(f.Status.Name)),
		actor,
		d.Esc(verb),
		d.Esc(lower(f.IssueType.Name)),
		key,
		d.Esc(f.Project.Name),
		d.Bold(f.Summary),
	)
	return sink.Message{Text: text, Loud: true}, true
}

// lower is Unicode-aware; a Caser is stateful, so each call gets its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
