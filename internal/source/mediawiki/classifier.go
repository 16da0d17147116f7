package mediawiki

import (
	"context"
	"strconv"

	"eopbot/internal/format"
	"eopbot/internal/sink"
	"eopbot/internal/wiki"
	logx "eopbot/pkg/logx"
)

// dumpLimit keeps fallback dumps under Telegram's 4096 character cap.
const dumpLimit = 3500

type Config struct {
	Dialect format.Dialect
	Site    wiki.Site
	// Lookup enriches approval and patrol records. Nil disables enrichment.
	Lookup wiki.Lookuper
}

// Classifier turns feed records into channel messages.
type Classifier struct {
	d      format.Dialect
	site   wiki.Site
	lookup wiki.Lookuper
	out    sink.Emitter
	log    logx.Logger
}

func NewClassifier(cfg Config, out sink.Emitter, log logx.Logger) *Classifier {
	if cfg.Dialect == nil {
		cfg.Dialect = format.HTML{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Classifier{
		d:      cfg.Dialect,
		site:   cfg.Site,
		lookup: cfg.Lookup,
		out:    out,
		log:    log,
	}
}

// Handle decodes one datagram and emits at most one message.
func (c *Classifier) Handle(ctx context.Context, raw []byte) {
	ev, err := Decode(raw)
	if err != nil {
		c.log.Debug("dropping malformed datagram", logx.Err(err), logx.Int("bytes", len(raw)))
		return
	}
	if ev.loose {
		c.log.Debug("record does not match the feed schema", logx.String("type", ev.Type), logx.String("log_type", ev.LogType))
	}
	if msg, ok := c.Format(ctx, ev); ok {
		c.out.Emit(ctx, msg)
	}
}

// Format renders ev. It reports false when the record produces no message.
func (c *Classifier) Format(ctx context.Context, ev *Event) (sink.Message, bool) {
	if ev.loose {
		return c.looseEntry(ev)
	}
	switch KindOf(ev.Type) {
	case KindEdit:
		return c.edit(ev), true
	case KindNew:
		return c.created(ev), true
	case KindLog:
		return c.logEntry(ctx, ev)
	case KindNull:
		return sink.Message{}, false
	default:
		return c.fallback("[not_implemented] ", string(ev.raw)), true
	}
}

// looseEntry dumps a record whose fields could not be read. Null tags are
// still dropped.
func (c *Classifier) looseEntry(ev *Event) (sink.Message, bool) {
	switch KindOf(ev.Type) {
	case KindNull:
		return sink.Message{}, false
	case KindLog:
		if LogKindOf(ev.LogType) == LogNull {
			return sink.Message{}, false
		}
		return c.fallback("[log_not_implemented] ", format.CorrectDelims(string(ev.raw))), true
	default:
		return c.fallback("[not_implemented] ", string(ev.raw)), true
	}
}

func (c *Classifier) logEntry(ctx context.Context, ev *Event) (sink.Message, bool) {
	d := c.d
	user := c.userLink(ev.User)

	switch LogKindOf(ev.LogType) {
	case LogApproval:
		return c.approval(ctx, ev)
	case LogPatrol:
		return c.patrol(ctx, ev)
	case LogAvatar:
		return loud(format.Printf(d, "[log/avatar] %s %s", user, d.Esc(ev.Comment))), true
	case LogBlock:
		return loud(format.Printf(d, "[log/ban] %s %s", user, d.Esc(ev.LogActionComment))), true
	case LogNewUsers:
		return loud(format.Printf(d, "[log/newusers] %s %s", user, d.Esc(ev.LogActionComment))), true
	case LogProfile:
		return loud(format.Printf(d, "[log/profile] %s %s", user, d.Esc(ev.LogActionComment))), true
	case LogRights:
		return loud(format.Printf(d, "[log/rights] %s %s", user, d.Esc(ev.LogActionComment))), true
	case LogThanks:
		return loud(format.Printf(d, "[log/thanks] %s", d.Esc(ev.LogActionComment))), true
	case LogDelete:
		return loud(format.Printf(d, "[log/delete] %s deleted page: %s", user, c.pageLink(ev.Title))), true
	case LogUpload:
		return loud(format.Printf(d, "[log/upload] %s uploaded file: %s", user, c.pageLink(ev.Title))), true
	case LogMove:
		target := ev.LogParams.String("target")
		if target == "" {
			target = ev.LogParams.String("4::target")
		}
		return loud(format.Printf(d, "[log/move] %s moved %s to %s", user, c.pageLink(ev.Title), c.pageLink(target))), true
	case LogUserMerge:
		return loud(format.Printf(d, "[log/usermerge] %s %s", user, d.Esc(format.Decode(ev.LogActionComment)))), true
	case LogNull:
		return sink.Message{}, false
	default:
		return c.fallback("[log_not_implemented] ", format.CorrectDelims(string(ev.raw))), true
	}
}

func (c *Classifier) edit(ev *Event) sink.Message {
	d := c.d
	diff := d.Link(ev.Title, c.site.Diff(ev.Title, ev.Revision.New, ev.Revision.Old))
	return loud(format.Printf(d, "%s%s edited %s %s",
		c.flags(ev), c.userLink(ev.User), diff, d.Esc(format.ExplainComment(ev.Comment))))
}

func (c *Classifier) created(ev *Event) sink.Message {
	d := c.d
	page := d.Link(ev.Title, c.site.Revision(ev.Title, ev.Revision.New))
	return loud(format.Printf(d, "[new] %s%s created page %s %s",
		c.flags(ev), c.userLink(ev.User), page, d.Esc(format.ExplainComment(ev.Comment))))
}

// flags renders "| minor patrolled bot | " with only the flags that are set.
func (c *Classifier) flags(ev *Event) format.M {
	d := c.d
	set := format.Join(" ",
		format.Cond(ev.Minor, d.Bold("minor"), ""),
		format.Cond(ev.Patrolled, d.Bold("patrolled"), ""),
		format.Cond(ev.Bot, d.Bold("bot"), ""),
	)
	if set == "" {
		return ""
	}
	return d.Esc("| ") + set + d.Esc(" | ")
}

func (c *Classifier) approval(ctx context.Context, ev *Event) (sink.Message, bool) {
	d := c.d
	switch ApprovalActionOf(ev.LogAction) {
	case ApprovalApprove:
		rev, ok := ev.LogParams.Int64("rev_id")
		if !ok {
			c.log.Debug("approval without rev_id", logx.String("title", ev.Title))
			return c.approvalFallback(ev), true
		}
		oldRev, _ := ev.LogParams.Int64("old_rev_id")

		info, found := c.enrich(ctx, ev.Title, rev)
		parent := oldRev
		if found {
			parent = info.ParentID
		}
		link := d.Link("revision "+strconv.FormatInt(rev, 10), c.site.Diff(ev.Title, rev, parent))
		return loud(format.Printf(d, "[log/approval] %s approved %s%s of %s",
			c.userLink(ev.User), link, c.byClause(info, found), c.pageLink(ev.Title))), true

	case ApprovalUnapprove:
		// Unapproving reverts the page, so the only useful anchor is the
		// previously approved revision.
		oldRev, ok := ev.LogParams.Int64("old_rev_id")
		if !ok {
			c.log.Debug("unapproval without old_rev_id", logx.String("title", ev.Title))
			return c.approvalFallback(ev), true
		}
		info, found := c.enrich(ctx, ev.Title, oldRev)
		link := d.Link("revision "+strconv.FormatInt(oldRev, 10), c.site.RevisionView(ev.Title, oldRev))
		return loud(format.Printf(d, "[log/approval] %s revoked the approval of %s (was %s%s)",
			c.userLink(ev.User), c.pageLink(ev.Title), link, c.byClause(info, found))), true

	case ApprovalNull:
		return sink.Message{}, false
	default:
		return c.approvalFallback(ev), true
	}
}

func (c *Classifier) approvalFallback(ev *Event) sink.Message {
	return c.fallback("[log/approval/not_implemented] ", format.CorrectDelims(string(ev.raw)))
}

func (c *Classifier) patrol(ctx context.Context, ev *Event) (sink.Message, bool) {
	// Automatic patrols (auto == 1) are noise.
	if auto, ok := ev.LogParams.Int64("auto"); !ok || auto == 1 {
		return sink.Message{}, false
	}
	cur, ok := ev.LogParams.Int64("curid")
	if !ok {
		c.log.Debug("patrol without curid", logx.String("title", ev.Title))
		return c.fallback("[log_not_implemented] ", format.CorrectDelims(string(ev.raw))), true
	}
	prev, _ := ev.LogParams.Int64("previd")

	d := c.d
	info, found := c.enrich(ctx, ev.Title, cur)
	link := d.Link("revision "+strconv.FormatInt(cur, 10), c.site.Diff(ev.Title, cur, prev))
	return loud(format.Printf(d, "[log/patrol] %s marked %s%s of %s patrolled",
		c.userLink(ev.User), link, c.byClause(info, found), c.pageLink(ev.Title))), true
}

func (c *Classifier) enrich(ctx context.Context, title string, rev int64) (wiki.RevisionInfo, bool) {
	if c.lookup == nil {
		return wiki.RevisionInfo{}, false
	}
	info, ok := c.lookup.Lookup(ctx, title, rev)
	if !ok {
		c.log.Warn("failed to obtain revision information",
			logx.String("title", title),
			logx.Int64("rev_id", rev),
		)
	}
	return info, ok
}

// byClause renders ` by <author> ("<comment>")`, or nothing without enrichment.
func (c *Classifier) byClause(info wiki.RevisionInfo, found bool) format.M {
	if !found {
		return ""
	}
	return format.Printf(c.d, ` by %s ("%s")`, c.userLink(info.User), c.d.Esc(info.Comment))
}

func (c *Classifier) fallback(prefix, dump string) sink.Message {
	return loud(c.d.Esc(prefix) + c.d.Esc(format.TruncRunes(dump, dumpLimit)))
}

func (c *Classifier) userLink(name string) format.M  { return c.d.Link(name, c.site.User(name)) }
func (c *Classifier) pageLink(title string) format.M { return c.d.Link(title, c.site.Page(title)) }

func loud(text format.M) sink.Message { return sink.Message{Text: text, Loud: true} }
