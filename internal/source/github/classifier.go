package github

import (
	"context"
	"fmt"
	"strconv"

	gh "github.com/google/go-github/v66/github"

	"eopbot/internal/format"
	"eopbot/internal/sink"
	logx "eopbot/pkg/logx"
)

const (
	dumpLimit = 3500
	bodyLimit = 3000
)

// Classifier renders webhook deliveries.
type Classifier struct {
	d   format.Dialect
	out sink.Emitter
	log logx.Logger
}

func NewClassifier(d format.Dialect, out sink.Emitter, log logx.Logger) *Classifier {
	if d == nil {
		d = format.HTML{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Classifier{d: d, out: out, log: log}
}

// Handle classifies one delivery and emits at most one message. It fails
// only when a known event type carries a payload that cannot be decoded.
func (c *Classifier) Handle(ctx context.Context, eventType string, payload []byte) error {
	var msg sink.Message
	var ok bool

	switch KindOf(eventType) {
	case KindNull:
		return nil
	case KindUnrecognized:
		msg, ok = c.fallback(eventType, payload), true
	default:
		ev, err := gh.ParseWebHook(eventType, payload)
		if err != nil {
			return fmt.Errorf("parse %s event: %w", eventType, err)
		}
		msg, ok = c.Format(ev)
	}
	if ok {
		c.out.Emit(ctx, msg)
	}
	return nil
}

// Format renders a parsed event. It reports false for filtered events and
// for types it has no template for.
func (c *Classifier) Format(event any) (sink.Message, bool) {
	d := c.d
	switch ev := event.(type) {
	case *gh.WatchEvent:
		return silent(format.Printf(d, "%s starred %s", c.user(ev.GetSender()), c.repo(ev.GetRepo()))), true

	case *gh.CommitCommentEvent:
		cm := ev.GetComment()
		where := fmt.Sprintf("%s:%s:L%d", ev.GetRepo().GetFullName(), cm.GetPath(), cm.GetLine())
		return loud(format.Printf(d, "%s commented on commit %s",
			c.user(ev.GetSender()), d.Link(where, cm.GetHTMLURL()))), true

	case *gh.PullRequestEvent:
		if ev.GetAction() == "synchronize" {
			return sink.Message{}, false
		}
		pr := ev.GetPullRequest()
		title := d.Link(fmt.Sprintf(`"%s" (#%d)`, pr.GetTitle(), pr.GetNumber()), pr.GetHTMLURL())
		return silent(format.Printf(d, "%s %s pull-request %s to %s [%s; %s; %s]",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()), title, c.repo(ev.GetRepo()),
			d.Link(fmt.Sprintf("%d commits", pr.GetCommits()), pr.GetHTMLURL()+"/commits"),
			d.Link(fmt.Sprintf("%d changed files (+%d/-%d)", pr.GetChangedFiles(), pr.GetAdditions(), pr.GetDeletions()), pr.GetHTMLURL()+"/files"),
			d.Link("raw diff", pr.GetDiffURL()),
		)), true

	case *gh.PullRequestReviewEvent:
		review := ev.GetReview()
		if review.GetState() == "edited" {
			return sink.Message{}, false
		}
		pr := ev.GetPullRequest()
		title := d.Link(fmt.Sprintf(`"%s" (%s/#%d)`, pr.GetTitle(), ev.GetRepo().GetFullName(), pr.GetNumber()), pr.GetHTMLURL())
		return silent(format.Printf(d, "%s %s %s pull-request %s [%s; %s; %s]",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()),
			d.Link(reviewPhrase(review.GetState()), review.GetHTMLURL()), title,
			d.Link("commits", pr.GetHTMLURL()+"/commits"),
			d.Link("changed files", pr.GetHTMLURL()+"/files"),
			d.Link("raw diff", pr.GetDiffURL()),
		)), true

	case *gh.DeleteEvent:
		return silent(format.Printf(d, `%s deleted %s "%s" of %s`,
			c.user(ev.GetSender()), d.Esc(ev.GetRefType()), d.Esc(ev.GetRef()), c.repo(ev.GetRepo()))), true

	case *gh.ReleaseEvent:
		rel := ev.GetRelease()
		qualifiers := format.Cond(rel.GetDraft(), ", draft", "") + format.Cond(rel.GetPrerelease(), ", prerelease", "")
		return silent(format.Printf(d, "%s %s release \"%s\" (tag %s, branch %s%s) of %s:\n\n%s",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()),
			d.Esc(orUnknown(rel.Name)), d.Esc(orUnknown(rel.TagName)), d.Esc(rel.GetTargetCommitish()),
			d.Esc(qualifiers), c.repo(ev.GetRepo()),
			d.Esc(format.TruncRunes(orUnknown(rel.Body), bodyLimit)),
		)), true

	case *gh.ForkEvent:
		forkee := ev.GetForkee()
		return silent(format.Printf(d, "%s forked %s as %s",
			c.user(ev.GetSender()), c.repo(ev.GetRepo()), d.Link(forkee.GetFullName(), forkee.GetHTMLURL()))), true

	case *gh.IssueCommentEvent:
		issue := ev.GetIssue()
		// A deleted comment has no page of its own left to link to.
		target := ev.GetComment().GetHTMLURL()
		if ev.GetAction() == "deleted" {
			target = issue.GetHTMLURL()
		}
		ref := fmt.Sprintf("%s#%d", ev.GetRepo().GetFullName(), issue.GetNumber())
		return loud(format.Printf(d, "%s %s a comment on issue %s (%s)",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()), d.Link(ref, target), d.Esc(strconv.Quote(issue.GetTitle())))), true

	case *gh.IssuesEvent:
		issue := ev.GetIssue()
		ref := fmt.Sprintf("%s#%d", ev.GetRepo().GetFullName(), issue.GetNumber())
		return loud(format.Printf(d, "%s %s issue %s (%s)",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()), d.Link(ref, issue.GetHTMLURL()), d.Esc(strconv.Quote(issue.GetTitle())))), true

	case *gh.MemberEvent:
		verb, prep := memberVerb(ev.GetAction())
		return silent(format.Printf(d, "%s %s %s %s %s",
			c.user(ev.GetSender()), d.Esc(verb), c.user(ev.GetMember()), d.Esc(prep), c.repo(ev.GetRepo()))), true

	case *gh.MembershipEvent:
		team := ev.GetTeam()
		change := format.Cond(ev.GetAction() == "added", "added to", "removed from")
		return silent(format.Printf(d, "%s was %s %s by %s",
			c.user(ev.GetMember()), d.Esc(change),
			d.Link(ev.GetOrg().GetLogin()+"/"+team.GetName(), team.GetMembersURL()),
			c.user(ev.GetSender()))), true

	case *gh.PushEvent:
		n := len(ev.Commits)
		commits := d.Link(fmt.Sprintf("%d commit%s", n, format.Cond(n == 1, "", "s")), ev.GetCompare())
		var summary format.M
		if n == 1 {
			// Commit messages often carry "<name@host>" trailers.
			summary = format.Printf(d, ": %s", d.Esc(ev.Commits[0].GetMessage()))
		}
		repo := ev.GetRepo()
		return loud(format.Printf(d, "%s %spushed %s to %s (%s)%s",
			c.user(ev.GetSender()), d.Esc(format.Cond(ev.GetForced(), "force-", "")), commits,
			d.Link(repo.GetFullName(), repo.GetHTMLURL()), d.Esc(ev.GetRef()), summary)), true

	case *gh.RepositoryEvent:
		return silent(format.Printf(d, "%s %s repository %s",
			c.user(ev.GetSender()), d.Esc(ev.GetAction()), c.repo(ev.GetRepo()))), true

	case *gh.PingEvent:
		return silent(format.Printf(d, "webhook %s is alive: %s",
			d.Esc(strconv.FormatInt(ev.GetHookID(), 10)), d.Italic(ev.GetZen()))), true

	default:
		c.log.Debug("no template for event", logx.String("type", fmt.Sprintf("%T", event)))
		return sink.Message{}, false
	}
}

func (c *Classifier) fallback(eventType string, payload []byte) sink.Message {
	dump := eventType + " " + string(payload)
	return loud(c.d.Esc("[github_not_implemented] ") + c.d.Esc(format.TruncRunes(dump, dumpLimit)))
}

func (c *Classifier) user(u *gh.User) format.M { return c.d.Link(u.GetLogin(), u.GetHTMLURL()) }

func (c *Classifier) repo(r *gh.Repository) format.M {
	return c.d.Link(r.GetFullName(), r.GetHTMLURL())
}

// reviewPhrase names what a review added to a pull request. Dismissals are
// reported like the approval they revoke.
func reviewPhrase(state string) string {
	switch state {
	case "approved", "dismissed":
		return "an approval to"
	case "commented":
		return "a comment to"
	case "changes_requested":
		return "a request for changes to"
	default:
		return state
	}
}

func memberVerb(action string) (verb, prep string) {
	switch action {
	case "edited":
		return "edited the permissions of", "in"
	case "added":
		return "added", "to"
	case "deleted":
		return "removed", "from"
	default:
		return "", ""
	}
}

func orUnknown(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

func loud(text format.M) sink.Message   { return sink.Message{Text: text, Loud: true} }
func silent(text format.M) sink.Message { return sink.Message{Text: text} }
