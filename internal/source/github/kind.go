package github

// Kind is the webhook event type from the X-GitHub-Event header.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindNull
	KindWatch
	KindCommitComment
	KindPullRequest
	KindPullRequestReview
	KindDelete
	KindRelease
	KindFork
	KindIssueComment
	KindIssues
	KindMember
	KindMembership
	KindPush
	KindRepository
	KindPing
)

var kindNames = map[string]Kind{
	"watch":               KindWatch,
	"commit_comment":      KindCommitComment,
	"pull_request":        KindPullRequest,
	"pull_request_review": KindPullRequestReview,
	"delete":              KindDelete,
	"release":             KindRelease,
	"fork":                KindFork,
	"issue_comment":       KindIssueComment,
	"issues":              KindIssues,
	"member":              KindMember,
	"membership":          KindMembership,
	"push":                KindPush,
	"repository":          KindRepository,
	"ping":                KindPing,
}

func KindOf(eventType string) Kind {
	if eventType == "" || eventType == "null" {
		return KindNull
	}
	if k, ok := kindNames[eventType]; ok {
		return k
	}
	return KindUnrecognized
}
