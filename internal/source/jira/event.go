package jira

// Event is the subset of a Jira issue webhook the relay renders.
type Event struct {
	WebhookEvent string `json:"webhookEvent" binding:"required"`
	User         User   `json:"user"`
	Issue        Issue  `json:"issue"`
}

type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName" binding:"required"`
}

type Issue struct {
	Self   string `json:"self"`
	Key    string `json:"key" binding:"required"`
	Fields Fields `json:"fields"`
}

type Fields struct {
	IssueType Named  `json:"issuetype"`
	Project   Named  `json:"project"`
	Priority  Named  `json:"priority"`
	Status    Status `json:"status"`
	Summary   string `json:"summary"`
}

type Named struct {
	Name string `json:"name"`
}

type Status struct {
	Name           string `json:"name"`
	StatusCategory Named  `json:"statusCategory"`
}

// Kind is the issue lifecycle step named by webhookEvent.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindNull
	KindIssueCreated
	KindIssueUpdated
	KindIssueDeleted
)

func KindOf(webhookEvent string) Kind {
	if webhookEvent == "" || webhookEvent == "null" {
		return KindNull
	}
	switch webhookEvent {
	case "jira:issue_created":
		return KindIssueCreated
	case "jira:issue_updated":
		return KindIssueUpdated
	case "jira:issue_deleted":
		return KindIssueDeleted
	default:
		return KindUnrecognized
	}
}

// Verb is the past-tense action for k, empty for kinds without a message.
func (k Kind) Verb() string {
	switch k {
	case KindIssueCreated:
		return "created"
	case KindIssueUpdated:
		return "updated"
	case KindIssueDeleted:
		return "deleted"
	default:
		return ""
	}
}
